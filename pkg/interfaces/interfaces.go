/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: interfaces.go
Description: Shared types and interfaces for the Akaylee file fuzzer. Defines the run
configuration, undo records, termination events and the mutator/executor contracts used
across packages so that core, strategies, execution and analysis never import each other in a cycle.
*/

package interfaces

import (
	"context"
	"math/rand"
	"syscall"
	"time"
)

// UndoRecord maps a byte index to the value it held before a mutation.
// The first capture for an index wins; later writes to the same index are corruption steps.
type UndoRecord map[int]byte

// Record stores the original value for idx unless one is already held.
func (u UndoRecord) Record(idx int, original byte) {
	if _, seen := u[idx]; seen {
		return
	}
	u[idx] = original
}

// Restore writes every recorded byte back into buf.
func (u UndoRecord) Restore(buf []byte) {
	for idx, b := range u {
		buf[idx] = b
	}
}

// Mutation describes one in-place corruption of a buffer
type Mutation struct {
	Strategy string     // Name of the mutator that produced it
	Indices  []int      // Drawn indices, in draw order (may repeat)
	Undo     UndoRecord // Original bytes for every touched index
}

// Mutator corrupts a buffer in place and returns enough information to undo it.
// Randomness is always supplied by the caller.
type Mutator interface {
	Mutate(buf []byte, rng *rand.Rand) (*Mutation, error)
	Name() string
	Description() string
}

// Termination is the observed end state of one child process
type Termination struct {
	Exited   bool           // Process called exit
	ExitCode int            // Exit code when Exited
	Signaled bool           // Process was terminated by a signal
	Signal   syscall.Signal // Terminating signal when Signaled
	TimedOut bool           // Killed by the per-round watchdog
	Duration time.Duration  // Wall-clock time from start to reap
}

// Outcome is the classification of a single round
type Outcome int

const (
	OutcomeNormal Outcome = iota
	OutcomeCrash
)

// String returns the string representation of the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeNormal:
		return "normal"
	case OutcomeCrash:
		return "crash"
	default:
		return "unknown"
	}
}

// Executor runs the target against one buffer and reports how it terminated.
// A returned error means the target could not be run at all and is fatal for the run.
type Executor interface {
	Execute(ctx context.Context, data []byte) (*Termination, error)
	Close() error
}

// RunConfig holds everything a fuzzing run needs. It is immutable once the run starts.
type RunConfig struct {
	Seed             *int64        // nil means seed from system entropy
	Rounds           int           // Number of rounds to execute
	CorpusPath       string        // Seed file or directory of seed files
	TargetPath       string        // Program under test
	CrashDir         string        // Directory receiving crash files
	ScratchPath      string        // File rewritten every round and passed to the target
	Strategy         string        // Mutation strategy policy name
	Timeout          time.Duration // Per-round watchdog, zero disables it
	ProgressInterval int           // Rounds between progress reports
	CrashSignals     []string      // Signals classified as crashes
	OutputDir        string        // Where the run summary is written
	SessionID        string        // Identifier stamped into logs and summary
}

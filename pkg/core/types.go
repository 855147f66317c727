/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: types.go
Description: Core types for the Akaylee file fuzzer engine. Defines per-round events and the
run statistics reported during and after a fuzzing campaign.
*/

package core

import (
	"time"

	"github.com/kleascm/akaylee-filefuzz/pkg/interfaces"
)

// RoundEvent describes one completed round
type RoundEvent struct {
	Round       int                     `json:"round"`       // Zero-based round index
	PoolIndex   int                     `json:"pool_index"`  // Which pool buffer was mutated
	Strategy    string                  `json:"strategy"`    // Mutator that ran this round
	Indices     []int                   `json:"indices"`     // Drawn mutation indices
	Termination *interfaces.Termination `json:"termination"` // How the target ended
	Outcome     interfaces.Outcome      `json:"outcome"`     // Classification of the termination
	CrashFile   string                  `json:"crash_file"`  // Archive path when a crash was saved
	ArchiveErr  error                   `json:"-"`           // Archive failure, if any
}

// RunStats tracks a fuzzing run. The engine is the only writer.
type RunStats struct {
	SessionID       string        `json:"session_id"`
	Seed            int64         `json:"seed"`
	SeedProvided    bool          `json:"seed_provided"`
	Strategy        string        `json:"strategy"`
	Target          string        `json:"target"`
	PoolSize        int           `json:"pool_size"`
	RoundsRequested int           `json:"rounds_requested"`
	RoundsCompleted int           `json:"rounds_completed"`
	Crashes         int           `json:"crashes"`
	ArchiveFailures int           `json:"archive_failures"`
	Timeouts        int           `json:"timeouts"`
	CrashFiles      []string      `json:"crash_files"`
	Interrupted     bool          `json:"interrupted"`
	StartTime       time.Time     `json:"start_time"`
	Elapsed         time.Duration `json:"elapsed"`
}

// RoundsPerSecond returns the average execution rate
func (s *RunStats) RoundsPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.RoundsCompleted) / s.Elapsed.Seconds()
}

func (s *RunStats) clone() RunStats {
	out := *s
	out.CrashFiles = append([]string(nil), s.CrashFiles...)
	return out
}

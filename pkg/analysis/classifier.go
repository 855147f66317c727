/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: classifier.go
Description: Crash classification for the Akaylee file fuzzer. Decides from a child's
termination event whether a round found a memory-safety crash. Only memory access
violations count by default; other fatal signals can be opted in explicitly.
*/

package analysis

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/kleascm/akaylee-filefuzz/pkg/interfaces"
	"golang.org/x/sys/unix"
)

// ErrUnknownSignal is returned by ParseSignals for names that are not signals
var ErrUnknownSignal = errors.New("unknown signal")

// DefaultCrashSignals is the classification used when nothing else is configured
var DefaultCrashSignals = []syscall.Signal{unix.SIGSEGV}

// Classifier maps termination events to round outcomes
type Classifier struct {
	signals map[syscall.Signal]bool
}

// NewClassifier creates a classifier treating the given signals as crashes.
// With no signals it falls back to DefaultCrashSignals.
func NewClassifier(signals ...syscall.Signal) *Classifier {
	if len(signals) == 0 {
		signals = DefaultCrashSignals
	}
	c := &Classifier{signals: make(map[syscall.Signal]bool, len(signals))}
	for _, sig := range signals {
		c.signals[sig] = true
	}
	return c
}

// Classify returns OutcomeCrash when the child was killed by a crash signal.
// Normal exits with any code, other signals and watchdog kills are all OutcomeNormal.
func (c *Classifier) Classify(term *interfaces.Termination) interfaces.Outcome {
	if term == nil || !term.Signaled || term.TimedOut {
		return interfaces.OutcomeNormal
	}
	if c.signals[term.Signal] {
		return interfaces.OutcomeCrash
	}
	return interfaces.OutcomeNormal
}

// Signals returns the crash signals in ascending order
func (c *Classifier) Signals() []syscall.Signal {
	out := make([]syscall.Signal, 0, len(c.signals))
	for sig := range c.signals {
		out = append(out, sig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseSignals accepts SIGSEGV, SEGV, segv or 11 style names
func ParseSignals(names []string) ([]syscall.Signal, error) {
	signals := make([]syscall.Signal, 0, len(names))
	for _, raw := range names {
		name := strings.ToUpper(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		if n, err := strconv.Atoi(name); err == nil {
			sig := syscall.Signal(n)
			if unix.SignalName(sig) == "" {
				return nil, fmt.Errorf("%w: %s", ErrUnknownSignal, raw)
			}
			signals = append(signals, sig)
			continue
		}
		if !strings.HasPrefix(name, "SIG") {
			name = "SIG" + name
		}
		sig := unix.SignalNum(name)
		if sig == 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSignal, raw)
		}
		signals = append(signals, sig)
	}
	return signals, nil
}

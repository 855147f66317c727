/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: reporter.go
Description: Reporter interface and implementations for Akaylee fuzzer telemetry. The engine
notifies reporters after every round, at each progress interval and when the run ends.
*/

package core

import (
	"sync"
	"time"

	"github.com/kleascm/akaylee-filefuzz/pkg/execution"
	"github.com/kleascm/akaylee-filefuzz/pkg/interfaces"
	"github.com/kleascm/akaylee-filefuzz/pkg/logging"
	"github.com/sirupsen/logrus"
)

// Reporter defines the interface for telemetry and reporting hooks.
type Reporter interface {
	// OnRound is called after a round has been classified and archived, before restore.
	OnRound(event *RoundEvent)
	// OnProgress is called every progress interval.
	OnProgress(stats RunStats)
	// OnFinish is called once when the run ends.
	OnFinish(stats RunStats)
}

// LoggerReporter logs round and run events through the logging helpers.
type LoggerReporter struct {
	logger *logging.Logger
}

// NewLoggerReporter creates a new LoggerReporter.
func NewLoggerReporter(logger *logging.Logger) *LoggerReporter {
	return &LoggerReporter{logger: logger}
}

// OnRound logs crashes loudly and everything else at debug level.
func (r *LoggerReporter) OnRound(event *RoundEvent) {
	if event.Outcome == interfaces.OutcomeCrash {
		r.logger.LogCrash(event.Round, execution.Describe(event.Termination), event.CrashFile, event.ArchiveErr, logrus.Fields{
			"input":     event.PoolIndex,
			"strategy":  event.Strategy,
			"mutations": len(event.Indices),
		})
		return
	}
	// non-crashing rounds only show up at debug level
	if !r.logger.GetLogger().IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	r.logger.LogRound(event.Round, event.Strategy, len(event.Indices), execution.Describe(event.Termination), nil)
}

// OnProgress logs the number of finished rounds.
func (r *LoggerReporter) OnProgress(stats RunStats) {
	rate := 0.0
	if elapsed := time.Since(stats.StartTime); elapsed > 0 {
		rate = float64(stats.RoundsCompleted) / elapsed.Seconds()
	}
	r.logger.LogProgress(stats.RoundsCompleted, stats.Crashes, rate)
}

// OnFinish logs the total elapsed time.
func (r *LoggerReporter) OnFinish(stats RunStats) {
	r.logger.LogSummary(stats.RoundsCompleted, stats.Crashes, stats.Elapsed, logrus.Fields{
		"session":          stats.SessionID,
		"seed":             stats.Seed,
		"archive_failures": stats.ArchiveFailures,
		"timeouts":         stats.Timeouts,
		"interrupted":      stats.Interrupted,
	})
}

// RecordingReporter keeps every event in memory.
type RecordingReporter struct {
	mu       sync.Mutex
	Rounds   []RoundEvent
	Progress []RunStats
	Final    *RunStats
}

// NewRecordingReporter creates a new RecordingReporter.
func NewRecordingReporter() *RecordingReporter {
	return &RecordingReporter{}
}

// OnRound stores a copy of the event.
func (r *RecordingReporter) OnRound(event *RoundEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev := *event
	ev.Indices = append([]int(nil), event.Indices...)
	r.Rounds = append(r.Rounds, ev)
}

// OnProgress stores the snapshot.
func (r *RecordingReporter) OnProgress(stats RunStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Progress = append(r.Progress, stats)
}

// OnFinish stores the final snapshot.
func (r *RecordingReporter) OnFinish(stats RunStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Final = &stats
}

// Outcomes returns the classification sequence seen so far.
func (r *RecordingReporter) Outcomes() []interfaces.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]interfaces.Outcome, len(r.Rounds))
	for i, ev := range r.Rounds {
		out[i] = ev.Outcome
	}
	return out
}

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: engine.go
Description: Round loop for the Akaylee file fuzzer. Each round selects a pool buffer, mutates
it in place, runs the target on it, classifies the termination, archives crashes and then
restores the buffer from its undo record. Rounds are strictly sequential.
*/

package core

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/kleascm/akaylee-filefuzz/pkg/analysis"
	"github.com/kleascm/akaylee-filefuzz/pkg/interfaces"
	"github.com/kleascm/akaylee-filefuzz/pkg/strategies"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultRounds is the round count the CLI uses when none is given
	DefaultRounds = 10000

	// DefaultProgressInterval is the number of rounds between progress reports
	DefaultProgressInterval = 100
)

// NewRNG returns the run's only randomness source. A nil seed draws one from system
// entropy; the seed actually used is returned so the run can be replayed.
func NewRNG(seed *int64) (*rand.Rand, int64) {
	if seed != nil {
		return rand.New(rand.NewSource(*seed)), *seed
	}

	var b [8]byte
	s := time.Now().UnixNano()
	if _, err := cryptorand.Read(b[:]); err == nil {
		s = int64(binary.LittleEndian.Uint64(b[:]))
	}
	return rand.New(rand.NewSource(s)), s
}

// Engine drives the fuzzing rounds
type Engine struct {
	config *interfaces.RunConfig
	logger *logrus.Logger

	// Components, injected before Run
	executor   interfaces.Executor
	pool       *Pool
	policy     *strategies.Policy
	classifier *analysis.Classifier
	archiver   *analysis.Archiver
	reporters  []Reporter

	stats *RunStats
	mu    sync.RWMutex
}

// NewEngine creates a new engine for config
func NewEngine(config *interfaces.RunConfig, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Engine{
		config: config,
		logger: logger,
		stats:  &RunStats{},
	}
}

// SetExecutor sets the executor for the engine
func (e *Engine) SetExecutor(executor interfaces.Executor) {
	e.executor = executor
}

// SetPool sets the mutation pool
func (e *Engine) SetPool(pool *Pool) {
	e.pool = pool
}

// SetPolicy sets the strategy policy
func (e *Engine) SetPolicy(policy *strategies.Policy) {
	e.policy = policy
}

// SetClassifier sets the crash classifier
func (e *Engine) SetClassifier(classifier *analysis.Classifier) {
	e.classifier = classifier
}

// SetArchiver sets the crash archiver
func (e *Engine) SetArchiver(archiver *analysis.Archiver) {
	e.archiver = archiver
}

// AddReporter registers a Reporter for telemetry and live reporting.
func (e *Engine) AddReporter(reporter Reporter) {
	e.reporters = append(e.reporters, reporter)
}

func (e *Engine) validate() error {
	if e.config == nil {
		return fmt.Errorf("run configuration not set")
	}
	if e.config.Rounds <= 0 {
		return fmt.Errorf("rounds must be positive, got %d", e.config.Rounds)
	}
	if e.executor == nil {
		return fmt.Errorf("executor not set - use SetExecutor() before Run()")
	}
	if e.pool == nil || e.pool.Len() == 0 {
		return fmt.Errorf("mutation pool not set - use SetPool() before Run()")
	}
	if e.archiver == nil {
		return fmt.Errorf("archiver not set - use SetArchiver() before Run()")
	}
	if e.policy == nil {
		e.policy = strategies.NewPolicy(strategies.StrategyBitFlip)
	}
	if e.classifier == nil {
		e.classifier = analysis.NewClassifier()
	}
	return nil
}

// Run executes the configured number of rounds. It returns early with an error on a
// fatal condition, or without one when ctx is cancelled; the stats are valid in both cases.
func (e *Engine) Run(ctx context.Context) (*RunStats, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}

	rounds := e.config.Rounds
	interval := e.config.ProgressInterval
	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	rng, seed := NewRNG(e.config.Seed)

	e.mu.Lock()
	e.stats = &RunStats{
		SessionID:       e.config.SessionID,
		Seed:            seed,
		SeedProvided:    e.config.Seed != nil,
		Strategy:        string(e.policy.Strategy()),
		Target:          e.config.TargetPath,
		PoolSize:        e.pool.Len(),
		RoundsRequested: rounds,
		StartTime:       time.Now(),
	}
	e.mu.Unlock()

	e.logger.WithFields(logrus.Fields{
		"session":  e.config.SessionID,
		"seed":     seed,
		"rounds":   rounds,
		"strategy": e.policy.Strategy(),
		"pool":     e.pool.Len(),
	}).Info("Starting fuzzing run")

	var runErr error
	for i := 0; i < rounds; i++ {
		if ctx.Err() != nil {
			e.markInterrupted()
			break
		}

		if err := e.runRound(ctx, i, rng); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				e.markInterrupted()
				break
			}
			runErr = err
			break
		}

		if (i+1)%interval == 0 {
			snapshot := e.GetStats()
			for _, r := range e.reporters {
				r.OnProgress(snapshot)
			}
		}
	}

	e.mu.Lock()
	e.stats.Elapsed = time.Since(e.stats.StartTime)
	e.mu.Unlock()

	final := e.GetStats()
	for _, r := range e.reporters {
		r.OnFinish(final)
	}

	return &final, runErr
}

// runRound performs one Mutate, Execute, Classify, Archive, Restore cycle
func (e *Engine) runRound(ctx context.Context, round int, rng *rand.Rand) error {
	poolIdx, buf := e.pool.Select(rng)
	mutator := e.policy.Pick(round, rng)

	mutation, err := mutator.Mutate(buf, rng)
	if err != nil {
		return fmt.Errorf("failed to mutate input %s: %w", e.pool.Source(poolIdx), err)
	}
	// the buffer is restored on every exit path, after any archive write
	defer strategies.Restore(buf, mutation)

	term, err := e.executor.Execute(ctx, buf)
	if err != nil {
		return fmt.Errorf("round %d: %w", round, err)
	}

	event := &RoundEvent{
		Round:       round,
		PoolIndex:   poolIdx,
		Strategy:    mutation.Strategy,
		Indices:     mutation.Indices,
		Termination: term,
		Outcome:     e.classifier.Classify(term),
	}

	if event.Outcome == interfaces.OutcomeCrash {
		path, err := e.archiver.Archive(round, buf)
		if err != nil {
			event.ArchiveErr = err
			e.logger.WithError(err).WithField("round", round).Error("Failed to archive crash")
		}
		event.CrashFile = path
	}

	e.record(event)
	for _, r := range e.reporters {
		r.OnRound(event)
	}

	return nil
}

func (e *Engine) record(event *RoundEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.RoundsCompleted++
	if event.Termination != nil && event.Termination.TimedOut {
		e.stats.Timeouts++
	}
	if event.Outcome != interfaces.OutcomeCrash {
		return
	}
	e.stats.Crashes++
	if event.ArchiveErr != nil {
		e.stats.ArchiveFailures++
		return
	}
	e.stats.CrashFiles = append(e.stats.CrashFiles, event.CrashFile)
}

func (e *Engine) markInterrupted() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats.Interrupted = true
	e.logger.WithField("rounds", e.stats.RoundsCompleted).Warn("Fuzzing interrupted")
}

// GetStats returns a snapshot of the current run statistics
func (e *Engine) GetStats() RunStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats.clone()
}

// GetPool returns the mutation pool
func (e *Engine) GetPool() *Pool {
	return e.pool
}

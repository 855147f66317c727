/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: reproducibility.go
Description: Reproducibility harness for the Akaylee file fuzzer. Replays an archived crash
input against the target several times through the same executor and classifier used while
fuzzing, and reports how reliably it crashes.
*/

package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/kleascm/akaylee-filefuzz/pkg/execution"
	"github.com/kleascm/akaylee-filefuzz/pkg/interfaces"
	"github.com/sirupsen/logrus"
)

// ReproducibilityResult contains the results of crash reproduction
type ReproducibilityResult struct {
	InputFile        string         `json:"input_file"`
	InputHash        string         `json:"input_hash"` // First 16 hex chars of the SHA-256
	InputSize        int            `json:"input_size"`
	Attempts         int            `json:"attempts"`
	Crashes          int            `json:"crashes"`
	ReproductionRate float64        `json:"reproduction_rate"` // 0.0-1.0
	Reproducible     bool           `json:"reproducible"`      // More than half the attempts crashed
	Terminations     map[string]int `json:"terminations"`      // Count per observed termination
	Duration         time.Duration  `json:"duration"`
}

// ReproducibilityConfig configures the reproducibility harness
type ReproducibilityConfig struct {
	Attempts        int  // Number of replays
	DetailedLogging bool // Log every attempt
}

// ReproducibilityHarness replays crash inputs
type ReproducibilityHarness struct {
	config     *ReproducibilityConfig
	executor   interfaces.Executor
	classifier *Classifier
	logger     *logrus.Logger
}

// NewReproducibilityHarness creates a new reproducibility harness
func NewReproducibilityHarness(config *ReproducibilityConfig) *ReproducibilityHarness {
	if config == nil {
		config = &ReproducibilityConfig{Attempts: 10}
	}
	if config.Attempts <= 0 {
		config.Attempts = 1
	}

	return &ReproducibilityHarness{
		config:     config,
		classifier: NewClassifier(),
		logger:     logrus.StandardLogger(),
	}
}

// SetExecutor sets the executor for reproduction attempts
func (h *ReproducibilityHarness) SetExecutor(executor interfaces.Executor) {
	h.executor = executor
}

// SetClassifier sets the classifier deciding which attempts count as crashes
func (h *ReproducibilityHarness) SetClassifier(classifier *Classifier) {
	h.classifier = classifier
}

// SetLogger sets the logger for reproduction logging
func (h *ReproducibilityHarness) SetLogger(logger *logrus.Logger) {
	h.logger = logger
}

// Reproduce runs data through the target config.Attempts times. An executor error
// aborts the replay; a cancelled ctx returns the attempts made so far.
func (h *ReproducibilityHarness) Reproduce(ctx context.Context, name string, data []byte) (*ReproducibilityResult, error) {
	if h.executor == nil {
		return nil, fmt.Errorf("executor not set - use SetExecutor() before Reproduce()")
	}

	startTime := time.Now()
	result := &ReproducibilityResult{
		InputFile:    name,
		InputHash:    InputHash(data),
		InputSize:    len(data),
		Terminations: make(map[string]int),
	}

	for attempt := 1; attempt <= h.config.Attempts; attempt++ {
		if ctx.Err() != nil {
			break
		}

		term, err := h.executor.Execute(ctx, data)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return nil, fmt.Errorf("reproduction attempt %d failed: %w", attempt, err)
		}

		result.Attempts++
		label := execution.Describe(term)
		result.Terminations[label]++

		crashed := h.classifier.Classify(term) == interfaces.OutcomeCrash
		if crashed {
			result.Crashes++
		}

		if h.config.DetailedLogging {
			h.logger.WithFields(logrus.Fields{
				"attempt":     attempt,
				"termination": label,
				"crashed":     crashed,
			}).Infof("Reproduction attempt %d/%d", attempt, h.config.Attempts)
		}
	}

	if result.Attempts > 0 {
		result.ReproductionRate = float64(result.Crashes) / float64(result.Attempts)
	}
	result.Reproducible = result.ReproductionRate > 0.5
	result.Duration = time.Since(startTime)

	h.logger.WithFields(logrus.Fields{
		"input": name,
		"hash":  result.InputHash,
	}).Infof("Crash reproduction: %d/%d successful (%.1f%%)",
		result.Crashes, result.Attempts, result.ReproductionRate*100)

	return result, nil
}

// SortedTerminations returns the observed termination labels in order
func (r *ReproducibilityResult) SortedTerminations() []string {
	labels := make([]string, 0, len(r.Terminations))
	for label := range r.Terminations {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// InputHash identifies an input by content
func InputHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16]
}

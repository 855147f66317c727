/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: fuzz.go
Description: Fuzz command implementation for the Akaylee file fuzzer. Builds the run
configuration from viper, wires the pool, executor, classifier and archiver into the engine,
runs it until the round budget is spent or the user interrupts, then writes the run summary.
*/

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/kleascm/akaylee-filefuzz/pkg/analysis"
	"github.com/kleascm/akaylee-filefuzz/pkg/core"
	"github.com/kleascm/akaylee-filefuzz/pkg/execution"
	"github.com/kleascm/akaylee-filefuzz/pkg/interfaces"
	"github.com/kleascm/akaylee-filefuzz/pkg/strategies"
	"github.com/kleascm/akaylee-filefuzz/pkg/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunFuzz executes the main fuzzing process
func RunFuzz(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := SetupLogging()
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logger.Close()

	config, err := createRunConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	banner("🚀 Akaylee File Fuzzer - Starting Fuzzing Session")
	fmt.Printf("🎯 Target: %s\n", config.TargetPath)
	fmt.Printf("📁 Corpus: %s\n", config.CorpusPath)
	fmt.Printf("🧬 Strategy: %s\n", config.Strategy)
	fmt.Printf("🔁 Rounds: %d\n", config.Rounds)
	fmt.Printf("🆔 Session: %s\n", config.SessionID)
	fmt.Println()

	log := logger.GetLogger()

	pool, err := core.LoadPool(config.CorpusPath, log)
	if err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}

	strategy, err := strategies.ParseStrategy(config.Strategy)
	if err != nil {
		return err
	}

	classifier, err := newClassifier(config.CrashSignals)
	if err != nil {
		return err
	}

	archiver, err := analysis.NewArchiver(config.CrashDir, filepath.Ext(config.ScratchPath))
	if err != nil {
		return err
	}

	executor, err := execution.NewProcessExecutor(config, log)
	if err != nil {
		return fmt.Errorf("failed to setup executor: %w", err)
	}
	defer executor.Close()

	engine := core.NewEngine(config, log)
	engine.SetPool(pool)
	engine.SetPolicy(strategies.NewPolicy(strategy))
	engine.SetClassifier(classifier)
	engine.SetArchiver(archiver)
	engine.SetExecutor(executor)
	engine.AddReporter(core.NewLoggerReporter(logger))

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			fmt.Println("\n🛑 Received shutdown signal, stopping fuzzer...")
			cancel()
		case <-ctx.Done():
		}
	}()

	stats, runErr := engine.Run(ctx)
	if stats == nil {
		return fmt.Errorf("fuzzing failed: %w", runErr)
	}

	summaryPath, err := utils.WriteRunSummary(config.OutputDir, "fuzz", config.SessionID, stats)
	if err != nil {
		log.WithError(err).Error("Failed to write run summary")
	}

	printFinalStats(stats, summaryPath)

	if runErr != nil {
		return fmt.Errorf("fuzzing aborted: %w", runErr)
	}

	fmt.Println("\n✨ Fuzzing session completed!")
	return nil
}

// createRunConfig reads the fuzz flags out of viper
func createRunConfig() (*interfaces.RunConfig, error) {
	config := &interfaces.RunConfig{
		Rounds:           viper.GetInt("rounds"),
		CorpusPath:       viper.GetString("corpus"),
		TargetPath:       viper.GetString("target"),
		CrashDir:         viper.GetString("crash_dir"),
		ScratchPath:      viper.GetString("scratch"),
		Strategy:         viper.GetString("strategy"),
		Timeout:          viper.GetDuration("timeout"),
		ProgressInterval: viper.GetInt("progress_interval"),
		CrashSignals:     viper.GetStringSlice("crash_signals"),
		OutputDir:        viper.GetString("output_dir"),
		SessionID:        uuid.New().String(),
	}

	// a flag default does not count as set, so an absent seed means entropy seeding
	if viper.IsSet("seed") {
		seed := viper.GetInt64("seed")
		config.Seed = &seed
	}

	if err := validateRunConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateRunConfig(config *interfaces.RunConfig) error {
	if config.TargetPath == "" {
		return fmt.Errorf("target is required")
	}
	if config.CorpusPath == "" {
		return fmt.Errorf("corpus is required")
	}
	if config.Rounds <= 0 {
		return fmt.Errorf("rounds must be positive")
	}
	if config.ScratchPath == "" {
		return fmt.Errorf("scratch path must not be empty")
	}
	if config.CrashDir == "" {
		return fmt.Errorf("crash directory must not be empty")
	}
	if config.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if _, err := strategies.ParseStrategy(config.Strategy); err != nil {
		return err
	}
	return nil
}

// printFinalStats prints the end-of-run summary
func printFinalStats(stats *core.RunStats, summaryPath string) {
	fmt.Println()
	cyan.Println("📊 Final Statistics")
	fmt.Println("==================")
	fmt.Printf("Total Runtime: %v\n", stats.Elapsed.Round(time.Millisecond))
	fmt.Printf("Rounds: %d/%d\n", stats.RoundsCompleted, stats.RoundsRequested)
	fmt.Printf("Average Rate: %.1f executions/sec\n", stats.RoundsPerSecond())
	fmt.Printf("Seed: %d\n", stats.Seed)

	if stats.Crashes > 0 {
		red.Printf("Total Crashes: %d\n", stats.Crashes)
	} else {
		green.Printf("Total Crashes: %d\n", stats.Crashes)
	}
	if stats.ArchiveFailures > 0 {
		yellow.Printf("Unarchived Crashes: %d\n", stats.ArchiveFailures)
	}
	if stats.Timeouts > 0 {
		yellow.Printf("Timeouts: %d\n", stats.Timeouts)
	}
	if stats.Interrupted {
		yellow.Println("Run was interrupted before all rounds finished")
	}
	if summaryPath != "" {
		fmt.Printf("Summary: %s\n", summaryPath)
	}
}

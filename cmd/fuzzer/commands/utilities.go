/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utilities.go
Description: Utility commands for the Akaylee file fuzzer. Provides list-mutators and the
self-check that exercises the same setup path as the fuzz command without running rounds.
*/

package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kleascm/akaylee-filefuzz/pkg/analysis"
	"github.com/kleascm/akaylee-filefuzz/pkg/core"
	"github.com/kleascm/akaylee-filefuzz/pkg/execution"
	"github.com/kleascm/akaylee-filefuzz/pkg/interfaces"
	"github.com/kleascm/akaylee-filefuzz/pkg/strategies"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ListMutators lists all available mutators and strategies
func ListMutators(cmd *cobra.Command, args []string) {
	banner("🧬 Akaylee File Fuzzer - Available Mutators")

	for i, mutator := range strategies.NewPolicy(strategies.StrategyBitFlip).Mutators() {
		fmt.Printf("%d. %s\n", i+1, mutator.Name())
		fmt.Printf("   Description: %s\n", mutator.Description())
		fmt.Println()
	}

	magenta.Println("Strategies")
	for _, s := range strategies.Strategies {
		fmt.Printf("   %-10s %s\n", s, strategyHelp[s])
	}
	fmt.Println()

	fmt.Println("✨ Use --strategy to choose how mutators are picked each round")
	fmt.Printf("   Inputs shorter than %d bytes cannot be mutated and are skipped\n", strategies.MinBufferLen)
}

var strategyHelp = map[strategies.Strategy]string{
	strategies.StrategyBitFlip:   "bit flips every round (default)",
	strategies.StrategyMagic:     "magic values every round",
	strategies.StrategyAlternate: "bit flips on even rounds, magic values on odd rounds",
	strategies.StrategyRandom:    "coin toss between the two every round",
}

// selfCheck is one step of the check command
type selfCheck struct {
	name     string
	function func() (string, error)
}

// PerformSelfCheck validates the fuzzing setup without running any rounds
func PerformSelfCheck(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := SetupLogging()
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logger.Close()

	banner("🔍 Akaylee File Fuzzer - Self-Check")

	log := logger.GetLogger()
	config := &interfaces.RunConfig{
		CorpusPath:   viper.GetString("check.corpus"),
		TargetPath:   viper.GetString("check.target"),
		CrashDir:     viper.GetString("check.crash_dir"),
		ScratchPath:  viper.GetString("check.scratch"),
		Strategy:     viper.GetString("check.strategy"),
		CrashSignals: viper.GetStringSlice("check.crash_signals"),
	}

	checks := buildSelfChecks(config, log)

	passed := 0
	for _, check := range checks {
		fmt.Printf("🔍 %s... ", check.name)
		detail, err := check.function()
		if err != nil {
			red.Printf("❌ FAILED: %v\n", err)
			continue
		}
		green.Print("✅ PASSED")
		if detail != "" {
			fmt.Printf(" (%s)", detail)
		}
		fmt.Println()
		passed++
	}

	total := len(checks)
	fmt.Println()
	fmt.Printf("📊 Results: %d/%d checks passed\n", passed, total)

	if passed == total {
		fmt.Println("✨ All checks passed! Ready for fuzzing.")
		return nil
	}
	yellow.Println("⚠️  Some checks failed. Please address the issues before fuzzing.")
	return fmt.Errorf("%d/%d checks failed", total-passed, total)
}

func buildSelfChecks(config *interfaces.RunConfig, log *logrus.Logger) []selfCheck {
	return []selfCheck{
		{"Target Executable", func() (string, error) {
			if config.TargetPath == "" {
				return "", fmt.Errorf("no target given (--target)")
			}
			// the executor resolves the target exactly as a fuzz run would
			scratch, err := os.CreateTemp("", "akaylee-check-*"+filepath.Ext(config.ScratchPath))
			if err != nil {
				return "", err
			}
			scratch.Close()
			defer os.Remove(scratch.Name())

			probe := *config
			probe.ScratchPath = scratch.Name()
			executor, err := execution.NewProcessExecutor(&probe, log)
			if err != nil {
				return "", err
			}
			defer executor.Close()
			return executor.TargetPath(), nil
		}},
		{"Corpus", func() (string, error) {
			if config.CorpusPath == "" {
				return "", fmt.Errorf("no corpus given (--corpus)")
			}
			pool, err := core.LoadPool(config.CorpusPath, log)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d inputs, %d bytes, %d skipped", pool.Len(), pool.TotalBytes(), len(pool.Skipped())), nil
		}},
		{"Scratch File", func() (string, error) {
			dir := filepath.Dir(config.ScratchPath)
			probe, err := os.CreateTemp(dir, ".akaylee-probe-*")
			if err != nil {
				return "", fmt.Errorf("scratch directory %s is not writable: %w", dir, err)
			}
			probe.Close()
			os.Remove(probe.Name())
			return config.ScratchPath, nil
		}},
		{"Crash Directory", func() (string, error) {
			archiver, err := analysis.NewArchiver(config.CrashDir, filepath.Ext(config.ScratchPath))
			if err != nil {
				return "", err
			}
			return archiver.Dir(), nil
		}},
		{"Strategy", func() (string, error) {
			strategy, err := strategies.ParseStrategy(config.Strategy)
			if err != nil {
				return "", err
			}
			return string(strategy), nil
		}},
		{"Crash Signals", func() (string, error) {
			classifier, err := newClassifier(config.CrashSignals)
			if err != nil {
				return "", err
			}
			return signalNames(classifier), nil
		}},
	}
}

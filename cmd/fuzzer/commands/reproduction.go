/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: reproduction.go
Description: Crash reproduction command for the Akaylee file fuzzer. Replays one archived crash
file against the target through the fuzzing harness and reports how reliably it crashes.
*/

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/kleascm/akaylee-filefuzz/pkg/analysis"
	"github.com/kleascm/akaylee-filefuzz/pkg/execution"
	"github.com/kleascm/akaylee-filefuzz/pkg/interfaces"
	"github.com/kleascm/akaylee-filefuzz/pkg/utils"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// PerformCrashReproduction replays a crash file
func PerformCrashReproduction(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := SetupLogging()
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logger.Close()

	crashFile := viper.GetString("reproduce.crash_file")
	targetPath := viper.GetString("reproduce.target")
	attempts := viper.GetInt("reproduce.attempts")
	scratchPath := viper.GetString("reproduce.scratch")
	outputDir := viper.GetString("reproduce.output_dir")

	banner("🔄 Akaylee File Fuzzer - Crash Reproduction")
	fmt.Printf("📁 Crash file: %s\n", crashFile)
	fmt.Printf("🎯 Target binary: %s\n", targetPath)
	fmt.Printf("🔄 Reproduction attempts: %d\n", attempts)
	fmt.Println()

	crashData, err := os.ReadFile(crashFile)
	if err != nil {
		return fmt.Errorf("failed to read crash file: %w", err)
	}
	fmt.Printf("📖 Loaded crash file: %d bytes\n", len(crashData))

	// the target sees the same extension it saw while fuzzing
	if scratchPath == "" {
		tmp, err := os.CreateTemp("", "akaylee-repro-*"+filepath.Ext(crashFile))
		if err != nil {
			return fmt.Errorf("failed to create scratch file: %w", err)
		}
		tmp.Close()
		defer os.Remove(tmp.Name())
		scratchPath = tmp.Name()
	}

	classifier, err := newClassifier(viper.GetStringSlice("reproduce.crash_signals"))
	if err != nil {
		return err
	}

	log := logger.GetLogger()
	executor, err := execution.NewProcessExecutor(&interfaces.RunConfig{
		TargetPath:  targetPath,
		ScratchPath: scratchPath,
		Timeout:     viper.GetDuration("reproduce.timeout"),
	}, log)
	if err != nil {
		return fmt.Errorf("failed to setup executor: %w", err)
	}
	defer executor.Close()

	harness := analysis.NewReproducibilityHarness(&analysis.ReproducibilityConfig{
		Attempts:        attempts,
		DetailedLogging: true,
	})
	harness.SetExecutor(executor)
	harness.SetClassifier(classifier)
	harness.SetLogger(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, err := harness.Reproduce(ctx, crashFile, crashData)
	if err != nil {
		return fmt.Errorf("reproduction failed: %w", err)
	}

	fmt.Println()
	cyan.Println("📊 Reproduction Results")
	fmt.Println("======================")
	fmt.Printf("Input hash: %s\n", result.InputHash)
	fmt.Printf("Crash signals: %s\n", signalNames(classifier))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"termination", "count", "share"})
	for _, label := range result.SortedTerminations() {
		count := result.Terminations[label]
		table.Append([]string{
			label,
			strconv.Itoa(count),
			fmt.Sprintf("%.1f%%", float64(count)*100/float64(result.Attempts)),
		})
	}
	table.Render()
	if result.Reproducible {
		red.Printf("Reproducible: %d/%d attempts crashed (%.1f%%)\n", result.Crashes, result.Attempts, result.ReproductionRate*100)
	} else {
		yellow.Printf("Not reliably reproducible: %d/%d attempts crashed (%.1f%%)\n", result.Crashes, result.Attempts, result.ReproductionRate*100)
	}

	if outputDir != "" {
		path, err := utils.WriteRunSummary(outputDir, "reproduce", uuid.New().String(), result)
		if err != nil {
			return err
		}
		fmt.Printf("Report: %s\n", path)
	}

	return nil
}

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Command-line interface for the Akaylee file fuzzer. Wires the fuzz, check,
reproduce and list-mutators commands, binds every flag into viper so values can also come
from a config file or AKAYLEE_* environment variables.
*/

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/kleascm/akaylee-filefuzz/cmd/fuzzer/commands"
	"github.com/kleascm/akaylee-filefuzz/pkg/core"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Configuration
	configFile  string
	logLevel    string
	logFormat   string
	logDir      string
	logMaxFiles int

	// Run configuration
	seed             int64
	rounds           int
	corpusPath       string
	targetPath       string
	crashDir         string
	scratchPath      string
	strategy         string
	timeout          time.Duration
	progressInterval int
	crashSignals     []string
	outputDir        string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "akaylee-filefuzz",
		Short: "Akaylee File Fuzzer - mutation-based file format fuzzer",
		Long: `Akaylee File Fuzzer mutates seed files with bit flips and magic values, feeds
each mutated file to a target program and archives every input that makes the
target die with a memory access violation.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "custom", "Log format (text, json, custom)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Log output directory (empty disables log files)")
	rootCmd.PersistentFlags().IntVar(&logMaxFiles, "log-max-files", 10, "Maximum number of log files to keep")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("log_dir", rootCmd.PersistentFlags().Lookup("log-dir"))
	viper.BindPFlag("log_max_files", rootCmd.PersistentFlags().Lookup("log-max-files"))

	// Add fuzz command
	fuzzCmd := &cobra.Command{
		Use:   "fuzz",
		Short: "Fuzz a target program with mutated files",
		Long: `Run a fixed number of fuzzing rounds. Every round mutates one seed input in place,
writes it to the scratch file, runs the target on that file and records whether it crashed.`,
		RunE: commands.RunFuzz,
	}

	fuzzCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (unset draws one from system entropy)")
	fuzzCmd.Flags().IntVar(&rounds, "rounds", core.DefaultRounds, "Number of fuzzing rounds")
	fuzzCmd.Flags().StringVar(&corpusPath, "corpus", "", "Seed file or directory of seed files (required)")
	fuzzCmd.Flags().StringVar(&targetPath, "target", "", "Path to target binary (required)")
	fuzzCmd.Flags().StringVar(&crashDir, "crash-dir", "./crashes", "Directory for crash files")
	fuzzCmd.Flags().StringVar(&scratchPath, "scratch", "mutated.jpg", "Scratch file handed to the target")
	fuzzCmd.Flags().StringVar(&strategy, "strategy", "bitflip", "Mutation strategy (bitflip, magic, alternate, random)")
	fuzzCmd.Flags().DurationVar(&timeout, "timeout", 0, "Kill the target after this long (0 disables)")
	fuzzCmd.Flags().IntVar(&progressInterval, "progress-interval", 100, "Rounds between progress reports")
	fuzzCmd.Flags().StringSliceVar(&crashSignals, "crash-signals", []string{"SIGSEGV"}, "Signals classified as crashes")
	fuzzCmd.Flags().StringVar(&outputDir, "output", "./fuzz_output", "Directory for run summaries")

	viper.BindPFlag("seed", fuzzCmd.Flags().Lookup("seed"))
	viper.BindPFlag("rounds", fuzzCmd.Flags().Lookup("rounds"))
	viper.BindPFlag("corpus", fuzzCmd.Flags().Lookup("corpus"))
	viper.BindPFlag("target", fuzzCmd.Flags().Lookup("target"))
	viper.BindPFlag("crash_dir", fuzzCmd.Flags().Lookup("crash-dir"))
	viper.BindPFlag("scratch", fuzzCmd.Flags().Lookup("scratch"))
	viper.BindPFlag("strategy", fuzzCmd.Flags().Lookup("strategy"))
	viper.BindPFlag("timeout", fuzzCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("progress_interval", fuzzCmd.Flags().Lookup("progress-interval"))
	viper.BindPFlag("crash_signals", fuzzCmd.Flags().Lookup("crash-signals"))
	viper.BindPFlag("output_dir", fuzzCmd.Flags().Lookup("output"))

	rootCmd.AddCommand(fuzzCmd)

	// Add check command for built-in self-checks
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate target, corpus and output directories without fuzzing",
		Long: `Perform the same setup the fuzz command does and report each step: the target
resolves to an executable, the corpus loads, the scratch file and crash directory are writable.`,
		RunE: commands.PerformSelfCheck,
	}

	checkCmd.Flags().String("corpus", "", "Seed file or directory of seed files")
	checkCmd.Flags().String("target", "", "Path to target binary")
	checkCmd.Flags().String("crash-dir", "./crashes", "Directory for crash files")
	checkCmd.Flags().String("scratch", "mutated.jpg", "Scratch file handed to the target")
	checkCmd.Flags().StringSlice("crash-signals", []string{"SIGSEGV"}, "Signals classified as crashes")
	checkCmd.Flags().String("strategy", "bitflip", "Mutation strategy")

	viper.BindPFlag("check.corpus", checkCmd.Flags().Lookup("corpus"))
	viper.BindPFlag("check.target", checkCmd.Flags().Lookup("target"))
	viper.BindPFlag("check.crash_dir", checkCmd.Flags().Lookup("crash-dir"))
	viper.BindPFlag("check.scratch", checkCmd.Flags().Lookup("scratch"))
	viper.BindPFlag("check.crash_signals", checkCmd.Flags().Lookup("crash-signals"))
	viper.BindPFlag("check.strategy", checkCmd.Flags().Lookup("strategy"))

	rootCmd.AddCommand(checkCmd)

	// Add reproduce command for crash replay
	reproduceCmd := &cobra.Command{
		Use:   "reproduce",
		Short: "Replay an archived crash file against the target",
		Long: `Replay one crash file through the same harness and classifier the fuzz command
uses, several times, and report how reliably the target crashes on it.`,
		RunE: commands.PerformCrashReproduction,
	}

	reproduceCmd.Flags().String("crash-file", "", "Path to crash file to reproduce (required)")
	reproduceCmd.Flags().String("target", "", "Path to target binary (required)")
	reproduceCmd.Flags().Int("attempts", 10, "Number of reproduction attempts")
	reproduceCmd.Flags().String("scratch", "", "Scratch file (defaults to a temp file with the crash file's extension)")
	reproduceCmd.Flags().Duration("timeout", 0, "Kill the target after this long (0 disables)")
	reproduceCmd.Flags().StringSlice("crash-signals", []string{"SIGSEGV"}, "Signals classified as crashes")
	reproduceCmd.Flags().String("output-dir", "", "Directory for the reproduction report (empty skips it)")

	viper.BindPFlag("reproduce.crash_file", reproduceCmd.Flags().Lookup("crash-file"))
	viper.BindPFlag("reproduce.target", reproduceCmd.Flags().Lookup("target"))
	viper.BindPFlag("reproduce.attempts", reproduceCmd.Flags().Lookup("attempts"))
	viper.BindPFlag("reproduce.scratch", reproduceCmd.Flags().Lookup("scratch"))
	viper.BindPFlag("reproduce.timeout", reproduceCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("reproduce.crash_signals", reproduceCmd.Flags().Lookup("crash-signals"))
	viper.BindPFlag("reproduce.output_dir", reproduceCmd.Flags().Lookup("output-dir"))

	reproduceCmd.MarkFlagRequired("crash-file")
	reproduceCmd.MarkFlagRequired("target")

	rootCmd.AddCommand(reproduceCmd)

	// Add list-mutators command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "list-mutators",
		Short: "List available mutators and strategies",
		Run: func(cmd *cobra.Command, args []string) {
			commands.ListMutators(cmd, args)
		},
	})

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

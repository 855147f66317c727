/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared utilities for the Akaylee file fuzzer commands. Provides configuration
loading, logging setup, terminal colors and the executor/classifier wiring used by every
command that runs the target.
*/

package commands

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/kleascm/akaylee-filefuzz/pkg/analysis"
	"github.com/kleascm/akaylee-filefuzz/pkg/execution"
	"github.com/kleascm/akaylee-filefuzz/pkg/logging"
	"github.com/spf13/viper"
)

var (
	cyan    = color.New(color.FgHiCyan)
	green   = color.New(color.FgHiGreen)
	yellow  = color.New(color.FgHiYellow)
	red     = color.New(color.FgHiRed)
	magenta = color.New(color.FgHiMagenta)
)

// LoadConfig loads configuration from files and environment
func LoadConfig() error {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// AKAYLEE_CRASH_DIR, AKAYLEE_REPRODUCE_TARGET, ...
	viper.SetEnvPrefix("AKAYLEE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	return nil
}

// SetupLogging builds the logger from the global logging flags
func SetupLogging() (*logging.Logger, error) {
	config := logging.DefaultConfig()
	config.Level = logging.LogLevel(strings.ToLower(viper.GetString("log_level")))
	config.Format = logging.LogFormat(strings.ToLower(viper.GetString("log_format")))
	config.OutputDir = viper.GetString("log_dir")
	if maxFiles := viper.GetInt("log_max_files"); maxFiles > 0 {
		config.MaxFiles = maxFiles
	}
	config.Colors = !color.NoColor

	logger, err := logging.NewLogger(config)
	if err != nil {
		return nil, fmt.Errorf("invalid logging configuration: %w", err)
	}
	return logger, nil
}

// newClassifier parses the configured crash signal names
func newClassifier(names []string) (*analysis.Classifier, error) {
	if len(names) == 0 {
		return analysis.NewClassifier(), nil
	}
	signals, err := analysis.ParseSignals(names)
	if err != nil {
		return nil, fmt.Errorf("invalid crash signals: %w", err)
	}
	return analysis.NewClassifier(signals...), nil
}

func signalNames(classifier *analysis.Classifier) string {
	names := make([]string, 0, len(classifier.Signals()))
	for _, sig := range classifier.Signals() {
		names = append(names, execution.SignalName(sig))
	}
	return strings.Join(names, ", ")
}

func banner(title string) {
	cyan.Println(title)
	fmt.Println(strings.Repeat("=", len([]rune(title))))
	fmt.Println()
}

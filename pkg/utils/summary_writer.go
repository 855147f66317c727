/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: summary_writer.go
Description: Utility for writing fuzzing run summaries to the output directory.
Handles timestamped, session-tagged file naming and writes indented JSON for easy analysis.
*/

package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SummaryFileName returns the summary file name for a run started at ts
func SummaryFileName(kind string, sessionID string, ts time.Time) string {
	// 2024-06-11_01-30-00_fuzz_1b4e28ba.json
	name := fmt.Sprintf("%s_%s", ts.Format("2006-01-02_15-04-05"), kind)
	if sessionID != "" {
		if len(sessionID) > 8 {
			sessionID = sessionID[:8]
		}
		name += "_" + sessionID
	}
	return name + ".json"
}

// WriteRunSummary writes result as JSON into dir and returns the file path
func WriteRunSummary(dir string, kind string, sessionID string, result interface{}) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filePath := filepath.Join(dir, SummaryFileName(kind, sessionID, time.Now()))

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}

	return filePath, nil
}

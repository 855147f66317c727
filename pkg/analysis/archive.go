/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: archive.go
Description: Crash archiver for the Akaylee file fuzzer. Persists the exact mutated buffer
that crashed the target into the crash directory, one file per crashing round.
*/

package analysis

import (
	"fmt"
	"os"
	"path/filepath"
)

// Archiver writes crashing inputs into a crash directory
type Archiver struct {
	dir string
	ext string
}

// NewArchiver creates the crash directory if needed. ext is appended to every
// crash file name so archived inputs keep the scratch file's format extension.
func NewArchiver(dir, ext string) (*Archiver, error) {
	if dir == "" {
		return nil, fmt.Errorf("crash directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create crash directory: %w", err)
	}
	return &Archiver{dir: dir, ext: ext}, nil
}

// Dir returns the crash directory
func (a *Archiver) Dir() string {
	return a.dir
}

// FileName returns the archive name used for a crashing round
func (a *Archiver) FileName(round int) string {
	return fmt.Sprintf("crash-%d%s", round, a.ext)
}

// Archive writes data for round and returns the file path.
// Failures are per round; the caller decides whether to continue.
func (a *Archiver) Archive(round int, data []byte) (string, error) {
	path := filepath.Join(a.dir, a.FileName(round))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to archive crash for round %d: %w", round, err)
	}
	return path, nil
}

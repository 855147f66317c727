/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: classifier_test.go
Description: Tests for crash classification, signal parsing and crash archival.
*/

package analysis

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/kleascm/akaylee-filefuzz/pkg/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyDefault(t *testing.T) {
	c := NewClassifier()

	cases := []struct {
		name string
		term *interfaces.Termination
		want interfaces.Outcome
	}{
		{"segv", &interfaces.Termination{Signaled: true, Signal: syscall.SIGSEGV}, interfaces.OutcomeCrash},
		{"abort", &interfaces.Termination{Signaled: true, Signal: syscall.SIGABRT}, interfaces.OutcomeNormal},
		{"illegal instruction", &interfaces.Termination{Signaled: true, Signal: syscall.SIGILL}, interfaces.OutcomeNormal},
		{"bus error", &interfaces.Termination{Signaled: true, Signal: syscall.SIGBUS}, interfaces.OutcomeNormal},
		{"kill", &interfaces.Termination{Signaled: true, Signal: syscall.SIGKILL}, interfaces.OutcomeNormal},
		{"exit 0", &interfaces.Termination{Exited: true}, interfaces.OutcomeNormal},
		{"exit 139", &interfaces.Termination{Exited: true, ExitCode: 139}, interfaces.OutcomeNormal},
		{"timeout", &interfaces.Termination{Signaled: true, Signal: syscall.SIGKILL, TimedOut: true}, interfaces.OutcomeNormal},
		{"nil", nil, interfaces.OutcomeNormal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.Classify(tc.term))
		})
	}
}

func TestClassifyConfiguredSignals(t *testing.T) {
	c := NewClassifier(syscall.SIGSEGV, syscall.SIGABRT)

	assert.Equal(t, interfaces.OutcomeCrash, c.Classify(&interfaces.Termination{Signaled: true, Signal: syscall.SIGABRT}))
	assert.Equal(t, interfaces.OutcomeCrash, c.Classify(&interfaces.Termination{Signaled: true, Signal: syscall.SIGSEGV}))
	assert.Equal(t, interfaces.OutcomeNormal, c.Classify(&interfaces.Termination{Signaled: true, Signal: syscall.SIGILL}))
	assert.ElementsMatch(t, []syscall.Signal{syscall.SIGSEGV, syscall.SIGABRT}, c.Signals())
}

func TestParseSignals(t *testing.T) {
	signals, err := ParseSignals([]string{"SIGSEGV", "abrt", " ill ", "7", ""})
	require.NoError(t, err)
	assert.Equal(t, []syscall.Signal{syscall.SIGSEGV, syscall.SIGABRT, syscall.SIGILL, syscall.Signal(7)}, signals)

	_, err = ParseSignals([]string{"SIGNOPE"})
	assert.ErrorIs(t, err, ErrUnknownSignal)

	_, err = ParseSignals([]string{"999"})
	assert.ErrorIs(t, err, ErrUnknownSignal)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "normal", interfaces.OutcomeNormal.String())
	assert.Equal(t, "crash", interfaces.OutcomeCrash.String())
}

func TestArchiverWritesExactBytes(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "crashes")

	a, err := NewArchiver(dir, ".jpg")
	require.NoError(t, err)

	// creation is idempotent
	_, err = NewArchiver(dir, ".jpg")
	require.NoError(t, err)

	data := []byte{0xFF, 0xD8, 0x00, 0x7F, 0xFF, 0xD9}
	path, err := a.Archive(17, data)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "crash-17.jpg"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestArchiverFailureIsReported(t *testing.T) {
	dir := t.TempDir()
	a, err := NewArchiver(dir, "")
	require.NoError(t, err)

	// a directory squatting on the target name makes the write fail
	require.NoError(t, os.Mkdir(filepath.Join(dir, a.FileName(3)), 0755))

	_, err = a.Archive(3, []byte("data"))
	assert.Error(t, err)
}

func TestNewArchiverFailsWhenPathIsAFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	_, err := NewArchiver(file, "")
	assert.Error(t, err)
}

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: corpus_test.go
Description: Tests for mutation pool loading and selection.
*/

package core

import (
	"bytes"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestLoadPoolSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.jpg")
	data := bytes.Repeat([]byte{0xAB}, 64)
	require.NoError(t, os.WriteFile(path, data, 0644))

	pool, err := LoadPool(path, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, pool.Len())
	assert.Equal(t, data, pool.Buffer(0))
	assert.Equal(t, path, pool.Source(0))
	assert.Equal(t, 64, pool.TotalBytes())
}

func TestLoadPoolDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.bin"), bytes.Repeat([]byte{2}, 20), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.bin"), bytes.Repeat([]byte{1}, 30), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tiny.bin"), []byte("short"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "c.bin"), bytes.Repeat([]byte{3}, 40), 0644))

	pool, err := LoadPool(dir, quietLogger())
	require.NoError(t, err)

	// sorted by name, subdirectories ignored, short files skipped
	require.Equal(t, 2, pool.Len())
	assert.Equal(t, filepath.Join(dir, "a.bin"), pool.Source(0))
	assert.Equal(t, filepath.Join(dir, "b.bin"), pool.Source(1))
	assert.Equal(t, []string{filepath.Join(dir, "tiny.bin")}, pool.Skipped())
}

func TestLoadPoolEmptyDirectory(t *testing.T) {
	_, err := LoadPool(t.TempDir(), quietLogger())
	assert.ErrorIs(t, err, ErrEmptyCorpus)
}

func TestLoadPoolOnlyShortFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x"), []byte("eleven byte"), 0644))

	_, err := LoadPool(dir, quietLogger())
	assert.ErrorIs(t, err, ErrEmptyCorpus)
}

// TestLoadPoolUnreadableEntryAborts tests that one bad entry fails the whole directory load
func TestLoadPoolUnreadableEntryAborts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.bin"), bytes.Repeat([]byte{0x41}, 64), 0644))
	// a dangling link cannot be read even by root
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing"), filepath.Join(dir, "b.bin")))

	pool, err := LoadPool(dir, quietLogger())
	require.Error(t, err)
	assert.Nil(t, pool)
	assert.Contains(t, err.Error(), "b.bin")
}

func TestLoadPoolMissingPath(t *testing.T) {
	_, err := LoadPool(filepath.Join(t.TempDir(), "nope"), quietLogger())
	assert.Error(t, err)
}

func TestNewPool(t *testing.T) {
	_, err := NewPool()
	assert.ErrorIs(t, err, ErrEmptyCorpus)

	_, err = NewPool(make([]byte, 11))
	assert.Error(t, err)

	pool, err := NewPool(make([]byte, 12), make([]byte, 100))
	require.NoError(t, err)
	assert.Equal(t, 2, pool.Len())
	assert.Equal(t, "memory:1", pool.Source(1))
}

func TestPoolSelectAliasesStorage(t *testing.T) {
	pool, err := NewPool(make([]byte, 16), make([]byte, 32))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	seen := map[int]bool{}
	for i := 0; i < 100; i++ {
		idx, buf := pool.Select(rng)
		require.True(t, idx >= 0 && idx < pool.Len())
		buf[0] = 0xFF
		assert.Equal(t, byte(0xFF), pool.Buffer(idx)[0])
		buf[0] = 0
		seen[idx] = true
	}
	assert.Len(t, seen, 2)
}

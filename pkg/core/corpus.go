/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: corpus.go
Description: Mutation pool for the Akaylee file fuzzer. Loads seed inputs once from a single
file or every regular file in a directory, and hands out buffers for in-place mutation.
The pool is never resized after loading.
*/

package core

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/kleascm/akaylee-filefuzz/pkg/strategies"
	"github.com/sirupsen/logrus"
)

// ErrEmptyCorpus is returned when loading yields no usable buffers
var ErrEmptyCorpus = errors.New("corpus contains no usable inputs")

// Pool is the ordered set of seed buffers eligible for mutation
type Pool struct {
	buffers [][]byte
	sources []string
	skipped []string
}

// LoadPool reads the corpus at path. Any unreadable entry aborts the whole load;
// inputs shorter than strategies.MinBufferLen are skipped with a warning.
func LoadPool(path string, logger *logrus.Logger) (*Pool, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat corpus: %w", err)
	}

	var files []string
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read corpus directory: %w", err)
		}
		// ReadDir sorts by name, which keeps seeded runs reproducible
		for _, entry := range entries {
			file := filepath.Join(path, entry.Name())
			fi, err := os.Stat(file)
			if err != nil {
				return nil, fmt.Errorf("failed to stat corpus file %s: %w", file, err)
			}
			if !fi.Mode().IsRegular() {
				continue
			}
			files = append(files, file)
		}
	} else {
		files = []string{path}
	}

	pool := &Pool{}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read corpus file %s: %w", file, err)
		}
		if len(data) < strategies.MinBufferLen {
			logger.WithFields(logrus.Fields{
				"file":    file,
				"size":    len(data),
				"minimum": strategies.MinBufferLen,
			}).Warn("Skipping corpus file too short to mutate")
			pool.skipped = append(pool.skipped, file)
			continue
		}
		pool.buffers = append(pool.buffers, data)
		pool.sources = append(pool.sources, file)
	}

	if len(pool.buffers) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCorpus, path)
	}

	logger.WithFields(logrus.Fields{
		"corpus":  path,
		"inputs":  len(pool.buffers),
		"skipped": len(pool.skipped),
		"bytes":   pool.TotalBytes(),
	}).Info("Loaded mutation pool")

	return pool, nil
}

// NewPool builds a pool from in-memory buffers, mainly for tests and replays
func NewPool(buffers ...[]byte) (*Pool, error) {
	pool := &Pool{}
	for i, buf := range buffers {
		if len(buf) < strategies.MinBufferLen {
			return nil, fmt.Errorf("buffer %d: %w", i, strategies.ErrBufferTooShort)
		}
		pool.buffers = append(pool.buffers, buf)
		pool.sources = append(pool.sources, fmt.Sprintf("memory:%d", i))
	}
	if len(pool.buffers) == 0 {
		return nil, ErrEmptyCorpus
	}
	return pool, nil
}

// Select picks a buffer uniformly at random. The returned slice aliases pool
// storage and must be restored before the next Select.
func (p *Pool) Select(rng *rand.Rand) (int, []byte) {
	idx := rng.Intn(len(p.buffers))
	return idx, p.buffers[idx]
}

// Len returns the number of buffers
func (p *Pool) Len() int {
	return len(p.buffers)
}

// Buffer returns the buffer at idx
func (p *Pool) Buffer(idx int) []byte {
	return p.buffers[idx]
}

// Source returns where the buffer at idx was loaded from
func (p *Pool) Source(idx int) string {
	return p.sources[idx]
}

// Skipped returns the corpus files rejected for being too short
func (p *Pool) Skipped() []string {
	return p.skipped
}

// TotalBytes returns the combined size of all buffers
func (p *Pool) TotalBytes() int {
	total := 0
	for _, buf := range p.buffers {
		total += len(buf)
	}
	return total
}

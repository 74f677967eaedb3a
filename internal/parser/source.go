package parser

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/maypok86/otter"
)

// ErrOpenFile is returned when a located file cannot be read.
var ErrOpenFile = errors.New("cannot open file")

// maxLineSize bounds a single header line.
const maxLineSize = 1024 * 1024

// Source provides the lines of a file.
type Source interface {
	Lines(path string) ([]string, error)
}

// FileSource reads files from disk. Each file is opened, fully read and
// closed within a single call.
type FileSource struct{}

// Lines returns the lines of path without trailing newlines.
func (FileSource) Lines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrOpenFile, path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrOpenFile, path, err)
	}
	return lines, nil
}

// CachedSource memoizes another source in a bounded in-memory cache.
// Headers like the subsystem and class id lists are read by several
// extractors in one run.
type CachedSource struct {
	next  Source
	cache otter.Cache[string, []string]
}

// NewCachedSource wraps next with a cache holding up to capacity files.
func NewCachedSource(next Source, capacity int) (*CachedSource, error) {
	if capacity <= 0 {
		capacity = 256
	}
	cache, err := otter.MustBuilder[string, []string](capacity).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build line cache: %w", err)
	}
	return &CachedSource{next: next, cache: cache}, nil
}

// Lines returns cached lines, reading through on a miss.
func (c *CachedSource) Lines(path string) ([]string, error) {
	if lines, ok := c.cache.Get(path); ok {
		return lines, nil
	}
	lines, err := c.next.Lines(path)
	if err != nil {
		return nil, err
	}
	c.cache.Set(path, lines)
	return lines, nil
}

// Invalidate drops a cached file, used when a watched file changes.
func (c *CachedSource) Invalidate(path string) {
	c.cache.Delete(path)
}

// Close releases the cache.
func (c *CachedSource) Close() {
	c.cache.Close()
}

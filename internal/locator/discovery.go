// Package locator enumerates the header and source files an extraction
// pass scans.
package locator

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/fsfw-tools/mibgen/internal/logging"
)

// ErrRootNotFound is returned in strict mode when a root path does not exist.
var ErrRootNotFound = errors.New("root path not found")

// DefaultSuffixes are the recognised header suffixes.
var DefaultSuffixes = []string{".h", ".hpp"}

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Options configures a Locator.
type Options struct {
	Suffixes  []string // recognised file suffixes, DefaultSuffixes when empty
	Allow     []string // optional base-name globs a file must also match
	Ignore    []string // globs on the slash separated path relative to the root
	Recursive bool     // descend into sub directories
	Strict    bool     // a missing root is fatal instead of skipped
	Logger    *slog.Logger
}

// Locator handles file discovery with suffix, allow-list and ignore rules.
type Locator struct {
	suffixes       []string
	allowPatterns  []compiledPattern
	ignorePatterns []compiledPattern
	recursive      bool
	strict         bool
	logger         *slog.Logger
}

// New creates a locator, compiling all glob patterns up front.
func New(opts Options) (*Locator, error) {
	l := &Locator{
		suffixes:  opts.Suffixes,
		recursive: opts.Recursive,
		strict:    opts.Strict,
		logger:    logging.OrDiscard(opts.Logger),
	}
	if len(l.suffixes) == 0 {
		l.suffixes = DefaultSuffixes
	}

	var err error
	if l.allowPatterns, err = compilePatterns(opts.Allow); err != nil {
		return nil, err
	}
	if l.ignorePatterns, err = compilePatterns(opts.Ignore); err != nil {
		return nil, err
	}
	return l, nil
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, compiledPattern{pattern: pattern, glob: g})
	}
	return compiled, nil
}

// Locate returns the matching files below the given roots in discovery
// order: roots in the given order, directory entries in lexical order.
// A file reachable from several roots is listed once.
func (l *Locator) Locate(roots ...string) ([]string, error) {
	files := []string{}
	seen := make(map[string]bool)
	add := func(path string) {
		clean := filepath.Clean(path)
		if seen[clean] {
			return
		}
		seen[clean] = true
		files = append(files, clean)
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				if l.strict {
					return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
				}
				l.logger.Warn("skipping missing root", "root", root)
				continue
			}
			return nil, fmt.Errorf("failed to stat %s: %w", root, err)
		}

		if !info.IsDir() {
			if l.matchesSuffix(root) {
				add(root)
			} else {
				l.logger.Warn("skipping root with unrecognised suffix", "root", root)
			}
			continue
		}

		if err := l.walk(root, add); err != nil {
			return nil, err
		}
	}

	l.logger.Debug("located files", "roots", len(roots), "files", len(files))
	return files, nil
}

func (l *Locator) walk(root string, add func(string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		// Normalize path separators for glob matching
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if path == root {
				return nil
			}
			if !l.recursive || l.shouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if l.shouldIgnore(relPath) || !l.matchesSuffix(path) || !l.allowed(path) {
			return nil
		}
		add(path)
		return nil
	})
}

func (l *Locator) matchesSuffix(path string) bool {
	for _, suffix := range l.suffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// allowed checks the base name against the allow-list. An empty list allows all.
func (l *Locator) allowed(path string) bool {
	if len(l.allowPatterns) == 0 {
		return true
	}
	return matchesAnyPattern(filepath.Base(path), l.allowPatterns)
}

// shouldIgnore checks if a path matches any ignore pattern.
func (l *Locator) shouldIgnore(relPath string) bool {
	if matchesAnyPattern(relPath, l.ignorePatterns) {
		return true
	}
	// Also check if this is a directory that would match with /** suffix
	// For example, "tests" should match pattern "tests/**"
	return matchesAnyPattern(relPath+"/**", l.ignorePatterns)
}

func matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}
	return false
}

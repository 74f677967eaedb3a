// Package watcher reruns generation when annotated sources change.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fsfw-tools/mibgen/internal/logging"
)

// DefaultDebounce is the quiet period before a batch of changes fires.
const DefaultDebounce = 500 * time.Millisecond

// Options configures a file watcher.
type Options struct {
	Debounce time.Duration
	// Exclude lists directories whose changes are ignored, e.g. the output
	// directory when it lies inside a source root.
	Exclude []string
	Logger  *slog.Logger
}

// fileWatcher implements FileWatcher interface.
type fileWatcher struct {
	watcher       *fsnotify.Watcher
	suffixes      map[string]bool    // suffixes to monitor (.h, .hpp)
	files         map[string]bool    // roots given as single files
	dirs          map[string]bool    // directories watched recursively
	dirsMu        sync.Mutex         // protects dirs
	exclude       []string           // cleaned excluded directories
	debounceTime  time.Duration      // quiet period before firing callback
	callback      func([]string)     // callback invoked with changed files
	ctx           context.Context    // context for lifecycle management
	cancel        context.CancelFunc // cancel function for internal context
	accumulated   map[string]bool    // accumulated file changes
	accumulatedMu sync.Mutex         // protects accumulated map
	debounceTimer *time.Timer        // current debounce timer
	timerMu       sync.Mutex         // protects debounce timer
	stopOnce      sync.Once          // ensures Stop() is idempotent
	doneCh        chan struct{}      // signals watch goroutine has finished
	logger        *slog.Logger
}

// NewFileWatcher creates a watcher over roots. Directory roots are watched
// recursively, file roots through their parent directory. Missing roots
// are skipped; an error is returned only if no root can be watched.
func NewFileWatcher(roots []string, suffixes []string, opts Options) (FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	sufMap := make(map[string]bool)
	for _, s := range suffixes {
		sufMap[s] = true
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw := &fileWatcher{
		watcher:      watcher,
		suffixes:     sufMap,
		files:        make(map[string]bool),
		dirs:         make(map[string]bool),
		debounceTime: debounce,
		accumulated:  make(map[string]bool),
		doneCh:       make(chan struct{}),
		logger:       logging.OrDiscard(opts.Logger),
	}
	for _, dir := range opts.Exclude {
		fw.exclude = append(fw.exclude, filepath.Clean(dir))
	}

	watched := 0
	var lastErr error
	for _, root := range roots {
		if err := fw.addRoot(root); err != nil {
			fw.logger.Warn("cannot watch root", "root", root, "error", err)
			lastErr = err
			continue
		}
		watched++
	}
	if watched == 0 {
		watcher.Close()
		if lastErr == nil {
			lastErr = errors.New("no roots to watch")
		}
		return nil, lastErr
	}

	return fw, nil
}

func (fw *fileWatcher) addRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fw.addDirectoriesRecursively(root)
	}
	fw.files[filepath.Clean(root)] = true
	return fw.watcher.Add(filepath.Dir(root))
}

// Start begins watching for file changes.
func (fw *fileWatcher) Start(ctx context.Context, callback func(files []string)) error {
	if callback == nil {
		return nil
	}

	fw.callback = callback
	fw.ctx, fw.cancel = context.WithCancel(ctx)

	go fw.watch()
	return nil
}

// Stop stops the file watcher.
func (fw *fileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		if fw.cancel != nil {
			fw.cancel()
			<-fw.doneCh
		} else {
			close(fw.doneCh)
		}
		err = fw.watcher.Close()
	})
	return err
}

// watch is the main event loop. The callback runs on this goroutine, so
// batches are handled strictly one after another.
func (fw *fileWatcher) watch() {
	defer close(fw.doneCh)

	fireCh := make(chan struct{}, 1)

	for {
		select {
		case <-fw.ctx.Done():
			fw.stopDebounceTimer()
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			// New directories below a watched root are watched too
			if event.Op&fsnotify.Create != 0 && !fw.excluded(event.Name) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.addDirectoriesRecursively(event.Name); err != nil {
						fw.logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
					}
				}
			}

			if !fw.shouldProcessEvent(event) {
				continue
			}

			fw.accumulatedMu.Lock()
			fw.accumulated[event.Name] = true
			fw.accumulatedMu.Unlock()

			fw.resetDebounceTimer(fireCh)

		case <-fireCh:
			fw.handleDebounceExpired()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("file watcher error", "error", err)
		}
	}
}

// handleDebounceExpired fires the callback with the sorted accumulated files.
func (fw *fileWatcher) handleDebounceExpired() {
	fw.accumulatedMu.Lock()
	if len(fw.accumulated) == 0 {
		fw.accumulatedMu.Unlock()
		return
	}

	files := make([]string, 0, len(fw.accumulated))
	for file := range fw.accumulated {
		files = append(files, file)
	}
	fw.accumulated = make(map[string]bool)
	fw.accumulatedMu.Unlock()

	slices.Sort(files)
	fw.callback(files)
}

// resetDebounceTimer resets the debounce timer, properly stopping the old one.
func (fw *fileWatcher) resetDebounceTimer(fireCh chan struct{}) {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}

	fw.debounceTimer = time.AfterFunc(fw.debounceTime, func() {
		select {
		case fireCh <- struct{}{}:
		default:
		}
	})
}

// stopDebounceTimer stops the debounce timer if it exists.
func (fw *fileWatcher) stopDebounceTimer() {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
		fw.debounceTimer = nil
	}
}

// shouldProcessEvent keeps writes, creations, removals and renames of
// monitored files.
func (fw *fileWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if fw.excluded(event.Name) {
		return false
	}

	name := filepath.Clean(event.Name)
	if fw.files[name] {
		return true
	}
	if !fw.suffixes[filepath.Ext(name)] {
		return false
	}
	// a file root's parent directory is watched for that file only
	fw.dirsMu.Lock()
	defer fw.dirsMu.Unlock()
	return fw.dirs[filepath.Dir(name)]
}

func (fw *fileWatcher) excluded(path string) bool {
	clean := filepath.Clean(path)
	for _, dir := range fw.exclude {
		if clean == dir || strings.HasPrefix(clean, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// addDirectoriesRecursively adds all directories in the tree to the watcher.
func (fw *fileWatcher) addDirectoriesRecursively(rootPath string) error {
	return filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == rootPath {
				return err
			}
			fw.logger.Warn("error accessing path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if fw.excluded(path) {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			fw.logger.Warn("failed to watch directory", "dir", path, "error", err)
			return nil
		}
		fw.dirsMu.Lock()
		fw.dirs[filepath.Clean(path)] = true
		fw.dirsMu.Unlock()
		return nil
	})
}

package watcher

import "context"

// FileWatcher monitors source files for changes with debouncing.
type FileWatcher interface {
	// Start begins watching, calling callback with each debounced batch of
	// changed files. Callbacks never run concurrently.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops the file watcher and cleans up resources.
	Stop() error
}

// Regenerator reruns a generation after source files changed.
type Regenerator interface {
	Regenerate(ctx context.Context, changed []string) error
}

// RegeneratorFunc adapts a function to Regenerator.
type RegeneratorFunc func(ctx context.Context, changed []string) error

// Regenerate calls f.
func (f RegeneratorFunc) Regenerate(ctx context.Context, changed []string) error {
	return f(ctx, changed)
}

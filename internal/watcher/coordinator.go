package watcher

import (
	"context"
	"log/slog"

	"github.com/fsfw-tools/mibgen/internal/logging"
)

// Invalidator drops cached content for a changed file.
type Invalidator interface {
	Invalidate(path string)
}

// Coordinator routes debounced source changes to a Regenerator.
type Coordinator struct {
	files  FileWatcher
	regen  Regenerator
	cache  Invalidator
	logger *slog.Logger
}

// NewCoordinator creates a coordinator. cache may be nil.
func NewCoordinator(files FileWatcher, regen Regenerator, cache Invalidator, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		files:  files,
		regen:  regen,
		cache:  cache,
		logger: logging.OrDiscard(logger),
	}
}

// Start watches until ctx is cancelled, regenerating after each batch of
// changes. It returns the start error of the file watcher, or ctx.Err().
func (c *Coordinator) Start(ctx context.Context) error {
	err := c.files.Start(ctx, func(files []string) {
		c.handleFileChange(ctx, files)
	})
	if err != nil {
		c.cleanup()
		return err
	}

	<-ctx.Done()
	c.cleanup()
	return ctx.Err()
}

func (c *Coordinator) cleanup() {
	if err := c.files.Stop(); err != nil {
		c.logger.Warn("file watcher stop failed", "error", err)
	}
}

// handleFileChange invalidates cached lines and reruns generation.
// Failures are logged so the next change gets another attempt.
func (c *Coordinator) handleFileChange(ctx context.Context, files []string) {
	if len(files) == 0 || ctx.Err() != nil {
		return
	}

	c.logger.Info("Sources changed, regenerating", "files", len(files))
	if c.cache != nil {
		for _, f := range files {
			c.cache.Invalidate(f)
		}
	}

	if err := c.regen.Regenerate(ctx, files); err != nil {
		c.logger.Error("regeneration failed", "error", err)
		return
	}
	c.logger.Debug("regeneration complete", "files", files)
}

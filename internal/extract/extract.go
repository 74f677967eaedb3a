// Package extract holds the concrete extractors. Each one is a parser.Handler
// with an explicit state type; the exported functions run it through the
// engine with the options shared by all extractors.
package extract

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsfw-tools/mibgen/internal/logging"
	"github.com/fsfw-tools/mibgen/internal/mib"
	"github.com/fsfw-tools/mibgen/internal/parser"
)

// Options carries settings common to every extractor run.
type Options struct {
	// Root is the source tree root; recorded file paths are relative to it.
	Root     string
	Source   parser.Source
	Progress parser.ProgressReporter
	Logger   *slog.Logger
}

func (o Options) logger() *slog.Logger {
	return logging.OrDiscard(o.Logger)
}

// relPath renders file relative to root with forward slashes.
func (o Options) relPath(file string) string {
	if o.Root == "" {
		return filepath.ToSlash(file)
	}
	rel, err := filepath.Rel(o.Root, file)
	if err != nil {
		return filepath.ToSlash(file)
	}
	return filepath.ToSlash(rel)
}

func run[S, R any](
	ctx context.Context,
	name string,
	handler parser.Handler[S, R],
	files []string,
	o Options,
	dedupe func(R) string,
	finalize func(*mib.Table[R]),
) (*mib.Table[R], error) {
	engine := parser.New(handler, parser.Options[R]{
		Name:     name,
		Source:   o.Source,
		Dedupe:   dedupe,
		Finalize: finalize,
		Progress: o.Progress,
		Logger:   o.Logger,
	})
	return engine.Run(ctx, files)
}

// Subsystems extracts subsystem id ranges.
func Subsystems(ctx context.Context, files []string, o Options) (*mib.Table[mib.Subsystem], error) {
	return run(ctx, "subsystems", NewSubsystemHandler(o.logger()), files, o, nil, nil)
}

// Interfaces extracts return value class ids.
func Interfaces(ctx context.Context, files []string, o Options) (*mib.Table[mib.Interface], error) {
	return run(ctx, "interfaces", NewInterfaceHandler(o.logger()), files, o, nil, nil)
}

// Package parser drives line-oriented extraction over a list of files.
//
// An extractor is a Handler: a small state machine whose accumulator is
// threaded through Begin, Line and End for every file of a run. The engine
// owns file access and the result table, so handlers stay pure functions of
// their input lines and the state they are handed.
package parser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fsfw-tools/mibgen/internal/logging"
	"github.com/fsfw-tools/mibgen/internal/mib"
)

// Handler is implemented by every extractor.
type Handler[S, R any] interface {
	// Begin prepares the state for a new file. The first file receives the
	// zero value, later files the state returned by the previous End.
	Begin(state S, file string) S
	// Line consumes one line and returns the next state plus any records.
	Line(state S, line Line) (S, []R)
	// End flushes whatever the state still holds at end of file.
	End(state S, file string) (S, []R)
}

// ProgressReporter receives per-file callbacks during a run.
type ProgressReporter interface {
	OnExtractStart(name string, totalFiles int)
	OnFileProcessed(file string)
	OnExtractComplete(name string, records int)
}

// NoOpProgressReporter does nothing.
type NoOpProgressReporter struct{}

func (NoOpProgressReporter) OnExtractStart(name string, totalFiles int) {}
func (NoOpProgressReporter) OnFileProcessed(file string)                {}
func (NoOpProgressReporter) OnExtractComplete(name string, records int) {}

// Options configures an Engine.
type Options[R any] struct {
	// Name identifies the extractor in logs and progress output.
	Name string
	// Source supplies file lines. FileSource when nil.
	Source Source
	// Dedupe, when set, makes a record replace an earlier record with the
	// same key in place instead of being appended.
	Dedupe func(R) string
	// Finalize runs once over the complete table.
	Finalize func(*mib.Table[R])
	Progress ProgressReporter
	Logger   *slog.Logger
}

// Engine runs one handler over a list of files.
type Engine[S, R any] struct {
	handler Handler[S, R]
	opts    Options[R]
	logger  *slog.Logger
}

// New creates an engine for handler.
func New[S, R any](handler Handler[S, R], opts Options[R]) *Engine[S, R] {
	if opts.Source == nil {
		opts.Source = FileSource{}
	}
	if opts.Progress == nil {
		opts.Progress = NoOpProgressReporter{}
	}
	return &Engine[S, R]{
		handler: handler,
		opts:    opts,
		logger:  logging.OrDiscard(opts.Logger).With("extractor", opts.Name),
	}
}

// Run processes files in order and returns the populated table. A file
// that cannot be read aborts the run with ErrOpenFile.
func (e *Engine[S, R]) Run(ctx context.Context, files []string) (*mib.Table[R], error) {
	table := mib.NewTable[R]()
	index := make(map[string]int)

	emit := func(records []R) {
		for _, r := range records {
			if e.opts.Dedupe == nil {
				table.Append(r)
				continue
			}
			k := e.opts.Dedupe(r)
			if existing, ok := index[k]; ok {
				e.logger.Warn("duplicate key, replacing earlier record", "key", k)
				table.Set(existing, r)
				continue
			}
			index[k] = table.Append(r)
		}
	}

	var state S
	e.opts.Progress.OnExtractStart(e.opts.Name, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		lines, err := e.opts.Source.Lines(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.opts.Name, err)
		}

		e.logger.Debug("parsing file", "file", file, "lines", len(lines))
		var records []R
		state = e.handler.Begin(state, file)
		for i := range lines {
			state, records = e.handler.Line(state, NewLine(file, lines, i))
			emit(records)
		}
		state, records = e.handler.End(state, file)
		emit(records)
		e.opts.Progress.OnFileProcessed(file)
	}

	if e.opts.Finalize != nil {
		e.opts.Finalize(table)
	}

	e.logger.Info("extraction complete", "files", len(files), "records", table.Len())
	e.opts.Progress.OnExtractComplete(e.opts.Name, table.Len())
	return table, nil
}

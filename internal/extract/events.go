package extract

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/fsfw-tools/mibgen/internal/mib"
	"github.com/fsfw-tools/mibgen/internal/parser"
)

var (
	subsystemAssign = regexp.MustCompile(`\bSUBSYSTEM_ID\s*=\s*(?:SUBSYSTEM_ID::(\w+)|([0-9]+))\s*;`)
	eventStart      = regexp.MustCompile(`\bstatic\s+const(?:expr)?\s+Event\s+(\w+)\s*=`)
	eventFull       = regexp.MustCompile(`\bstatic\s+const(?:expr)?\s+Event\s+(\w+)\s*=\s*` +
		`(?:MAKE_EVENT\s*\(\s*([0-9]+)\s*,\s*severity::(\w+)\s*\)` +
		`|event::makeEvent\s*\(\s*\w+\s*,\s*([0-9]+)\s*,\s*severity::(\w+)\s*\))\s*;`)
)

// EventState is the accumulator of the event scanner.
type EventState struct {
	File         string // relative path of the current file
	Subsystem    string
	SubsystemID  int
	HasSubsystem bool
}

// EventHandler extracts event declarations, resolving the enclosing
// subsystem against a completed subsystem index.
type EventHandler struct {
	subsystems SubsystemIndex
	window     int
	opts       Options
	logger     *slog.Logger
}

// NewEventHandler creates an event handler over a subsystem index.
func NewEventHandler(subsystems SubsystemIndex, window int, o Options) EventHandler {
	if window <= 0 {
		window = DefaultWindowSize
	}
	return EventHandler{subsystems: subsystems, window: window, opts: o, logger: o.logger()}
}

func (h EventHandler) Begin(_ EventState, file string) EventState {
	return EventState{File: h.opts.relPath(file)}
}

func (h EventHandler) Line(s EventState, line parser.Line) (EventState, []mib.Event) {
	if m := subsystemAssign.FindStringSubmatch(line.Text); m != nil {
		return h.enterSubsystem(s, line, m), nil
	}
	if !eventStart.MatchString(line.Text) {
		return s, nil
	}

	decl := joinDeclaration(line, h.window)
	if !decl.complete {
		h.logger.Warn("incomplete event declaration", "file", line.File, "line", line.Number)
		return s, nil
	}
	m := eventFull.FindStringSubmatch(decl.code)
	if m == nil {
		h.logger.Debug("event declaration not recognised", "file", line.File, "line", line.Number, "code", decl.code)
		return s, nil
	}
	if !s.HasSubsystem {
		h.logger.Warn("event without subsystem", "file", line.File, "line", line.Number, "event", m[1])
		return s, nil
	}

	offset, severity := m[2], m[3]
	if offset == "" {
		offset, severity = m[4], m[5]
	}
	n, err := strconv.Atoi(offset)
	if err != nil {
		return s, nil
	}

	return s, []mib.Event{{
		ID:          uint32(s.SubsystemID*100 + n),
		Name:        m[1],
		Severity:    severity,
		Description: describe(line, decl, h.window),
		File:        s.File,
	}}
}

func (h EventHandler) enterSubsystem(s EventState, line parser.Line, m []string) EventState {
	s.HasSubsystem = false
	if m[2] != "" {
		id, _ := strconv.Atoi(m[2])
		s.Subsystem, s.SubsystemID, s.HasSubsystem = m[2], id, true
		return s
	}
	id, ok := h.subsystems.Lookup(m[1])
	if !ok {
		h.logger.Warn("unknown subsystem", "file", line.File, "line", line.Number, "subsystem", m[1])
		return s
	}
	s.Subsystem, s.SubsystemID, s.HasSubsystem = m[1], id, true
	return s
}

func (h EventHandler) End(s EventState, file string) (EventState, []mib.Event) {
	return s, nil
}

// Events extracts events from files. When two declarations share a full id
// the later one replaces the earlier record.
func Events(ctx context.Context, files []string, subsystems SubsystemIndex, window int, o Options) (*mib.Table[mib.Event], error) {
	return run(ctx, "events", NewEventHandler(subsystems, window, o), files, o,
		func(e mib.Event) string { return strconv.FormatUint(uint64(e.ID), 10) }, nil)
}

package extract

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/fsfw-tools/mibgen/internal/mib"
	"github.com/fsfw-tools/mibgen/internal/parser"
)

const fieldTypes = `u?int[0-9]{1,2}_t|float|double|bool|int|char`

var (
	commandStructOpen = regexp.MustCompile(`\bstruct\s*(\w*)\s*\{\s*[/!<>]*\s*(?i:\[EXPORT\w*\])[ :]*(?i:\[COMMAND\])\s*(\w*)[ :]*(\w*)`)
	commandClassOpen  = regexp.MustCompile(`\bclass\s*(\w*)\s*[^{]*\{[ /!<>]*(?i:\[EXPORT\w*\])[ :]*(?i:\[COMMAND\])\s*(\w*)[ :]*(\w*)`)
	structField       = regexp.MustCompile(`^\s*(` + fieldTypes + `)\s+(\w+)\s*;`)
	classField        = regexp.MustCompile(`\bSerializeElement\s*<\s*(` + fieldTypes + `)\s*>\s*(\w+)\s*;`)
	commandBlockClose = regexp.MustCompile(`}\s*;`)
)

// CommandScan is the state of the command field scanner.
type CommandScan int

const (
	NoScanning CommandScan = iota
	StructScan
	ClassScan
)

func (c CommandScan) String() string {
	switch c {
	case StructScan:
		return "STRUCT_SCAN"
	case ClassScan:
		return "CLASS_SCAN"
	default:
		return "NO_SCANNING"
	}
}

type commandEvent int

const (
	structOpened commandEvent = iota
	classOpened
	blockClosed
)

// commandTransitions lists every legal state change. Events without an
// entry leave the state unchanged.
var commandTransitions = map[CommandScan]map[commandEvent]CommandScan{
	NoScanning: {structOpened: StructScan, classOpened: ClassScan},
	StructScan: {structOpened: StructScan, classOpened: ClassScan, blockClosed: NoScanning},
	ClassScan:  {structOpened: StructScan, classOpened: ClassScan, blockClosed: NoScanning},
}

func (c CommandScan) next(ev commandEvent) CommandScan {
	if to, ok := commandTransitions[c][ev]; ok {
		return to
	}
	return c
}

// DeviceCommandState is the accumulator of the command field scanner.
type DeviceCommandState struct {
	Scan     CommandScan
	Handler  string
	Command  string
	ActionID string
	// Index is the running field position within the current command.
	Index int
}

// DeviceCommandHandler is the second device command stage. It documents
// the fields of annotated command structs and classes, resolving action ids
// and option enums against the first stage.
type DeviceCommandHandler struct {
	info   DeviceInfoIndex
	logger *slog.Logger
}

// NewDeviceCommandHandler creates the handler over a completed device
// information index.
func NewDeviceCommandHandler(info DeviceInfoIndex, logger *slog.Logger) DeviceCommandHandler {
	return DeviceCommandHandler{info: info, logger: logger}
}

func (h DeviceCommandHandler) Begin(s DeviceCommandState, file string) DeviceCommandState {
	return DeviceCommandState{}
}

func (h DeviceCommandHandler) Line(s DeviceCommandState, line parser.Line) (DeviceCommandState, []mib.DeviceCommand) {
	if m := commandStructOpen.FindStringSubmatch(line.Text); m != nil {
		return h.open(s, line, m, structOpened), nil
	}
	if m := commandClassOpen.FindStringSubmatch(line.Text); m != nil {
		return h.open(s, line, m, classOpened), nil
	}

	var field *regexp.Regexp
	switch s.Scan {
	case StructScan:
		field = structField
	case ClassScan:
		field = classField
	default:
		return s, nil
	}

	if m := field.FindStringSubmatch(line.Text); m != nil {
		return h.field(s, line, m[1], m[2])
	}
	if commandBlockClose.MatchString(line.Text) {
		s.Scan = s.Scan.next(blockClosed)
	}
	return s, nil
}

func (h DeviceCommandHandler) open(s DeviceCommandState, line parser.Line, m []string, ev commandEvent) DeviceCommandState {
	next := DeviceCommandState{
		Scan:    s.Scan.next(ev),
		Command: m[1],
		Handler: m[2],
	}
	if !h.info.Has(next.Handler) {
		h.logger.Debug("command handler not found", "file", line.File, "line", line.Number, "handler", next.Handler)
		return next
	}
	id, ok := h.info.CommandID(next.Handler, m[3])
	if !ok {
		h.logger.Warn("command id not found", "file", line.File, "line", line.Number,
			"handler", next.Handler, "command", m[3])
		return next
	}
	next.ActionID = id
	return next
}

func (h DeviceCommandHandler) field(s DeviceCommandState, line parser.Line, datatype, name string) (DeviceCommandState, []mib.DeviceCommand) {
	var enumName, comment string
	if d, ok := mib.FindDirective(line.Text); ok {
		if d.Ignored() {
			h.logger.Debug("ignored command field", "file", line.File, "line", line.Number, "field", name)
			return s, nil
		}
		pairs, dropped, ok := d.PositionalPairs()
		if !ok {
			h.logger.Warn("odd directive sequence, dropping trailing token", "file", line.File,
				"line", line.Number, "dropped", dropped)
		}
		for _, p := range pairs {
			switch p.Tag {
			case mib.TagEnum:
				enumName = p.Payload
			case mib.TagComment:
				comment = p.Payload
			}
		}
	}

	base := mib.DeviceCommand{
		Handler:       s.Handler,
		Command:       s.Command,
		ActionID:      s.ActionID,
		FieldName:     name,
		FieldPosition: s.Index,
		FieldType:     datatype,
	}
	s.Index++

	if enumName != "" {
		options, ok := h.info.Enum(s.Handler, strings.TrimSpace(enumName))
		if ok && len(options) > 0 {
			out := make([]mib.DeviceCommand, 0, len(options))
			for _, opt := range options {
				rec := base
				rec.OptionName = opt.Name
				rec.OptionValue = opt.Value
				rec.Comment = opt.Comment
				out = append(out, rec)
			}
			return s, out
		}
		h.logger.Warn("command field enum not found", "file", line.File, "line", line.Number,
			"handler", s.Handler, "enum", enumName)
	}

	base.Comment = comment
	return s, []mib.DeviceCommand{base}
}

func (h DeviceCommandHandler) End(s DeviceCommandState, file string) (DeviceCommandState, []mib.DeviceCommand) {
	if s.Scan != NoScanning {
		h.logger.Warn("command block not closed at end of file", "file", file, "scan", s.Scan.String())
	}
	return DeviceCommandState{}, nil
}

// DeviceCommands runs the second device command stage over packet headers.
func DeviceCommands(ctx context.Context, files []string, info DeviceInfoIndex, o Options) (*mib.Table[mib.DeviceCommand], error) {
	return run(ctx, "devicecommands", NewDeviceCommandHandler(info, o.logger()), files, o, nil, nil)
}

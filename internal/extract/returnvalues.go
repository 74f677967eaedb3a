package extract

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/fsfw-tools/mibgen/internal/mib"
	"github.com/fsfw-tools/mibgen/internal/parser"
)

const activeInterface = "INTERFACE_ID"

var (
	interfaceAssign = regexp.MustCompile(`\bINTERFACE_ID\s*=\s*CLASS_ID::(\w+)\s*;`)
	retvalStart     = regexp.MustCompile(`\bstatic\s+const(?:expr)?\s+ReturnValue_t\s+(\w+)\s*=`)
	retvalFull      = regexp.MustCompile(`\bstatic\s+const(?:expr)?\s+ReturnValue_t\s+(\w+)\s*=\s*` +
		`(?:MAKE_RETURN_CODE\s*\(\s*(0[xX][0-9a-fA-F]+|[0-9]+)\s*\)` +
		`|(?:HasReturnvaluesIF::makeReturnCode|returnvalue::makeCode)\s*\(\s*(?:CLASS_ID::)?(\w+)\s*,\s*(0[xX][0-9a-fA-F]+|[0-9]+)\s*\))\s*;`)
)

// ReturnValueState is the accumulator of the return value scanner.
type ReturnValueState struct {
	File      string // relative path of the current file
	Interface string // active INTERFACE_ID, empty when unset
	ClassID   int
}

// ReturnValueHandler extracts return code definitions and composes their
// full code from the class id of the interface they belong to.
type ReturnValueHandler struct {
	interfaces InterfaceIndex
	window     int
	opts       Options
	logger     *slog.Logger
}

// NewReturnValueHandler creates a return value handler over an interface index.
func NewReturnValueHandler(interfaces InterfaceIndex, window int, o Options) ReturnValueHandler {
	if window <= 0 {
		window = DefaultWindowSize
	}
	return ReturnValueHandler{interfaces: interfaces, window: window, opts: o, logger: o.logger()}
}

func (h ReturnValueHandler) Begin(_ ReturnValueState, file string) ReturnValueState {
	return ReturnValueState{File: h.opts.relPath(file)}
}

func (h ReturnValueHandler) Line(s ReturnValueState, line parser.Line) (ReturnValueState, []mib.ReturnValue) {
	if m := interfaceAssign.FindStringSubmatch(line.Text); m != nil {
		id, ok := h.interfaces.Lookup(m[1])
		if !ok {
			h.logger.Warn("unknown interface", "file", line.File, "line", line.Number, "interface", m[1])
			s.Interface, s.ClassID = "", 0
			return s, nil
		}
		s.Interface, s.ClassID = m[1], id
		return s, nil
	}
	if !retvalStart.MatchString(line.Text) {
		return s, nil
	}

	decl := joinDeclaration(line, h.window)
	if !decl.complete {
		h.logger.Warn("incomplete return value declaration", "file", line.File, "line", line.Number)
		return s, nil
	}
	m := retvalFull.FindStringSubmatch(decl.code)
	if m == nil {
		// plain constants such as `ReturnValue_t RETURN_OK = 0;`
		h.logger.Debug("return value declaration not recognised", "file", line.File, "line", line.Number, "code", decl.code)
		return s, nil
	}

	iface, classID, local := s.Interface, s.ClassID, m[2]
	if local == "" {
		local = m[4]
		if m[3] != activeInterface {
			id, ok := h.interfaces.Lookup(m[3])
			if !ok {
				h.logger.Warn("unknown interface", "file", line.File, "line", line.Number, "interface", m[3])
				return s, nil
			}
			iface, classID = m[3], id
		}
	}
	if iface == "" {
		h.logger.Warn("return value without interface", "file", line.File, "line", line.Number, "name", m[1])
		return s, nil
	}

	n, err := strconv.ParseUint(local, 0, 8)
	if err != nil {
		h.logger.Warn("return code out of range", "file", line.File, "line", line.Number, "value", local)
		return s, nil
	}

	return s, []mib.ReturnValue{{
		Code:        uint16(classID)<<8 | uint16(n),
		Name:        m[1],
		Interface:   iface,
		File:        s.File,
		Description: describe(line, decl, h.window),
	}}
}

func (h ReturnValueHandler) End(s ReturnValueState, file string) (ReturnValueState, []mib.ReturnValue) {
	return s, nil
}

// ReturnValues extracts return codes from files. A code defined twice keeps
// the later definition.
func ReturnValues(ctx context.Context, files []string, interfaces InterfaceIndex, window int, o Options) (*mib.Table[mib.ReturnValue], error) {
	return run(ctx, "returnvalues", NewReturnValueHandler(interfaces, window, o), files, o,
		func(r mib.ReturnValue) string { return strconv.FormatUint(uint64(r.Code), 10) }, nil)
}

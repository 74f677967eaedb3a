package extract

import (
	"context"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fsfw-tools/mibgen/internal/mib"
	"github.com/fsfw-tools/mibgen/internal/parser"
)

// DefaultCommandIDType is the C++ type of device command id constants.
const DefaultCommandIDType = "DeviceCommandId_t"

var (
	deviceEnumOpen  = regexp.MustCompile(`\benum\s*(\w*)\s*(?::\s*\w+\s*)?\{\s*[/!<>]*\s*(?i:\[EXPORT\w*\]\s*:\s*\[ENUM\])`)
	deviceEnumEntry = regexp.MustCompile(`(\w+)\s*=\s*(0[xX][0-9a-fA-F]+|[0-9]{1,3})\s*,?\s*(.*)`)
	deviceEnumClose = regexp.MustCompile(`}\s*;`)
)

// DeviceInfoState accumulates the commands and enums of one handler file.
type DeviceInfoState struct {
	Handler  string
	Commands map[string]string
	Enums    map[string][]mib.EnumOption

	InEnum   bool
	EnumName string
	Options  []mib.EnumOption
}

// DeviceInfoHandler is the first device command stage. It collects, per
// device handler header, the exported command ids and option enums.
type DeviceInfoHandler struct {
	command *regexp.Regexp
	logger  *slog.Logger
}

// NewDeviceInfoHandler creates the handler for command constants of the
// given C++ type, DefaultCommandIDType when empty.
func NewDeviceInfoHandler(commandIDType string, logger *slog.Logger) DeviceInfoHandler {
	if commandIDType == "" {
		commandIDType = DefaultCommandIDType
	}
	return DeviceInfoHandler{
		command: regexp.MustCompile(`\bstatic\s*const(?:expr)?\s*` + regexp.QuoteMeta(commandIDType) +
			`\s*(\w+)\s*=\s*(\w+)\s*;\s*[/!<>]*\s*(?i:\[EXPORT\w*\]\s*:\s*\[COMMAND\])`),
		logger: logger,
	}
}

func (h DeviceInfoHandler) Begin(_ DeviceInfoState, file string) DeviceInfoState {
	base := filepath.Base(file)
	return DeviceInfoState{
		Handler:  strings.TrimSuffix(base, filepath.Ext(base)),
		Commands: make(map[string]string),
		Enums:    make(map[string][]mib.EnumOption),
	}
}

func (h DeviceInfoHandler) Line(s DeviceInfoState, line parser.Line) (DeviceInfoState, []mib.HandlerInfo) {
	text := line.Text
	if !s.InEnum {
		if m := deviceEnumOpen.FindStringSubmatch(text); m != nil {
			s.InEnum = true
			s.EnumName = m[1]
			s.Options = nil
			if d, ok := mib.FindDirective(text); ok {
				if p, ok := d.Lookup(mib.TagEnum); ok && p.Payload != "" {
					s.EnumName = strings.Fields(p.Payload)[0]
				}
			}
			return s, nil
		}
		if m := h.command.FindStringSubmatch(text); m != nil {
			s.Commands[m[1]] = m[2]
		}
		return s, nil
	}
	return h.scanEnum(s, line, text), nil
}

func (h DeviceInfoHandler) scanEnum(s DeviceInfoState, line parser.Line, text string) DeviceInfoState {
	if m := deviceEnumEntry.FindStringSubmatch(text); m != nil {
		s.Options = append(s.Options, mib.EnumOption{
			Name:    m[1],
			Value:   m[2],
			Comment: mib.StripCommentMarkers(deviceEnumClose.ReplaceAllString(m[3], "")),
		})
	}
	if deviceEnumClose.MatchString(text) {
		h.logger.Debug("device enum collected", "file", line.File, "enum", s.EnumName, "options", len(s.Options))
		s.Enums[s.EnumName] = s.Options
		s.InEnum = false
		s.EnumName = ""
		s.Options = nil
	}
	return s
}

func (h DeviceInfoHandler) End(s DeviceInfoState, file string) (DeviceInfoState, []mib.HandlerInfo) {
	if s.InEnum {
		h.logger.Warn("device enum not closed at end of file", "file", file, "enum", s.EnumName)
	}
	info := mib.HandlerInfo{Name: s.Handler, Commands: s.Commands, Enums: s.Enums}
	return DeviceInfoState{}, []mib.HandlerInfo{info}
}

// DeviceInfo runs the first device command stage over handler headers.
func DeviceInfo(ctx context.Context, files []string, commandIDType string, o Options) (*mib.Table[mib.HandlerInfo], error) {
	return run(ctx, "deviceinfo", NewDeviceInfoHandler(commandIDType, o.logger()), files, o, nil, nil)
}

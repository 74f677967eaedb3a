package extract

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/fsfw-tools/mibgen/internal/mib"
	"github.com/fsfw-tools/mibgen/internal/parser"
)

var (
	objectEntry = regexp.MustCompile(`^\s*(\w+)\s*=\s*(0[xX][0-9a-fA-F]+|[0-9]+)\b`)
	objectAlias = regexp.MustCompile(`^\s*(\w+)\s*=\s*([A-Za-z_]\w*)\s*,?`)
)

// ObjectState tracks whether the scanner is inside an object list enum.
type ObjectState struct {
	InList bool
}

// ObjectHandler extracts `NAME = 0x...` entries of object id enums.
type ObjectHandler struct {
	logger *slog.Logger
}

func (h ObjectHandler) Begin(_ ObjectState, file string) ObjectState {
	return ObjectState{}
}

func (h ObjectHandler) Line(s ObjectState, line parser.Line) (ObjectState, []mib.Object) {
	text := strings.TrimSpace(line.Text)
	if !s.InList {
		if idEnumOpen.MatchString(text) {
			s.InList = true
		}
		return s, nil
	}
	if strings.HasPrefix(text, "}") {
		s.InList = false
		return s, nil
	}

	code, _ := splitTrailingComment(text)
	if m := objectEntry.FindStringSubmatch(code); m != nil {
		id, err := strconv.ParseUint(m[2], 0, 32)
		if err != nil {
			h.logger.Warn("object id out of range", "file", line.File, "line", line.Number, "value", m[2])
			return s, nil
		}
		return s, []mib.Object{{ID: uint32(id), Name: m[1]}}
	}
	if m := objectAlias.FindStringSubmatch(code); m != nil {
		h.logger.Debug("skipping object alias", "file", line.File, "line", line.Number, "name", m[1], "alias", m[2])
	}
	return s, nil
}

func (h ObjectHandler) End(s ObjectState, file string) (ObjectState, []mib.Object) {
	return s, nil
}

// Objects extracts system object ids. An id defined twice keeps the later name.
func Objects(ctx context.Context, files []string, o Options) (*mib.Table[mib.Object], error) {
	return run(ctx, "objects", ObjectHandler{logger: o.logger()}, files, o,
		func(obj mib.Object) string { return mib.FormatObjectID(obj.ID) }, nil)
}

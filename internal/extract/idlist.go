package extract

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/fsfw-tools/mibgen/internal/logging"
	"github.com/fsfw-tools/mibgen/internal/mib"
	"github.com/fsfw-tools/mibgen/internal/parser"
)

// ID list files (subsystem ranges, class ids) are plain enum bodies:
//
//	enum : uint8_t {
//	  MEMORY = 22,          //!< MEM
//	  OBSW = 26,
//	  CDH,                  // 27
//	  COMMON_START = FW_SUBSYSTEM_ID_RANGE,
//	};
var (
	idEnumOpen     = regexp.MustCompile(`^\s*enum\b`)
	idEnumEntry    = regexp.MustCompile(`^([A-Za-z_]\w*)\s*(?:=\s*(\w+))?\s*,?$`)
	idTrailComment = regexp.MustCompile(`(//|/\*)(.*)$`)
)

type idListState struct {
	inEnum  bool
	next    int
	values  map[string]int // run wide, aliases may point into earlier files
	comment []string       // doc lines above the next entry
}

// idListHandler parses enum based id lists into name/id records.
type idListHandler[R any] struct {
	logger *slog.Logger
	build  func(name string, id int, comment string) R
}

func (h idListHandler[R]) Begin(s idListState, file string) idListState {
	if s.values == nil {
		s.values = make(map[string]int)
	}
	s.inEnum = false
	s.comment = nil
	return s
}

func (h idListHandler[R]) Line(s idListState, line parser.Line) (idListState, []R) {
	text := strings.TrimSpace(line.Text)

	if !s.inEnum {
		if idEnumOpen.MatchString(text) {
			s.inEnum = true
			s.next = 0
			s.comment = nil
		}
		return s, nil
	}

	if strings.HasPrefix(text, "}") {
		s.inEnum = false
		return s, nil
	}
	if mib.IsCommentLine(text) {
		if c := mib.StripCommentMarkers(text); c != "" {
			s.comment = append(s.comment, c)
		}
		return s, nil
	}

	code, trailing := splitTrailingComment(text)
	code = strings.TrimSpace(strings.TrimPrefix(code, "{"))
	if code == "" {
		return s, nil
	}

	m := idEnumEntry.FindStringSubmatch(code)
	if m == nil {
		h.logger.Debug("unrecognised id list line", "file", line.File, "line", line.Number, "text", text)
		return s, nil
	}

	name, value := m[1], m[2]
	id := s.next
	switch {
	case value == "":
	case isNumber(value):
		n, err := strconv.ParseInt(value, 0, 64)
		if err != nil {
			h.logger.Warn("invalid id value", "file", line.File, "line", line.Number, "value", value)
			return s, nil
		}
		id = int(n)
	default:
		ref, ok := s.values[value]
		if !ok {
			h.logger.Warn("unresolved id reference", "file", line.File, "line", line.Number, "name", name, "ref", value)
			return s, nil
		}
		id = ref
	}

	comment := trailing
	if comment == "" {
		comment = strings.Join(s.comment, " ")
	}
	s.comment = nil
	s.values[name] = id
	s.next = id + 1

	return s, []R{h.build(name, id, comment)}
}

func (h idListHandler[R]) End(s idListState, file string) (idListState, []R) {
	if s.inEnum {
		h.logger.Warn("id enum not closed at end of file", "file", file)
	}
	return s, nil
}

func splitTrailingComment(text string) (code, comment string) {
	loc := idTrailComment.FindStringIndex(text)
	if loc == nil {
		return text, ""
	}
	return text[:loc[0]], mib.StripCommentMarkers(text[loc[0]:])
}

func isNumber(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

// NewSubsystemHandler parses subsystem id range definitions.
func NewSubsystemHandler(logger *slog.Logger) parser.Handler[idListState, mib.Subsystem] {
	return idListHandler[mib.Subsystem]{
		logger: logging.OrDiscard(logger),
		build: func(name string, id int, _ string) mib.Subsystem {
			return mib.Subsystem{Name: name, ID: id}
		},
	}
}

// NewInterfaceHandler parses class id definitions.
func NewInterfaceHandler(logger *slog.Logger) parser.Handler[idListState, mib.Interface] {
	return idListHandler[mib.Interface]{
		logger: logging.OrDiscard(logger),
		build: func(name string, id int, comment string) mib.Interface {
			return mib.Interface{Name: name, ID: id, Comment: comment}
		},
	}
}

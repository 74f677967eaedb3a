package extract

import (
	"context"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/fsfw-tools/mibgen/internal/mib"
	"github.com/fsfw-tools/mibgen/internal/parser"
)

var (
	serviceFromFile = regexp.MustCompile(`Service[^0-9]*([0-9]{1,3})`)
	subserviceOpen  = regexp.MustCompile(`(?i)\benum\s*Subservice`)
	subserviceEntry = regexp.MustCompile(`(\w+)\s*=\s*([0-9]{1,3})\b,?(?:[ /!<>]*(.*))?`)
	blockClose      = regexp.MustCompile(`}\s*;`)
)

// minSameLineMarker is the shortest trailing text that can hold a directive.
const minSameLineMarker = len("[EXPORT]")

// SubserviceScan is the state of the subservice enum scanner.
type SubserviceScan int

const (
	OutsideEnum SubserviceScan = iota
	InsideEnum
)

// SubserviceState is the accumulator of the subservice scanner.
type SubserviceState struct {
	Scan    SubserviceScan
	Service string
	// Pending is set by a directive on its own line and consumed by the
	// next assignment.
	Pending       bool
	PendingType   mib.PacketType
	PendingIgnore bool
	Comment       []string
}

func (s SubserviceState) clearEntry() SubserviceState {
	s.Pending = false
	s.PendingType = mib.PacketUnspecified
	s.PendingIgnore = false
	s.Comment = nil
	return s
}

// SubserviceHandler extracts the annotated entries of `enum Subservice`
// blocks. The service number comes from the file name.
type SubserviceHandler struct {
	logger *slog.Logger
}

func (h SubserviceHandler) Begin(_ SubserviceState, file string) SubserviceState {
	s := SubserviceState{}
	if m := serviceFromFile.FindStringSubmatch(filepath.Base(file)); m != nil {
		s.Service = m[1]
	} else {
		h.logger.Debug("no service number in file name", "file", file)
	}
	return s
}

func (h SubserviceHandler) Line(s SubserviceState, line parser.Line) (SubserviceState, []mib.Subservice) {
	wasInside := s.Scan == InsideEnum
	if !wasInside {
		if !subserviceOpen.MatchString(line.Text) {
			return s, nil
		}
		s = s.clearEntry()
		s.Scan = InsideEnum
	}

	// The previous line is looked at one line late so a directive on its
	// own line can be attached to the assignment that follows it.
	if wasInside {
		s = h.carryPrevious(s, line.At(-1))
	}

	text := line.Text
	loc := blockClose.FindStringIndex(text)
	closing := loc != nil
	if closing {
		text = text[:loc[0]] + text[loc[1]:]
	}

	var out []mib.Subservice
	if mib.IsCommentLine(text) {
		text = ""
	}
	if m := subserviceEntry.FindStringSubmatch(text); m != nil {
		var rec mib.Subservice
		var ok bool
		s, rec, ok = h.assign(s, line, m)
		if ok {
			out = append(out, rec)
		}
	}

	if closing {
		if s.Pending {
			h.logger.Debug("dropped annotation at end of subservice enum", "file", line.File, "line", line.Number)
		}
		s = s.clearEntry()
		s.Scan = OutsideEnum
	}
	return s, out
}

// carryPrevious handles an own-line directive or a free text comment line.
func (h SubserviceHandler) carryPrevious(s SubserviceState, prev string) SubserviceState {
	if d, ok := mib.FindDirective(prev); ok {
		if !d.OwnLine() {
			return s
		}
		s.Pending = true
		s.PendingType = d.PacketType()
		s.PendingIgnore = d.Ignored()
		if p, ok := d.First(); ok && p.Payload != "" {
			s.Comment = append(s.Comment, p.Payload)
		}
		return s
	}
	if mib.IsCommentLine(prev) {
		if c := mib.StripCommentMarkers(prev); c != "" {
			s.Comment = append(s.Comment, c)
		}
	}
	return s
}

func (h SubserviceHandler) assign(s SubserviceState, line parser.Line, m []string) (SubserviceState, mib.Subservice, bool) {
	number, _ := strconv.Atoi(m[2])
	rec := mib.Subservice{
		Service: s.Service,
		Name:    m[1],
		Number:  number,
		Type:    s.PendingType,
	}
	comment := s.Comment
	annotated := s.Pending
	ignored := s.PendingIgnore

	if rest := strings.TrimSpace(m[3]); len(rest) >= minSameLineMarker {
		if d, ok := mib.FindDirective(rest); ok {
			annotated = true
			ignored = d.Ignored()
			rec.Type = d.PacketType()
			if p, ok := d.First(); ok && p.Payload != "" {
				comment = []string{p.Payload}
			}
		}
	}

	s = s.clearEntry()
	if !annotated {
		return s, rec, false
	}
	if ignored {
		h.logger.Debug("ignored subservice", "file", line.File, "line", line.Number, "name", rec.Name)
		return s, rec, false
	}
	if rec.Type == "" {
		rec.Type = mib.PacketUnspecified
	}
	rec.Comment = strings.TrimSpace(strings.Join(comment, " "))
	return s, rec, true
}

func (h SubserviceHandler) End(s SubserviceState, file string) (SubserviceState, []mib.Subservice) {
	if s.Scan == InsideEnum {
		h.logger.Warn("subservice enum not closed at end of file", "file", file)
	}
	return s.clearEntry(), nil
}

// Subservices extracts annotated telecommand and telemetry subservices.
func Subservices(ctx context.Context, files []string, o Options) (*mib.Table[mib.Subservice], error) {
	return run(ctx, "subservices", SubserviceHandler{logger: o.logger()}, files, o, nil, nil)
}

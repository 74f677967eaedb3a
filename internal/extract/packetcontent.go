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

const packetScalarTypes = `u?int(?:8|16|32|64)_t|ReturnValue_t|Mode_t|Submode_t|object_id_t|float|double|bool|ActionId_t|EventId_t|sid_t|ParameterId_t`

var (
	packetServiceNumber = regexp.MustCompile(`[0-9]{1,3}`)
	packetOpen          = regexp.MustCompile(`\b(?:class|struct)\s+(\w+)[^{;]*\{\s*(.*)$`)
	packetScalar        = regexp.MustCompile(`(?:\w*<)?\s*\b(` + packetScalarTypes + `)\s*>?\s*(\w+)\s*(?:=[\s0-9]*)?;`)
	packetFixedArray    = regexp.MustCompile(`<\s*SerialFixedArrayListAdapter\s*<([\w, ()]*)>\s*>\s*(\w+)\s*;`)
	packetFixedArrayArg = regexp.MustCompile(`^\s*(\w+)\s*,\s*([\w()]+)\s*,\s*([\w()]+)\s*$`)
	packetBuffer        = regexp.MustCompile(`<\s*SerialBufferAdapter\s*<([\w,]*)>\s*>\s*(\w+)\s*;`)
	packetPointer       = regexp.MustCompile(`<?\s*\b(u?int(?:8|16|32)_t)\s*\*\s*>?\s*(\w+)\s*;`)
	packetTypedef       = regexp.MustCompile(`\btypedef\b`)
)

// sizeOfFollowingBuffer names the length field emitted before a fixed array.
const sizeOfFollowingBuffer = "Size of following buffer"

// PacketContentState tracks the packet being scanned.
type PacketContentState struct {
	Service    string
	Subservice string
	Packet     string
}

// PacketContentHandler documents the fields of service packet definitions.
type PacketContentHandler struct {
	logger *slog.Logger
}

func (h PacketContentHandler) Begin(_ PacketContentState, file string) PacketContentState {
	return PacketContentState{Service: packetServiceNumber.FindString(filepath.Base(file))}
}

func (h PacketContentHandler) Line(s PacketContentState, line parser.Line) (PacketContentState, []mib.PacketField) {
	if m := packetOpen.FindStringSubmatch(line.Text); m != nil {
		s.Packet = m[1]
		if rest := strings.TrimSpace(m[2]); rest != "" {
			s.Subservice = h.subservice(line, rest)
		}
		return s, nil
	}
	if packetTypedef.MatchString(line.Text) {
		return s, nil
	}

	base := mib.PacketField{Service: s.Service, Subservice: s.Subservice, Packet: s.Packet}
	var out []mib.PacketField

	switch {
	case packetScalar.MatchString(line.Text):
		m := packetScalar.FindStringSubmatch(line.Text)
		base.Datatype, base.Name = m[1], m[2]
		out = append(out, base)
	case packetFixedArray.MatchString(line.Text):
		m := packetFixedArray.FindStringSubmatch(line.Text)
		args := packetFixedArrayArg.FindStringSubmatch(m[1])
		if args == nil {
			h.logger.Warn("unrecognised fixed array adapter", "file", line.File, "line", line.Number, "args", m[1])
			return s, nil
		}
		length := base
		length.Datatype, length.Name = args[3], sizeOfFollowingBuffer
		base.Datatype, base.Name = args[1]+" *", m[2]
		out = append(out, length, base)
	case packetBuffer.MatchString(line.Text):
		m := packetBuffer.FindStringSubmatch(line.Text)
		base.Datatype, base.Name = strings.Split(m[1], ",")[0]+" *", m[2]
		out = append(out, base)
	case packetPointer.MatchString(line.Text):
		m := packetPointer.FindStringSubmatch(line.Text)
		base.Datatype, base.Name = m[1]+" *", m[2]
		out = append(out, base)
	default:
		return s, nil
	}

	d, ok := mib.FindDirective(line.Text)
	if !ok {
		return s, out
	}
	if d.Ignored() {
		h.logger.Debug("ignored packet field", "file", line.File, "line", line.Number)
		return s, nil
	}

	// Annotations describe the last field of the line.
	last := &out[len(out)-1]
	if p, ok := d.Lookup(mib.TagType); ok && p.Payload != "" {
		last.Datatype = strings.Fields(p.Payload)[0] + " *"
	} else if p, ok := d.Lookup(mib.TagBufferType); ok && p.Payload != "" {
		last.Datatype = strings.Fields(p.Payload)[0] + " *"
	}
	if p, ok := d.Lookup(mib.TagComment); ok {
		last.Comment = p.Payload
	} else if len(d.Pairs) == 0 {
		// untagged directive text is the comment
		last.Comment = strings.TrimSpace(strings.TrimSuffix(d.Body, "*/"))
	}
	return s, out
}

func (h PacketContentHandler) subservice(line parser.Line, rest string) string {
	d, ok := mib.FindDirective(rest)
	if !ok {
		return ""
	}
	p, ok := d.Lookup(mib.TagSubservice)
	if !ok {
		return ""
	}
	list, err := mib.FormatSubserviceList(p.Payload)
	if err != nil {
		h.logger.Warn("invalid subservice list", "file", line.File, "line", line.Number, "error", err)
		return ""
	}
	return list
}

func (h PacketContentHandler) End(s PacketContentState, file string) (PacketContentState, []mib.PacketField) {
	return s, nil
}

// PacketContent extracts service packet fields and infers their sizes.
func PacketContent(ctx context.Context, files []string, o Options) (*mib.Table[mib.PacketField], error) {
	return run(ctx, "packetcontent", PacketContentHandler{logger: o.logger()}, files, o, nil, InferSizes)
}

package extract

import (
	"strings"

	"github.com/fsfw-tools/mibgen/internal/mib"
	"github.com/fsfw-tools/mibgen/internal/parser"
)

// DefaultWindowSize is the moving window used to recover declarations that
// span several lines and the descriptions written above them.
const DefaultWindowSize = 7

// declaration is a C++ constant declaration joined from the center line of
// a moving window up to its terminating semicolon.
type declaration struct {
	code     string // code parts joined by single spaces
	trailing string // `//!<` comment text found on the declaration lines
	complete bool   // the terminating semicolon was found
}

// joinDeclaration collects the declaration starting at line, looking at most
// window/2 lines ahead.
func joinDeclaration(line parser.Line, window int) declaration {
	var (
		d        declaration
		code     []string
		trailing []string
	)
	for i := 0; i <= window/2 && line.Has(i); i++ {
		c, comment := splitComment(line.At(i))
		if c = strings.TrimSpace(c); c != "" {
			code = append(code, c)
		}
		if strings.HasPrefix(comment, "//!<") || strings.HasPrefix(comment, "/**<") {
			trailing = append(trailing, commentText(comment))
		}
		if strings.Contains(c, ";") {
			d.complete = true
			break
		}
	}
	d.code = strings.Join(code, " ")
	d.trailing = strings.TrimSpace(strings.Join(trailing, " "))
	return d
}

// splitComment cuts a line at its first line or block comment.
func splitComment(text string) (code, comment string) {
	idx := strings.Index(text, "//")
	if b := strings.Index(text, "/*"); b >= 0 && (idx < 0 || b < idx) {
		idx = b
	}
	if idx < 0 {
		return text, ""
	}
	return text[:idx], strings.TrimSpace(text[idx:])
}

// commentText returns the human readable part of a comment, preferring an
// explicit [COMMENT] directive payload.
func commentText(comment string) string {
	if d, ok := mib.FindDirective(comment); ok {
		if p, ok := d.Lookup(mib.TagComment); ok {
			return p.Payload
		}
		return ""
	}
	text := mib.StripCommentMarkers(comment)
	for _, tag := range []string{"@brief", "@details", "\\brief"} {
		text = strings.TrimPrefix(text, tag)
	}
	return strings.TrimSpace(text)
}

// descriptionAbove joins the contiguous comment block directly above line,
// looking back at most window/2 lines.
func descriptionAbove(line parser.Line, window int) string {
	var block []string
	for k := 1; k <= window/2 && line.Has(-k); k++ {
		text := strings.TrimSpace(line.At(-k))
		if !mib.IsCommentLine(text) {
			break
		}
		block = append(block, text)
	}

	var parts []string
	for i := len(block) - 1; i >= 0; i-- {
		if t := commentText(block[i]); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// describe picks the trailing comment of a declaration, else the block above.
func describe(line parser.Line, d declaration, window int) string {
	if d.trailing != "" {
		return d.trailing
	}
	return descriptionAbove(line, window)
}

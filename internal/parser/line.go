package parser

import "strings"

// Line is one physical line handed to a handler. It keeps a view of the
// whole file so handlers can look at neighbouring lines.
type Line struct {
	File   string
	Number int // 1-based
	Text   string

	lines []string
	index int
}

// NewLine builds a line view at index of lines. Used by tests and by
// handlers that re-scan a buffered span.
func NewLine(file string, lines []string, index int) Line {
	l := Line{File: file, Number: index + 1, lines: lines, index: index}
	if index >= 0 && index < len(lines) {
		l.Text = lines[index]
	}
	return l
}

// At returns the line offset positions away, or "" outside the file.
func (l Line) At(offset int) string {
	i := l.index + offset
	if i < 0 || i >= len(l.lines) {
		return ""
	}
	return l.lines[i]
}

// Has reports whether the line offset positions away exists.
func (l Line) Has(offset int) bool {
	i := l.index + offset
	return i >= 0 && i < len(l.lines)
}

// Window returns the lines of a moving window of the given size whose
// center (index size/2) is this line. Positions outside the file are "".
func (l Line) Window(size int) []string {
	out := make([]string, size)
	center := size / 2
	for i := range out {
		out[i] = l.At(i - center)
	}
	return out
}

// Join concatenates this line and the following n lines, trimming each.
func (l Line) Join(n int) string {
	parts := make([]string, 0, n+1)
	for i := 0; i <= n; i++ {
		if s := strings.TrimSpace(l.At(i)); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

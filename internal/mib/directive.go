package mib

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Tag is an annotation tag name, always upper case.
type Tag string

const (
	TagCommand    Tag = "COMMAND"
	TagReply      Tag = "REPLY"
	TagTM         Tag = "TM"
	TagTC         Tag = "TC"
	TagEnum       Tag = "ENUM"
	TagType       Tag = "TYPE"
	TagBufferType Tag = "BUFFERTYPE"
	TagComment    Tag = "COMMENT"
	TagSubservice Tag = "SUBSERVICE"
	TagIgnore     Tag = "IGNORE"
)

var (
	exportMarker = regexp.MustCompile(`(?i)\[EXPORT\w*\][\s:]*`)
	tagPair      = regexp.MustCompile(`\[(\w*)\]\s*([^\[]*)`)
	ignoreWord   = regexp.MustCompile(`(?i)IGNORE`)
)

// Pair is one `[TAG] payload` element of a directive.
type Pair struct {
	Tag     Tag
	Payload string
}

// Directive is a parsed `[EXPORT] : [TAG] payload ...` annotation.
type Directive struct {
	Prefix string // line text before the [EXPORT] marker
	Body   string // text after the marker and its colon
	Pairs  []Pair // tag/payload pairs in appearance order
}

// FindDirective locates an [EXPORT] annotation in line. Tag matching is case-insensitive.
func FindDirective(line string) (Directive, bool) {
	loc := exportMarker.FindStringIndex(line)
	if loc == nil {
		return Directive{}, false
	}
	body := strings.TrimRight(line[loc[1]:], " \t\r\n")
	d := Directive{
		Prefix: line[:loc[0]],
		Body:   body,
	}
	for _, m := range tagPair.FindAllStringSubmatch(body, -1) {
		d.Pairs = append(d.Pairs, Pair{
			Tag:     Tag(strings.ToUpper(m[1])),
			Payload: cleanPayload(m[2]),
		})
	}
	return d, true
}

// First returns the first tag/payload pair.
func (d Directive) First() (Pair, bool) {
	if len(d.Pairs) == 0 {
		return Pair{}, false
	}
	return d.Pairs[0], true
}

// Lookup returns the first pair carrying tag.
func (d Directive) Lookup(tag Tag) (Pair, bool) {
	for _, p := range d.Pairs {
		if p.Tag == tag {
			return p, true
		}
	}
	return Pair{}, false
}

// Ignored reports whether the directive body contains IGNORE.
func (d Directive) Ignored() bool {
	return ignoreWord.MatchString(d.Body)
}

// OwnLine reports whether nothing but comment punctuation precedes the
// marker, i.e. the directive describes the declaration on a following line.
func (d Directive) OwnLine() bool {
	return StripCommentMarkers(d.Prefix) == ""
}

// PacketType maps REPLY/TM to telemetry and COMMAND/TC to telecommand.
// Telemetry tags take precedence when both appear.
func (d Directive) PacketType() PacketType {
	hasTC := false
	for _, p := range d.Pairs {
		switch p.Tag {
		case TagReply, TagTM:
			return PacketTM
		case TagCommand, TagTC:
			hasTC = true
		}
	}
	if hasTC {
		return PacketTC
	}
	return PacketUnspecified
}

// Tokens splits the body into a flat list of tags and payloads in appearance
// order. Empty payloads produce no token.
func (d Directive) Tokens() []string {
	var tokens []string
	body := d.Body
	if idx := strings.IndexByte(body, '['); idx > 0 {
		if lead := cleanPayload(body[:idx]); lead != "" {
			tokens = append(tokens, lead)
		}
	} else if idx < 0 {
		if lead := cleanPayload(body); lead != "" {
			tokens = append(tokens, lead)
		}
	}
	for _, m := range tagPair.FindAllStringSubmatch(body, -1) {
		tokens = append(tokens, strings.ToUpper(m[1]))
		if payload := cleanPayload(m[2]); payload != "" {
			tokens = append(tokens, payload)
		}
	}
	return tokens
}

// PositionalPairs interprets Tokens positionally as tag, payload, tag,
// payload. An odd token count is a formatting error: the trailing token is
// dropped and returned as dropped.
func (d Directive) PositionalPairs() (pairs []Pair, dropped string, ok bool) {
	tokens := d.Tokens()
	for i := 0; i+1 < len(tokens); i += 2 {
		pairs = append(pairs, Pair{
			Tag:     Tag(strings.ToUpper(tokens[i])),
			Payload: tokens[i+1],
		})
	}
	if len(tokens)%2 != 0 {
		return pairs, tokens[len(tokens)-1], false
	}
	return pairs, "", true
}

// FormatSubserviceList renders a comma separated number list as "1, 2 and 3".
func FormatSubserviceList(list string) (string, error) {
	var numbers []string
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return "", fmt.Errorf("invalid subservice number %q: %w", part, err)
		}
		numbers = append(numbers, strconv.Itoa(n))
	}
	switch len(numbers) {
	case 0:
		return "", nil
	case 1:
		return numbers[0], nil
	}
	return strings.Join(numbers[:len(numbers)-1], ", ") + " and " + numbers[len(numbers)-1], nil
}

// StripCommentMarkers removes leading comment punctuation (/ * ! <) and
// surrounding whitespace, plus a trailing block comment terminator.
func StripCommentMarkers(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "/*!<")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "*/")
	return strings.TrimSpace(s)
}

// IsCommentLine reports whether line holds only a comment.
func IsCommentLine(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "//") || strings.HasPrefix(t, "/*") || strings.HasPrefix(t, "*")
}

func cleanPayload(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "*/")
	return strings.TrimSpace(s)
}

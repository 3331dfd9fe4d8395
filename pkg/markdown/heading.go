// Package markdown provides the line-oriented section model shared by the
// linters and the compiler. It does not build a full document tree: headings
// are matched per line, and a section is the span a heading owns until the
// next heading of the same or a shallower level.
package markdown

import (
	"regexp"
	"strings"
)

var headingRE = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+(.*\S)[ \t]*$`)

// Heading is a single ATX heading line
type Heading struct {
	Level int
	Title string
	Line  int // 1-indexed
	Start int // offset of the first '#'
	End   int // offset just past the heading line, excluding the newline
}

// Normalize converts CRLF line endings to LF. Every parser in this module
// expects normalized input.
func Normalize(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}

// ParseHeadings returns every heading in document order.
func ParseHeadings(text string) []Heading {
	matches := headingRE.FindAllStringSubmatchIndex(text, -1)
	headings := make([]Heading, 0, len(matches))

	line, scanned := 1, 0
	for _, m := range matches {
		line += strings.Count(text[scanned:m[0]], "\n")
		scanned = m[0]

		headings = append(headings, Heading{
			Level: m[3] - m[2],
			Title: strings.TrimSpace(text[m[4]:m[5]]),
			Line:  line,
			Start: m[0],
			End:   m[1],
		})
	}
	return headings
}

// FindHeading returns the first heading whose title satisfies the matcher,
// or nil. Later headings matching the same matcher are ignored.
func FindHeading(headings []Heading, m Matcher) *Heading {
	for i := range headings {
		if m.Match(headings[i].Title) {
			return &headings[i]
		}
	}
	return nil
}

// FindAll returns every heading whose title satisfies the matcher.
func FindAll(headings []Heading, m Matcher) []Heading {
	var out []Heading
	for _, h := range headings {
		if m.Match(h.Title) {
			out = append(out, h)
		}
	}
	return out
}

// SectionText returns the text owned by h: everything after the heading line
// up to the next heading with level <= h.Level, or the end of text.
func SectionText(text string, headings []Heading, h Heading) string {
	end := len(text)
	for _, next := range headings {
		if next.Start <= h.Start {
			continue
		}
		if next.Level <= h.Level {
			end = next.Start
			break
		}
	}
	return text[h.End:end]
}

// LineAt returns the 1-indexed line number of offset.
func LineAt(text string, offset int) int {
	if offset > len(text) {
		offset = len(text)
	}
	return strings.Count(text[:offset], "\n") + 1
}

// Package evidence maintains the Evidence lines and Evidence Map table of a
// spec document.
package evidence

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jingkaihe/specforge/pkg/markdown"
)

// DefaultGapLine is appended to paragraphs that cite no evidence
const DefaultGapLine = "Evidence gap: missing source"

// MapHeading is the title of the generated section
const MapHeading = "Evidence Map"

var (
	evidenceLineRE = regexp.MustCompile(`(?im)^[ \t]*Evidence:[ \t]+|^[ \t]*Evidence gap:[ \t]+`)
	evidenceRefsRE = regexp.MustCompile(`(?im)^[ \t]*Evidence:[ \t]+(.+)$`)
)

// Options selects the rewrites Apply performs
type Options struct {
	AppendMissing bool
	GapLine       string
	UpdateMap     bool
}

// Apply runs the selected rewrites in order: gap lines first, so the map is
// built from the final text.
func Apply(text string, opts Options) string {
	text = markdown.Normalize(text)
	if opts.AppendMissing {
		text = AppendMissing(text, opts.GapLine)
	}
	if opts.UpdateMap {
		text = ReplaceSection(text, MapHeading, BuildMap(text))
	}
	return text
}

// AppendMissing adds gapLine after every substantive paragraph that has no
// "Evidence:" or "Evidence gap:" line. Other text is left as is.
func AppendMissing(text, gapLine string) string {
	if gapLine == "" {
		gapLine = DefaultGapLine
	}

	after := map[int]bool{}
	for _, b := range markdown.SplitBlocks(text) {
		if b.Substantive() && !evidenceLineRE.MatchString(b.Text) {
			after[b.Line+strings.Count(b.Text, "\n")] = true
		}
	}

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	out := make([]string, 0, len(lines)+len(after))
	for i, line := range lines {
		out = append(out, line)
		if after[i+1] {
			out = append(out, gapLine)
		}
	}
	return strings.Join(out, "\n") + "\n"
}

// Row is one Evidence Map entry
type Row struct {
	Section   string
	Reference string
}

// Collect returns one row per comma-separated reference on Evidence lines,
// attributed to the nearest preceding heading.
func Collect(text string) []Row {
	headings := markdown.ParseHeadings(text)

	var rows []Row
	for _, b := range markdown.SplitBlocks(text) {
		section := nearestHeading(headings, b.Line)
		for _, m := range evidenceRefsRE.FindAllStringSubmatch(b.Text, -1) {
			for _, ref := range strings.Split(m[1], ",") {
				if ref = strings.TrimSpace(ref); ref != "" {
					rows = append(rows, Row{Section: section, Reference: ref})
				}
			}
		}
	}
	return rows
}

func nearestHeading(headings []markdown.Heading, line int) string {
	current := "(no heading)"
	for _, h := range headings {
		if h.Line > line {
			break
		}
		current = h.Title
	}
	return current
}

// BuildMap renders the Evidence Map table for text
func BuildMap(text string) string {
	lines := []string{
		"| Section / Claim | Evidence | Confidence | Notes |",
		"|---|---|---|---|",
	}
	rows := Collect(text)
	if len(rows) == 0 {
		lines = append(lines, "| (none) | (none) | Low | No evidence lines found. |")
	}
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("| %s | %s | Medium | Auto-collected from Evidence lines. |", r.Section, r.Reference))
	}
	return strings.Join(lines, "\n")
}

// ReplaceSection swaps the body of the first "## heading" section for body,
// or appends the section when the document has none.
func ReplaceSection(text, heading, body string) string {
	headings := markdown.ParseHeadings(text)
	for _, h := range headings {
		if h.Level != 2 || h.Title != heading {
			continue
		}
		rest := text[h.End+len(markdown.SectionText(text, headings, h)):]
		if rest == "" {
			return text[:h.End] + "\n" + body + "\n"
		}
		return text[:h.End] + "\n" + body + "\n\n" + rest
	}
	return strings.TrimRight(text, " \t\n") + "\n\n## " + heading + "\n" + body + "\n"
}

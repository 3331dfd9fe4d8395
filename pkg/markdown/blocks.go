package markdown

import (
	"regexp"
	"strings"
)

var tableRowRE = regexp.MustCompile(`^\|.*\|$`)

// Block is a run of non-blank lines. Blank lines inside fenced code blocks do
// not split a block.
type Block struct {
	Line int
	Text string
}

// SplitBlocks splits text into paragraph blocks separated by blank lines.
func SplitBlocks(text string) []Block {
	var (
		blocks []Block
		buf    []string
		start  = 1
		inCode bool
	)

	for i, line := range strings.Split(text, "\n") {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inCode = !inCode
		}
		if !inCode && trimmed == "" {
			if len(buf) > 0 {
				blocks = append(blocks, Block{Line: start, Text: strings.Join(buf, "\n")})
				buf = nil
			}
			continue
		}
		if len(buf) == 0 {
			start = lineNo
		}
		buf = append(buf, line)
	}
	if len(buf) > 0 {
		blocks = append(blocks, Block{Line: start, Text: strings.Join(buf, "\n")})
	}
	return blocks
}

// Substantive reports whether the block is prose that is expected to carry
// evidence: not empty, not a heading, and not a markdown table.
func (b Block) Substantive() bool {
	stripped := strings.TrimSpace(b.Text)
	if stripped == "" || strings.HasPrefix(stripped, "#") {
		return false
	}
	if tableRowRE.MatchString(stripped) {
		return false
	}
	for _, line := range strings.Split(stripped, "\n") {
		l := strings.TrimSpace(line)
		if !strings.HasPrefix(l, "|") && !strings.HasPrefix(l, "-|") {
			return true
		}
	}
	return false
}

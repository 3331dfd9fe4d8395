package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `# PRD: Checkout

Intro paragraph.

## Success Metrics

- Conversion +5%

### Guardrails

Latency stays flat.

## Risks

Nothing yet.
####### not a heading
#hashtag
`

func TestParseHeadings(t *testing.T) {
	headings := ParseHeadings(sampleDoc)
	require.Len(t, headings, 4)

	assert.Equal(t, Heading{Level: 1, Title: "PRD: Checkout", Line: 1, Start: 0, End: 15}, headings[0])
	assert.Equal(t, 2, headings[1].Level)
	assert.Equal(t, "Success Metrics", headings[1].Title)
	assert.Equal(t, 5, headings[1].Line)
	assert.Equal(t, 3, headings[2].Level)
	assert.Equal(t, 9, headings[2].Line)
	assert.Equal(t, "Risks", headings[3].Title)
	assert.Equal(t, 13, headings[3].Line)

	for i := 1; i < len(headings); i++ {
		assert.Greater(t, headings[i].Start, headings[i-1].Start)
	}
}

func TestParseHeadingsOnePerMatchingLine(t *testing.T) {
	text := "#   Spaced title   \n######\tTabbed\n##\n"
	headings := ParseHeadings(text)
	require.Len(t, headings, 2)
	assert.Equal(t, "Spaced title", headings[0].Title)
	assert.Equal(t, 6, headings[1].Level)
	assert.Equal(t, "Tabbed", headings[1].Title)
}

func TestNormalize(t *testing.T) {
	text := Normalize("# A\r\n\r\n## B\r\n")
	assert.Equal(t, "# A\n\n## B\n", text)

	headings := ParseHeadings(text)
	require.Len(t, headings, 2)
	assert.Equal(t, "A", headings[0].Title)
	assert.Equal(t, 3, headings[1].Line)
}

func TestFindHeading(t *testing.T) {
	headings := ParseHeadings("## Scope Decision Log\n\n## Scope\n\n## Risks\n")

	t.Run("first match wins", func(t *testing.T) {
		h := FindHeading(headings, Patterns(`\bScope\b`))
		require.NotNil(t, h)
		assert.Equal(t, "Scope Decision Log", h.Title)
		assert.Len(t, FindAll(headings, Patterns(`\bScope\b`)), 2)
	})

	t.Run("alternatives are tried in order per heading", func(t *testing.T) {
		h := FindHeading(headings, Patterns(`\bRisks\b`, `^Scope$`))
		require.NotNil(t, h)
		assert.Equal(t, "Scope", h.Title)
	})

	t.Run("case insensitive", func(t *testing.T) {
		assert.NotNil(t, FindHeading(headings, Patterns(`risks`)))
	})

	t.Run("no match", func(t *testing.T) {
		assert.Nil(t, FindHeading(headings, Patterns(`Evidence Map`)))
	})
}

func TestSectionText(t *testing.T) {
	headings := ParseHeadings(sampleDoc)

	metrics := SectionText(sampleDoc, headings, headings[1])
	assert.Contains(t, metrics, "Conversion +5%")
	assert.Contains(t, metrics, "### Guardrails")
	assert.Contains(t, metrics, "Latency stays flat.")
	assert.NotContains(t, metrics, "## Risks")

	guardrails := SectionText(sampleDoc, headings, headings[2])
	assert.Equal(t, "\n\nLatency stays flat.\n\n", guardrails)

	risks := SectionText(sampleDoc, headings, headings[3])
	assert.True(t, strings.HasSuffix(risks, "#hashtag\n"))
}

func TestSectionTextNeverContainsShallowerTitle(t *testing.T) {
	text := "# One\nbody\n## Child\nmore\n# Two\nrest\n# Three\n"
	headings := ParseHeadings(text)

	for _, h := range headings {
		sec := SectionText(text, headings, h)
		for _, other := range headings {
			if other.Start > h.Start && other.Level <= h.Level {
				assert.NotContains(t, sec, text[other.Start:other.End])
			}
		}
	}
}

func TestLineAt(t *testing.T) {
	text := "a\nb\nc"
	assert.Equal(t, 1, LineAt(text, 0))
	assert.Equal(t, 2, LineAt(text, 2))
	assert.Equal(t, 3, LineAt(text, len(text)))
	assert.Equal(t, 3, LineAt(text, len(text)+10))
}

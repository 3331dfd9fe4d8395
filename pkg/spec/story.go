// Package spec extracts domain entities from loosely structured spec
// markdown: user story blocks with their priority, acceptance criteria and
// tests, the PRD title, and the Template Metadata block.
package spec

import (
	"regexp"
	"sort"
	"strings"

	"github.com/jingkaihe/specforge/pkg/markdown"
)

// Priority is the MoSCoW ordinal of a story. Lower sorts first.
type Priority int

const (
	PriorityMust Priority = iota
	PriorityShould
	PriorityCould
)

func (p Priority) String() string {
	switch p {
	case PriorityMust:
		return "Must"
	case PriorityShould:
		return "Should"
	case PriorityCould:
		return "Could"
	default:
		return "Unknown"
	}
}

var priorityNames = map[string]Priority{
	"must":   PriorityMust,
	"should": PriorityShould,
	"could":  PriorityCould,
}

var (
	// 1) **Story [STORY-001]:** As a ..., I want ... so that ...
	storyHeaderA = regexp.MustCompile(`(?im)^[ \t]*(?:\d+[\).]|[-*])[ \t]*\*\*Story[ \t]*\[?(STORY-\d+)\]?[ \t]*:\*\*[ \t]*(.+?)[ \t]*$`)
	// ### STORY-001 — As a ..., I want ... so that ...
	storyHeaderB = regexp.MustCompile(`(?im)^[ \t]*###[ \t]*(STORY-\d+)[ \t]*(?:—|–|-)[ \t]*(.+?)[ \t]*$`)

	prdTitleRE = regexp.MustCompile(`(?im)^[ \t]*#[ \t]*PRD:[ \t]*(.+?)[ \t]*$`)

	priorityRE    = regexp.MustCompile(`(?im)^[ \t]*\*\*Priority:\*\*[ \t]*(Must|Should|Could)[ \t]*$`)
	acceptanceRE  = regexp.MustCompile(`(?im)^[ \t]*\*\*Acceptance criteria:\*\*[ \t]*$`)
	testsHeaderRE = regexp.MustCompile(`(?im)^[ \t]*\*\*Tests:\*\*[ \t]*$`)
	checkboxRE    = regexp.MustCompile(`^\s*-\s*\[( |x|X)\]\s*(.+?)\s*$`)
	bulletRE      = regexp.MustCompile(`^\s*-\s+(.+?)\s*$`)
)

// Story is the content of one story block. Execution state is not part of
// the extracted entity; it is owned by the compiled document.
type Story struct {
	ID                 string
	Title              string
	Priority           Priority
	AcceptanceCriteria []string
	Tests              []string

	// Line is the 1-indexed line of the story header
	Line int
	// HasPriority is false when the priority defaulted to Should
	HasPriority bool
	// HasAcceptanceSection reports whether an acceptance criteria marker was present
	HasAcceptanceSection bool
}

// StoryBlock is the raw span of one story in the source text
type StoryBlock struct {
	ID    string
	Title string
	Start int
	End   int
	Line  int
}

// ExtractOptions controls extraction strictness
type ExtractOptions struct {
	// Strict turns missing priority lines, missing or empty acceptance
	// criteria, and a document without stories into structural errors.
	Strict bool
}

// ProjectName returns the name from the first "# PRD: <name>" heading.
func ProjectName(text string) (string, bool) {
	m := prdTitleRE.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	name := strings.TrimSpace(m[1])
	return name, name != ""
}

// StoryBlocks locates story headers of both supported syntaxes and returns
// them in document order. A block ends at the next story header, the next
// heading after its own header line, or the end of text, whichever is first.
func StoryBlocks(text string) []StoryBlock {
	var blocks []StoryBlock
	for _, re := range []*regexp.Regexp{storyHeaderA, storyHeaderB} {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			blocks = append(blocks, StoryBlock{
				ID:    text[m[2]:m[3]],
				Title: strings.TrimSpace(text[m[4]:m[5]]),
				Start: m[0],
				End:   m[1], // header end for now
			})
		}
	}
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Start < blocks[j].Start })

	headings := markdown.ParseHeadings(text)
	for i := range blocks {
		headerEnd := blocks[i].End
		end := len(text)
		if i+1 < len(blocks) {
			end = blocks[i+1].Start
		}
		// H1 headings do not end a story
		for _, h := range headings {
			if h.Start < headerEnd || h.Level < 2 {
				continue
			}
			if h.Start < end {
				end = h.Start
			}
			break
		}
		blocks[i].End = end
		blocks[i].Line = markdown.LineAt(text, blocks[i].Start)
	}
	return blocks
}

// ExtractStories parses every story block in text. Duplicate IDs are not
// rejected here; see CheckUniqueIDs.
func ExtractStories(text string, opts ExtractOptions) ([]Story, error) {
	blocks := StoryBlocks(text)
	if opts.Strict && len(blocks) == 0 {
		return nil, Structuralf(0, "no stories found; use a story header with a STORY-### identifier")
	}

	stories := make([]Story, 0, len(blocks))
	for _, b := range blocks {
		story, err := parseStoryBlock(b, text[b.Start:b.End], opts)
		if err != nil {
			return nil, err
		}
		stories = append(stories, story)
	}
	return stories, nil
}

func parseStoryBlock(b StoryBlock, block string, opts ExtractOptions) (Story, error) {
	story := Story{
		ID:                 b.ID,
		Title:              b.Title,
		Priority:           PriorityShould,
		AcceptanceCriteria: []string{},
		Tests:              []string{},
		Line:               b.Line,
	}

	if m := priorityRE.FindStringSubmatch(block); m != nil {
		story.Priority = priorityNames[strings.ToLower(m[1])]
		story.HasPriority = true
	} else if opts.Strict {
		return Story{}, Structuralf(b.Line, "story %s is missing a **Priority:** Must|Should|Could line", b.ID)
	}

	if loc := acceptanceRE.FindStringIndex(block); loc != nil {
		story.HasAcceptanceSection = true
		story.AcceptanceCriteria = scanItems(block[loc[1]:], checkboxRE, 2)
	} else if opts.Strict {
		return Story{}, Structuralf(b.Line, "story %s is missing an **Acceptance criteria:** section", b.ID)
	}
	if opts.Strict && len(story.AcceptanceCriteria) == 0 {
		return Story{}, Structuralf(b.Line, "story %s has an acceptance criteria section without '- [ ] ...' items", b.ID)
	}

	if loc := testsHeaderRE.FindStringIndex(block); loc != nil {
		story.Tests = scanItems(block[loc[1]:], bulletRE, 1)
	}

	return story, nil
}

// scanItems collects the given submatch of every matching line until a line
// that is a bold-only header. Blank lines are skipped.
func scanItems(tail string, item *regexp.Regexp, group int) []string {
	items := []string{}
	for _, line := range strings.Split(tail, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if isBoldHeader(trimmed) {
			break
		}
		if m := item.FindStringSubmatch(line); m != nil {
			items = append(items, strings.TrimSpace(m[group]))
		}
	}
	return items
}

func isBoldHeader(trimmed string) bool {
	return len(trimmed) >= 4 && strings.HasPrefix(trimmed, "**") && strings.HasSuffix(trimmed, "**")
}

// CheckUniqueIDs rejects a story list that uses the same ID twice.
func CheckUniqueIDs(stories []Story) error {
	seen := make(map[string]int, len(stories))
	for _, s := range stories {
		if line, dup := seen[s.ID]; dup {
			return Structuralf(s.Line, "duplicate story id %s (first defined at L%d)", s.ID, line)
		}
		seen[s.ID] = s.Line
	}
	return nil
}

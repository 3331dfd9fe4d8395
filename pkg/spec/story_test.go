package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mixedStories = `# PRD: Checkout Revamp

## User Stories

1) **Story [STORY-001]:** As a shopper, I want saved cards so that I pay faster
**Priority:** Must
**Acceptance criteria:**
- [ ] Cards are listed on the payment step

- [x] Default card is preselected
**Tests:**
- go test ./pkg/payments/...

### STORY-002 — As an admin, I want refunds so that support is quicker
**Priority:** could
**Acceptance criteria:**
- [ ] Refund button is visible
**Notes:**
- [ ] not an acceptance criterion

## Functional Requirements

- [ ] Unrelated checkbox
`

func TestStoryBlocks(t *testing.T) {
	blocks := StoryBlocks(mixedStories)
	require.Len(t, blocks, 2)

	assert.Equal(t, "STORY-001", blocks[0].ID)
	assert.Equal(t, "As a shopper, I want saved cards so that I pay faster", blocks[0].Title)
	assert.Equal(t, 5, blocks[0].Line)
	assert.Equal(t, blocks[1].Start, blocks[0].End)

	assert.Equal(t, "STORY-002", blocks[1].ID)
	assert.Equal(t, 14, blocks[1].Line)
	block := mixedStories[blocks[1].Start:blocks[1].End]
	assert.NotContains(t, block, "Functional Requirements")
	assert.NotContains(t, block, "Unrelated checkbox")
}

func TestExtractStories(t *testing.T) {
	stories, err := ExtractStories(mixedStories, ExtractOptions{})
	require.NoError(t, err)
	require.Len(t, stories, 2)

	first := stories[0]
	assert.Equal(t, PriorityMust, first.Priority)
	assert.True(t, first.HasPriority)
	assert.Equal(t, []string{"Cards are listed on the payment step", "Default card is preselected"}, first.AcceptanceCriteria)
	assert.Equal(t, []string{"go test ./pkg/payments/..."}, first.Tests)

	second := stories[1]
	assert.Equal(t, PriorityCould, second.Priority)
	assert.Equal(t, []string{"Refund button is visible"}, second.AcceptanceCriteria)
	assert.Empty(t, second.Tests)
	assert.NotNil(t, second.Tests)
}

func TestExtractStoriesBulletHeaders(t *testing.T) {
	text := "- **Story [STORY-010]:** As a user, I want x so that y\n**Acceptance criteria:**\n- [ ] works\n"
	stories, err := ExtractStories(text, ExtractOptions{})
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, "STORY-010", stories[0].ID)
	assert.Equal(t, PriorityShould, stories[0].Priority)
	assert.False(t, stories[0].HasPriority)
}

func TestStoryBlockBoundaries(t *testing.T) {
	text := `### STORY-001 — As a user, I want export so that I keep records
**Priority:** Must
# Appendix
**Acceptance criteria:**
- [ ] CSV downloads
## Notes
- [ ] not a criterion
`
	stories, err := ExtractStories(text, ExtractOptions{})
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, []string{"CSV downloads"}, stories[0].AcceptanceCriteria,
		"an H1 stays inside the story; the next H2 ends it")
}

func TestExtractStoriesStrict(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr string
	}{
		{
			name:    "no stories",
			text:    "# PRD: Empty\n\nNothing here.\n",
			wantErr: "no stories found",
		},
		{
			name:    "missing priority",
			text:    "### STORY-001 — title\n**Acceptance criteria:**\n- [ ] ok\n",
			wantErr: "missing a **Priority:**",
		},
		{
			name:    "missing acceptance criteria",
			text:    "### STORY-001 — title\n**Priority:** Must\n",
			wantErr: "missing an **Acceptance criteria:** section",
		},
		{
			name:    "empty acceptance criteria",
			text:    "### STORY-001 — title\n**Priority:** Must\n**Acceptance criteria:**\n\n**Tests:**\n- x\n",
			wantErr: "without '- [ ] ...' items",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractStories(tt.text, ExtractOptions{Strict: true})
			require.Error(t, err)
			assert.True(t, IsStructural(err))
			assert.Contains(t, err.Error(), tt.wantErr)

			_, err = ExtractStories(tt.text, ExtractOptions{})
			assert.NoError(t, err)
		})
	}
}

func TestCheckUniqueIDs(t *testing.T) {
	text := "### STORY-003 — one\n\n### STORY-003 — two\n"
	stories, err := ExtractStories(text, ExtractOptions{})
	require.NoError(t, err)

	err = CheckUniqueIDs(stories)
	require.Error(t, err)
	assert.True(t, IsStructural(err))
	assert.Contains(t, err.Error(), "duplicate story id STORY-003")
	assert.Contains(t, err.Error(), "L3")

	assert.NoError(t, CheckUniqueIDs(stories[:1]))
}

func TestProjectName(t *testing.T) {
	name, ok := ProjectName("intro\n#  PRD:  Checkout Revamp  \n")
	assert.True(t, ok)
	assert.Equal(t, "Checkout Revamp", name)

	_, ok = ProjectName("# Product Requirements\n")
	assert.False(t, ok)
}

func TestPriorityString(t *testing.T) {
	assert.Equal(t, "Must", PriorityMust.String())
	assert.Equal(t, "Should", PriorityShould.String())
	assert.Equal(t, "Could", PriorityCould.String())
	assert.Equal(t, "Unknown", Priority(7).String())
}

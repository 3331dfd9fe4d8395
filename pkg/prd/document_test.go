package prd

import (
	"strings"
	"testing"

	"github.com/jingkaihe/specforge/pkg/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	doc, err := Parse([]byte(`{
  "projectName": "Legacy",
  "userStories": [
    {"id": "STORY-001", "title": "old", "status": "done", "attempts": 2, "custom": true},
    {"id": "STORY-002", "startedAt": null}
  ]
}`))
	require.NoError(t, err)
	require.Len(t, doc.UserStories, 2)

	done := doc.UserStories[0]
	assert.Equal(t, "done", done.Status)
	assert.Equal(t, 2, done.Attempts)
	assert.Equal(t, spec.PriorityShould, done.Priority)

	bare := doc.UserStories[1]
	assert.Equal(t, StatusOpen, bare.Status)
	assert.Nil(t, bare.StartedAt)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte(`{"userStories": "nope"}`))
	assert.Error(t, err)
}

func TestMarshal(t *testing.T) {
	doc := &Document{
		ProjectName: "A & B <beta>",
		GeneratedAt: "2026-01-01T00:00:00Z",
		UserStories: []UserStory{{ID: "STORY-001", ExecutionState: DefaultState()}},
	}
	data, err := doc.Marshal()
	require.NoError(t, err)

	out := string(data)
	assert.True(t, strings.HasSuffix(out, "}\n"))
	assert.Contains(t, out, `"projectName": "A & B <beta>"`)
	assert.Contains(t, out, `"finalTests": []`)
	assert.Contains(t, out, `"acceptanceCriteria": []`)
	assert.Contains(t, out, `"startedAt": null`)
	assert.Contains(t, out, "\n  \"userStories\": [\n    {\n      \"id\": \"STORY-001\",")
	assert.Less(t, strings.Index(out, `"tests"`), strings.Index(out, `"status"`))

	assert.Nil(t, doc.FinalTests, "marshal does not modify the document")
}

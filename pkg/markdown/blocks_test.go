package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitBlocks(t *testing.T) {
	text := "## Title\n\nFirst para\ncontinues\n\n```\ncode\n\nstill code\n```\n\n| a | b |\n|---|---|\n"
	blocks := SplitBlocks(text)
	require.Len(t, blocks, 4)

	assert.Equal(t, Block{Line: 1, Text: "## Title"}, blocks[0])
	assert.Equal(t, 3, blocks[1].Line)
	assert.Equal(t, "First para\ncontinues", blocks[1].Text)
	assert.Equal(t, 6, blocks[2].Line)
	assert.Equal(t, "```\ncode\n\nstill code\n```", blocks[2].Text)
	assert.Equal(t, 12, blocks[3].Line)
}

func TestBlockSubstantive(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"prose", "We ship weekly.", true},
		{"heading", "## Risks", false},
		{"blank", "   ", false},
		{"single row table", "| a | b |", false},
		{"table", "| a | b |\n|---|---|\n| 1 | 2 |", false},
		{"prose after table", "| a |\nnot a table", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Block{Text: tt.text}.Substantive())
		})
	}
}

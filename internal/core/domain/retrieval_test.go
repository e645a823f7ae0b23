package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnippet(t *testing.T) {
	assert.Equal(t, "line one line two", Snippet("  line one\nline two \n", 220))

	long := strings.Repeat("a", 300)
	got := Snippet(long, 220)
	assert.Equal(t, strings.Repeat("a", 220)+"…", got)
}

func TestCitationFor(t *testing.T) {
	c := CitationFor(RetrievedContext{
		ChunkID:    7,
		SourcePath: "guide.md",
		Text:       "Restart the service.\nThen verify.",
		Score:      0.81,
	})

	assert.Equal(t, "guide.md", c.SourcePath)
	assert.Equal(t, int64(7), c.ChunkID)
	assert.Equal(t, 0.81, c.Score)
	assert.Equal(t, "Restart the service. Then verify.", c.Snippet)
}

func TestAnswerMeta_IsFallback(t *testing.T) {
	assert.True(t, AnswerMeta{Provider: AnswerProviderLocal}.IsFallback())
	assert.False(t, AnswerMeta{Provider: AnswerProviderRemote}.IsFallback())
}

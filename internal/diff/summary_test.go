package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeExclusions(t *testing.T) {
	paths := []string{"a.po", "b/mocks/x.js", "c.spec.ts", "package-lock.json", "d.ts"}
	files := make([]ChangedFile, 0, len(paths))
	for _, path := range paths {
		files = append(files, ChangedFile{Path: path, AddedLines: 1, RemovedLines: 1})
	}
	assert.Equal(t, Summary{FileCount: 1, AddedLineCount: 1, DeleteLineCount: 1}, Summarize(files))
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestSummarizeSumsIncludedFiles(t *testing.T) {
	files := []ChangedFile{
		{Path: "cmd/main.go", AddedLines: 10, RemovedLines: 2},
		{Path: "internal/x_test.go", AddedLines: 50, RemovedLines: 5},
		{Path: "web/app.tsx", AddedLines: 3, RemovedLines: 7},
		{Path: "locale/fr/messages.po", AddedLines: 100},
	}
	assert.Equal(t, Summary{FileCount: 2, AddedLineCount: 13, DeleteLineCount: 9}, Summarize(files))
}

func TestSummarizerExtraPatterns(t *testing.T) {
	s, err := NewSummarizer(`^vendor/`, `\.pb\.go$`)
	require.NoError(t, err)
	assert.True(t, s.Excluded("vendor/x/y.go"))
	assert.True(t, s.Excluded("api/v1/api.pb.go"))
	assert.True(t, s.Excluded("a.po"))
	assert.False(t, s.Excluded("api/v1/api.go"))
}

func TestNewSummarizerInvalidPattern(t *testing.T) {
	_, err := NewSummarizer(`(`)
	require.Error(t, err)
}

func TestDefaultSummarizer(t *testing.T) {
	s := Default()
	require.NotNil(t, s)
	assert.Same(t, s, Default())
	assert.True(t, s.Excluded("package-lock.json"))
	assert.False(t, s.Excluded("cmd/main.go"))
}

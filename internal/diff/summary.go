package diff

import (
	"fmt"
	"regexp"
)

type ChangedFile struct {
	Path         string `json:"path"`
	AddedLines   int    `json:"added_lines"`
	RemovedLines int    `json:"removed_lines"`
}

type Summary struct {
	FileCount       int `json:"file_count"`
	AddedLineCount  int `json:"added_line_count"`
	DeleteLineCount int `json:"delete_line_count"`
}

// DefaultExclusions skip files that do not need a reviewer's attention.
var DefaultExclusions = []string{
	`\.po$`,             // translations
	`mocks`,             // mocks
	`(spec|test)\.\w+$`, // tests
	`package-lock.json`, // generated lockfile
}

type Summarizer struct {
	exclude []*regexp.Regexp
}

var defaultSummarizer = mustSummarizer()

func mustSummarizer() *Summarizer {
	s, err := NewSummarizer()
	if err != nil {
		panic(err)
	}
	return s
}

// NewSummarizer compiles the default exclusions followed by extra patterns.
func NewSummarizer(extra ...string) (*Summarizer, error) {
	patterns := append(append([]string{}, DefaultExclusions...), extra...)
	s := &Summarizer{exclude: make([]*regexp.Regexp, 0, len(patterns))}
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid diff exclude pattern %q: %w", pattern, err)
		}
		s.exclude = append(s.exclude, re)
	}
	return s, nil
}

func (s *Summarizer) Excluded(path string) bool {
	for _, re := range s.exclude {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

func (s *Summarizer) Summarize(files []ChangedFile) Summary {
	var summary Summary
	for _, file := range files {
		if s.Excluded(file.Path) {
			continue
		}
		summary.AddedLineCount += file.AddedLines
		summary.DeleteLineCount += file.RemovedLines
		summary.FileCount++
	}
	return summary
}

// Default returns the summarizer with the default exclusions only.
func Default() *Summarizer {
	return defaultSummarizer
}

// Summarize uses the default exclusions only.
func Summarize(files []ChangedFile) Summary {
	return defaultSummarizer.Summarize(files)
}

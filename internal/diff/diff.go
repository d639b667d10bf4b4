package diff

import (
	"strings"
)

type FileDiff struct {
	Path string
	Text string
}

// ParseUnified splits a multi-file git diff into per-file chunks.
func ParseUnified(input string) []FileDiff {
	lines := strings.Split(input, "\n")
	var files []FileDiff
	var current *FileDiff
	for _, line := range lines {
		if strings.HasPrefix(line, "diff --git ") {
			if current != nil {
				files = append(files, *current)
			}
			current = &FileDiff{Path: parsePath(line), Text: line + "\n"}
			continue
		}
		if current == nil {
			continue
		}
		current.Text += line + "\n"
	}
	if current != nil {
		files = append(files, *current)
	}
	return files
}

func parsePath(line string) string {
	parts := strings.Split(line, " ")
	if len(parts) < 4 {
		return ""
	}
	return strings.TrimPrefix(parts[3], "b/")
}

// CountLines counts added and removed lines inside the hunks of a single
// file diff. Lines before the first hunk header are file headers.
func CountLines(text string) (added int, removed int) {
	inHunk := false
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "@@") {
			inHunk = true
			continue
		}
		if !inHunk {
			continue
		}
		switch {
		case strings.HasPrefix(line, "diff --git "):
			inHunk = false
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	return added, removed
}

// ChangedFiles turns parsed file diffs into line count records.
func ChangedFiles(files []FileDiff) []ChangedFile {
	changed := make([]ChangedFile, 0, len(files))
	for _, file := range files {
		if file.Path == "" {
			continue
		}
		added, removed := CountLines(file.Text)
		changed = append(changed, ChangedFile{Path: file.Path, AddedLines: added, RemovedLines: removed})
	}
	return changed
}

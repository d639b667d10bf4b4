// Package render writes enhancement results as terminal badges or JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/brianndofor/mrq/internal/diff"
	"github.com/brianndofor/mrq/internal/discussion"
	"github.com/brianndofor/mrq/internal/enhance"
	"github.com/brianndofor/mrq/internal/review"
	"github.com/charmbracelet/lipgloss"
)

const excerptWidth = 72

type Renderer struct {
	w       io.Writer
	title   lipgloss.Style
	danger  lipgloss.Style
	success lipgloss.Style
	muted   lipgloss.Style
	added   lipgloss.Style
	removed lipgloss.Style
}

// New binds styles to w, so colour is only emitted when w is a terminal.
func New(w io.Writer) *Renderer {
	r := lipgloss.NewRenderer(w)
	return &Renderer{
		w:       w,
		title:   r.NewStyle().Bold(true),
		danger:  r.NewStyle().Foreground(lipgloss.Color("#dd2b0e")),
		success: r.NewStyle().Foreground(lipgloss.Color("#108548")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#737278")),
		added:   r.NewStyle().Foreground(lipgloss.Color("#108548")).Bold(true),
		removed: r.NewStyle().Foreground(lipgloss.Color("#dd2b0e")).Bold(true),
	}
}

func (r *Renderer) Results(results []enhance.Result) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(r.w, "No merge requests found.")
		return err
	}
	for _, result := range results {
		if err := r.Result(result); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) Result(result enhance.Result) error {
	return r.result(result, "")
}

func (r *Renderer) result(result enhance.Result, indent string) error {
	lines := []string{indent + r.header(result)}
	for _, line := range r.badges(result) {
		lines = append(lines, indent+"  "+line)
	}
	_, err := fmt.Fprintln(r.w, strings.Join(lines, "\n"))
	return err
}

func (r *Renderer) header(result enhance.Result) string {
	header := result.Ref.String()
	if mr := result.MergeRequest; mr != nil {
		title := mr.Title
		if mr.Draft {
			title = "[draft] " + title
		}
		if title != "" {
			header += " " + r.title.Render(title)
		}
	}
	return header
}

func (r *Renderer) badges(result enhance.Result) []string {
	var lines []string
	if result.Badge.Visible() {
		style := r.danger
		if result.Badge.Kind == discussion.BadgeResolved {
			style = r.success
		}
		lines = append(lines, "Threads: "+style.Render(result.Badge.Label()))
	}
	if result.Action != nil {
		lines = append(lines, "Review: "+ActionLabel(*result.Action))
	}
	if d := result.Diff; d != nil {
		lines = append(lines, r.diffLine(*d))
	}
	return lines
}

func (r *Renderer) diffLine(d diff.Summary) string {
	return fmt.Sprintf("Diff: %s %s %s",
		r.muted.Render(fmt.Sprintf("%d files", d.FileCount)),
		r.added.Render(fmt.Sprintf("+%d", d.AddedLineCount)),
		r.removed.Render(fmt.Sprintf("-%d", d.DeleteLineCount)))
}

// Diff prints the summary of a local diff followed by each file, marking the
// ones the summary skipped.
func (r *Renderer) Diff(summary diff.Summary, files []diff.ChangedFile, excluded func(string) bool) error {
	if _, err := fmt.Fprintln(r.w, r.diffLine(summary)); err != nil {
		return err
	}
	for _, file := range files {
		line := fmt.Sprintf("  %s %s %s", file.Path,
			r.added.Render(fmt.Sprintf("+%d", file.AddedLines)),
			r.removed.Render(fmt.Sprintf("-%d", file.RemovedLines)))
		if excluded != nil && excluded(file.Path) {
			line += " " + r.muted.Render("(excluded)")
		}
		if _, err := fmt.Fprintln(r.w, line); err != nil {
			return err
		}
	}
	return nil
}

// ActionLabel lists the role followed by every non-empty bucket.
func ActionLabel(action review.Action) string {
	parts := []string{action.Role.String()}
	if action.NeedsReview {
		parts = append(parts, "needs my review")
	}
	if action.WaitForTheirs > 0 {
		parts = append(parts, fmt.Sprintf("%d waiting on others", action.WaitForTheirs))
	}
	if action.WaitForOurs > 0 {
		parts = append(parts, fmt.Sprintf("%d need my response", action.WaitForOurs))
	}
	if action.OtherUnresolved > 0 {
		parts = append(parts, fmt.Sprintf("%d other open", action.OtherUnresolved))
	}
	if len(parts) == 1 {
		parts = append(parts, "nothing pending")
	}
	return strings.Join(parts, ", ")
}

func (r *Renderer) Issue(result enhance.IssueResult) error {
	label := result.Label()
	if !result.Available {
		label = r.muted.Render(label + " (unavailable)")
	}
	if _, err := fmt.Fprintf(r.w, "%s\n  Merge requests: %s\n", result.Ref, label); err != nil {
		return err
	}
	for _, related := range result.MergeRequests {
		mr := related.MergeRequest
		switch {
		case related.Result != nil:
			if err := r.result(*related.Result, "  "); err != nil {
				return err
			}
		case related.Project != "":
			if _, err := fmt.Fprintf(r.w, "  %s %s\n    Project: %s\n", mr.Ref, r.muted.Render(mr.State), related.Project); err != nil {
				return err
			}
		default:
			if _, err := fmt.Fprintf(r.w, "  %s %s\n", mr.Ref, r.muted.Render(mr.State)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Threads lists the open threads of a merge request with the bucket each
// one falls in for the viewer. filter, when set, is applied to the full note
// body before it is shortened.
func (r *Renderer) Threads(result enhance.Result, filter func(string) string) error {
	if _, err := fmt.Fprintln(r.w, r.header(result)); err != nil {
		return err
	}
	role := review.RoleUninvolved
	if result.MergeRequest != nil {
		role = review.ResolveRole(result.MergeRequest.Unit, result.Viewer)
	}

	var open []discussion.Thread
	for _, thread := range result.Threads {
		if thread.Open() {
			open = append(open, thread)
		}
	}
	if len(open) == 0 {
		_, err := fmt.Fprintln(r.w, "  No unresolved threads.")
		return err
	}

	if _, err := fmt.Fprintf(r.w, "  Unresolved threads: %d (%s)\n", len(open), role); err != nil {
		return err
	}
	for i, thread := range open {
		label := "open"
		if bucket := review.ThreadBucket(thread, role, result.Viewer); bucket != review.BucketNone {
			label = bucket.String()
		}
		style := r.muted
		if label == review.BucketWaitForOurs.String() {
			style = r.danger
		}
		first, _ := thread.First()
		last, _ := thread.Last()
		if _, err := fmt.Fprintf(r.w, "  %d. %s, %d notes, opened by %s\n", i+1, style.Render(label), len(thread.Notes), authorName(first)); err != nil {
			return err
		}
		text := last.Body
		if filter != nil {
			text = filter(text)
		}
		if _, err := fmt.Fprintf(r.w, "     Last: %s: %s\n", authorName(last), Excerpt(text)); err != nil {
			return err
		}
	}
	return nil
}

func authorName(note discussion.Note) string {
	if note.Author != "" {
		return note.Author
	}
	return fmt.Sprintf("user %d", note.AuthorID)
}

// Excerpt keeps the first non-empty line of text, shortened to fit one
// terminal line.
func Excerpt(text string) string {
	line := ""
	for _, candidate := range strings.Split(text, "\n") {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			line = candidate
			break
		}
	}
	runes := []rune(line)
	if len(runes) > excerptWidth {
		return string(runes[:excerptWidth-3]) + "..."
	}
	return line
}

func JSON(w io.Writer, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n"))
	return err
}

// Package discussion models merge request discussion threads and the
// resolved/resolvable counts derived from them.
package discussion

import "fmt"

type Note struct {
	AuthorID int64  `json:"author_id"`
	Author   string `json:"author,omitempty"`
	Body     string `json:"body,omitempty"`
}

// Thread is one discussion on a merge request. Notes are chronological: the
// first note opened the thread and the last one is the latest reply.
type Thread struct {
	Resolvable     bool   `json:"resolvable"`
	Resolved       bool   `json:"resolved"`
	IndividualNote bool   `json:"individual_note"`
	Notes          []Note `json:"notes"`
}

func (t Thread) First() (Note, bool) {
	if len(t.Notes) == 0 {
		return Note{}, false
	}
	return t.Notes[0], true
}

func (t Thread) Last() (Note, bool) {
	if len(t.Notes) == 0 {
		return Note{}, false
	}
	return t.Notes[len(t.Notes)-1], true
}

// Open reports whether the thread is resolvable, still unresolved and has at
// least one note.
func (t Thread) Open() bool {
	return t.Resolvable && !t.Resolved && len(t.Notes) > 0
}

type Counts struct {
	Resolvable int `json:"resolvable"`
	Resolved   int `json:"resolved"`
}

// Unresolved is the number of resolvable threads that are not resolved yet.
// It is zero when the counts are inconsistent.
func (c Counts) Unresolved() int {
	if c.Resolvable < c.Resolved {
		return 0
	}
	return c.Resolvable - c.Resolved
}

// Aggregate counts resolvable and resolved threads. Resolved is counted
// independently of Resolvable.
func Aggregate(threads []Thread) Counts {
	var counts Counts
	for _, thread := range threads {
		if thread.Resolvable {
			counts.Resolvable++
		}
		if thread.Resolved {
			counts.Resolved++
		}
	}
	return counts
}

type BadgeKind string

const (
	BadgeNone       BadgeKind = ""
	BadgeUnresolved BadgeKind = "unresolved"
	BadgeResolved   BadgeKind = "resolved"
)

type Badge struct {
	Kind   BadgeKind `json:"kind"`
	Counts Counts    `json:"counts"`
}

func (b Badge) Visible() bool {
	return b.Kind != BadgeNone
}

func (b Badge) Label() string {
	if !b.Visible() {
		return ""
	}
	return fmt.Sprintf("%d/%d threads resolved", b.Counts.Resolved, b.Counts.Resolvable)
}

// SelectBadge picks the coarse thread status shown when no classification is
// available.
func SelectBadge(counts Counts) Badge {
	switch {
	case counts.Unresolved() > 0:
		return Badge{Kind: BadgeUnresolved, Counts: counts}
	case counts.Resolvable == counts.Resolved && counts.Resolvable > 0:
		return Badge{Kind: BadgeResolved, Counts: counts}
	default:
		return Badge{Kind: BadgeNone, Counts: counts}
	}
}

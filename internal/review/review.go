// Package review classifies a merge request into the action the current
// viewer owes on it.
package review

import (
	"slices"

	"github.com/brianndofor/mrq/internal/discussion"
)

// Bodies of the individual system notes GitLab writes for review verdicts.
const (
	ApprovedBody         = "approved this merge request"
	RequestedChangesBody = "requested changes"
)

type Viewer struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

func (v Viewer) Known() bool {
	return v.ID != 0
}

// Unit is the part of a merge request that decides the viewer's role.
type Unit struct {
	AuthorID    int64   `json:"author_id"`
	AssigneeIDs []int64 `json:"assignee_ids"`
	ReviewerIDs []int64 `json:"reviewer_ids"`
	State       string  `json:"state"`
}

type Role int

const (
	RoleUninvolved Role = iota
	RoleAuthor
	RoleReviewer
)

func (r Role) String() string {
	switch r {
	case RoleAuthor:
		return "author"
	case RoleReviewer:
		return "reviewer"
	default:
		return "uninvolved"
	}
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// ResolveRole checks authorship first, so an author who also reviews their
// own merge request is an author.
func ResolveRole(unit Unit, viewer Viewer) Role {
	if !viewer.Known() {
		return RoleUninvolved
	}
	if unit.AuthorID == viewer.ID {
		return RoleAuthor
	}
	if slices.Contains(unit.AssigneeIDs, viewer.ID) || slices.Contains(unit.ReviewerIDs, viewer.ID) {
		return RoleReviewer
	}
	return RoleUninvolved
}

type Action struct {
	Role            Role `json:"role"`
	WaitForTheirs   int  `json:"wait_for_theirs"`
	WaitForOurs     int  `json:"wait_for_ours"`
	OtherUnresolved int  `json:"other_unresolved"`
	NeedsReview     bool `json:"needs_review"`
	// Clamped is set when OtherUnresolved would have been negative, which
	// means the counts and the threads disagree.
	Clamped bool `json:"-"`
}

// Classify derives the viewer's review action. It returns false when the
// viewer is not involved in the unit or is unknown; callers then fall back to
// the plain thread badge.
func Classify(threads []discussion.Thread, counts discussion.Counts, unit Unit, viewer Viewer) (Action, bool) {
	switch role := ResolveRole(unit, viewer); role {
	case RoleAuthor:
		return classifyAuthor(threads, viewer), true
	case RoleReviewer:
		return classifyReviewer(threads, counts, viewer), true
	default:
		return Action{}, false
	}
}

type Bucket int

const (
	BucketNone Bucket = iota
	BucketWaitForTheirs
	BucketWaitForOurs
	BucketOther
)

func (b Bucket) String() string {
	switch b {
	case BucketWaitForTheirs:
		return "waiting on others"
	case BucketWaitForOurs:
		return "needs my response"
	case BucketOther:
		return "other"
	default:
		return ""
	}
}

// ThreadBucket places one thread for the given role. Only open threads land
// in a bucket. A reviewer owns the threads they opened; other open threads are
// BucketOther. Authors own every open thread.
func ThreadBucket(thread discussion.Thread, role Role, viewer Viewer) Bucket {
	if !thread.Open() {
		return BucketNone
	}
	first, _ := thread.First()
	last, _ := thread.Last()
	switch role {
	case RoleAuthor:
	case RoleReviewer:
		if first.AuthorID != viewer.ID {
			return BucketOther
		}
	default:
		return BucketNone
	}
	if last.AuthorID == viewer.ID {
		return BucketWaitForTheirs
	}
	return BucketWaitForOurs
}

func classifyAuthor(threads []discussion.Thread, viewer Viewer) Action {
	action := Action{Role: RoleAuthor}
	for _, thread := range threads {
		switch ThreadBucket(thread, RoleAuthor, viewer) {
		case BucketWaitForTheirs:
			action.WaitForTheirs++
		case BucketWaitForOurs:
			action.WaitForOurs++
		}
	}
	return action
}

func classifyReviewer(threads []discussion.Thread, counts discussion.Counts, viewer Viewer) Action {
	action := Action{Role: RoleReviewer, NeedsReview: true}
	for _, thread := range threads {
		switch ThreadBucket(thread, RoleReviewer, viewer) {
		case BucketWaitForTheirs:
			action.WaitForTheirs++
			action.NeedsReview = false
		case BucketWaitForOurs:
			action.WaitForOurs++
			action.NeedsReview = false
		}
		if isReviewVerdict(thread, viewer) {
			action.NeedsReview = false
		}
	}

	// Derived from the totals rather than the fold, so threads the reviewer
	// did not open and any count drift both land here.
	other := counts.Resolvable - counts.Resolved - action.WaitForTheirs - action.WaitForOurs
	if other < 0 {
		other = 0
		action.Clamped = true
	}
	action.OtherUnresolved = other
	return action
}

func isReviewVerdict(thread discussion.Thread, viewer Viewer) bool {
	if !thread.IndividualNote {
		return false
	}
	note, ok := thread.First()
	if !ok || note.AuthorID != viewer.ID {
		return false
	}
	return note.Body == ApprovedBody || note.Body == RequestedChangesBody
}

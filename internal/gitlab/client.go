package gitlab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/brianndofor/mrq/internal/diff"
	"github.com/brianndofor/mrq/internal/discussion"
	"github.com/brianndofor/mrq/internal/review"
	gl "gitlab.com/gitlab-org/api/client-go"
)

// ErrNotFound is returned when GitLab answers 404 for a resource.
var ErrNotFound = errors.New("not found")

const perPage = 100

type Client struct {
	api *gl.Client
}

func NewClient(baseURL string, token string, httpClient *http.Client) (*Client, error) {
	opts := []gl.ClientOptionFunc{}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, gl.WithBaseURL(strings.TrimSuffix(baseURL, "/")+"/api/v4"))
	}
	if httpClient != nil {
		opts = append(opts, gl.WithHTTPClient(httpClient))
	}
	api, err := gl.NewClient(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gitlab client: %w", err)
	}
	return &Client{api: api}, nil
}

type MergeRequest struct {
	Ref       MRRef       `json:"ref"`
	Title     string      `json:"title"`
	State     string      `json:"state"`
	WebURL    string      `json:"web_url"`
	Author    string      `json:"author"`
	Draft     bool        `json:"draft"`
	Labels    []string    `json:"labels"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Unit      review.Unit `json:"unit"`
}

func (c *Client) CurrentUser(ctx context.Context) (review.Viewer, error) {
	user, resp, err := c.api.Users.CurrentUser(gl.WithContext(ctx))
	if err != nil {
		return review.Viewer{}, wrapError(resp, err, "fetch current user")
	}
	return review.Viewer{ID: int64(user.ID), Username: user.Username}, nil
}

func (c *Client) MergeRequest(ctx context.Context, ref MRRef) (MergeRequest, error) {
	mr, resp, err := c.api.MergeRequests.GetMergeRequest(ref.Project, ref.IID, nil, gl.WithContext(ctx))
	if err != nil {
		return MergeRequest{}, wrapError(resp, err, "fetch merge request "+ref.String())
	}
	out := fromBasic(&mr.BasicMergeRequest)
	out.Ref = ref
	return out, nil
}

// Discussions returns every discussion of a merge request as threads.
func (c *Client) Discussions(ctx context.Context, ref MRRef) ([]discussion.Thread, error) {
	opt := &gl.ListMergeRequestDiscussionsOptions{}
	opt.PerPage = perPage
	opt.Page = 1

	var threads []discussion.Thread
	for {
		page, resp, err := c.api.Discussions.ListMergeRequestDiscussions(ref.Project, ref.IID, opt, gl.WithContext(ctx))
		if err != nil {
			return nil, wrapError(resp, err, "fetch discussions for "+ref.String())
		}
		for _, d := range page {
			if d == nil {
				continue
			}
			threads = append(threads, toThread(d))
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return threads, nil
}

// toThread folds note level resolution into the thread: a thread is
// resolvable when any note is, and resolved when every resolvable note is.
func toThread(d *gl.Discussion) discussion.Thread {
	thread := discussion.Thread{IndividualNote: d.IndividualNote}
	allResolved := true
	for _, n := range d.Notes {
		if n == nil {
			continue
		}
		if n.Resolvable {
			thread.Resolvable = true
			if !n.Resolved {
				allResolved = false
			}
		}
		thread.Notes = append(thread.Notes, discussion.Note{
			AuthorID: int64(n.Author.ID),
			Author:   n.Author.Username,
			Body:     n.Body,
		})
	}
	thread.Resolved = thread.Resolvable && allResolved
	return thread
}

func (c *Client) DiffFiles(ctx context.Context, ref MRRef) ([]diff.ChangedFile, error) {
	opt := &gl.ListMergeRequestDiffsOptions{}
	opt.PerPage = perPage
	opt.Page = 1

	var files []diff.ChangedFile
	for {
		page, resp, err := c.api.MergeRequests.ListMergeRequestDiffs(ref.Project, ref.IID, opt, gl.WithContext(ctx))
		if err != nil {
			return nil, wrapError(resp, err, "fetch diffs for "+ref.String())
		}
		for _, d := range page {
			if d == nil {
				continue
			}
			added, removed := diff.CountLines(d.Diff)
			files = append(files, diff.ChangedFile{Path: d.NewPath, AddedLines: added, RemovedLines: removed})
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return files, nil
}

func (c *Client) RelatedMergeRequests(ctx context.Context, ref IssueRef) ([]MergeRequest, error) {
	opt := &gl.ListMergeRequestsRelatedToIssueOptions{}
	opt.PerPage = perPage
	opt.Page = 1

	var out []MergeRequest
	for {
		page, resp, err := c.api.Issues.ListMergeRequestsRelatedToIssue(ref.Project, ref.IID, opt, gl.WithContext(ctx))
		if err != nil {
			return nil, wrapError(resp, err, "fetch related merge requests for "+ref.String())
		}
		for _, mr := range page {
			if mr == nil {
				continue
			}
			out = append(out, fromBasic(mr))
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return out, nil
}

// ListMode selects whose merge requests the queue shows.
type ListMode string

const (
	ListModeReview   ListMode = "review"
	ListModeMine     ListMode = "mine"
	ListModeAssigned ListMode = "assigned"
)

type ListOptions struct {
	Mode     ListMode
	Username string
	Project  string
	Limit    int
	OrderBy  string
	Sort     string
}

// ListMergeRequests lists open merge requests for the queue.
func (c *Client) ListMergeRequests(ctx context.Context, opts ListOptions) ([]MergeRequest, error) {
	if opts.Limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}
	opt := &gl.ListMergeRequestsOptions{
		State:   gl.Ptr("opened"),
		OrderBy: optional(opts.OrderBy),
		Sort:    optional(opts.Sort),
	}
	switch opts.Mode {
	case ListModeMine:
		opt.Scope = gl.Ptr("created_by_me")
	case ListModeAssigned:
		opt.Scope = gl.Ptr("assigned_to_me")
	default:
		if opts.Username == "" {
			return nil, fmt.Errorf("review mode needs the viewer username")
		}
		opt.Scope = gl.Ptr("all")
		opt.ReviewerUsername = gl.Ptr(opts.Username)
	}
	opt.PerPage = int64(min(opts.Limit, perPage))
	opt.Page = 1

	var out []MergeRequest
	for len(out) < opts.Limit {
		var page []*gl.BasicMergeRequest
		var resp *gl.Response
		var err error
		if opts.Project != "" {
			page, resp, err = c.api.MergeRequests.ListProjectMergeRequests(opts.Project, projectOptions(opt), gl.WithContext(ctx))
		} else {
			page, resp, err = c.api.MergeRequests.ListMergeRequests(opt, gl.WithContext(ctx))
		}
		if err != nil {
			return nil, wrapError(resp, err, "list merge requests")
		}
		for _, mr := range page {
			if mr == nil || len(out) >= opts.Limit {
				continue
			}
			out = append(out, fromBasic(mr))
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return out, nil
}

func projectOptions(opt *gl.ListMergeRequestsOptions) *gl.ListProjectMergeRequestsOptions {
	p := &gl.ListProjectMergeRequestsOptions{
		State:            opt.State,
		Scope:            opt.Scope,
		OrderBy:          opt.OrderBy,
		Sort:             opt.Sort,
		ReviewerUsername: opt.ReviewerUsername,
	}
	p.PerPage = opt.PerPage
	p.Page = opt.Page
	return p
}

// basicRef prefers the full reference GitLab reports over the web URL, whose
// path may carry the prefix of an instance served below the domain root.
func basicRef(mr *gl.BasicMergeRequest) (MRRef, bool) {
	if mr.References != nil && mr.References.Full != "" {
		if ref, err := ParseMR(mr.References.Full); err == nil {
			return ref, true
		}
	}
	ref, err := ParseMR(mr.WebURL)
	return ref, err == nil
}

func fromBasic(mr *gl.BasicMergeRequest) MergeRequest {
	out := MergeRequest{
		Title:  mr.Title,
		State:  mr.State,
		WebURL: mr.WebURL,
		Draft:  mr.Draft,
		Labels: []string(mr.Labels),
		Unit:   review.Unit{State: mr.State},
	}
	if ref, ok := basicRef(mr); ok {
		out.Ref = ref
	}
	if mr.Author != nil {
		out.Author = mr.Author.Username
		out.Unit.AuthorID = int64(mr.Author.ID)
	}
	for _, u := range mr.Assignees {
		if u != nil {
			out.Unit.AssigneeIDs = append(out.Unit.AssigneeIDs, int64(u.ID))
		}
	}
	for _, u := range mr.Reviewers {
		if u != nil {
			out.Unit.ReviewerIDs = append(out.Unit.ReviewerIDs, int64(u.ID))
		}
	}
	if mr.CreatedAt != nil {
		out.CreatedAt = *mr.CreatedAt
	}
	if mr.UpdatedAt != nil {
		out.UpdatedAt = *mr.UpdatedAt
	}
	return out
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return gl.Ptr(value)
}

func wrapError(resp *gl.Response, err error, what string) error {
	if resp != nil && resp.Response != nil && resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

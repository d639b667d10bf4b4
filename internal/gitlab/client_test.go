package gitlab

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"
)

func newTestClient(t *testing.T, routes map[string]string) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.EscapedPath()]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"404 Not Found"}`))
			return
		}
		if next := r.URL.Query().Get("page"); next == "1" || next == "" {
			if _, paged := routes[r.URL.EscapedPath()+"?page=2"]; paged {
				w.Header().Set("X-Next-Page", "2")
			}
		} else {
			body = routes[r.URL.EscapedPath()+"?page="+next]
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, "token", server.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestCurrentUser(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/api/v4/user": `{"id":10,"username":"me","name":"Me"}`,
	})
	viewer, err := client.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if viewer.ID != 10 || viewer.Username != "me" {
		t.Fatalf("unexpected viewer: %#v", viewer)
	}
}

func TestMergeRequest(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/api/v4/projects/acme%2Fapp/merge_requests/42": `{
			"iid": 42,
			"title": "Fix login redirect",
			"state": "opened",
			"web_url": "https://gitlab.example.com/acme/app/-/merge_requests/42",
			"author": {"id": 20, "username": "alice"},
			"assignees": [{"id": 30, "username": "bob"}],
			"reviewers": [{"id": 10, "username": "me"}],
			"unknown_field": {"ignored": true}
		}`,
	})
	mr, err := client.MergeRequest(context.Background(), MRRef{Project: "acme/app", IID: 42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mr.Title != "Fix login redirect" || mr.Author != "alice" {
		t.Fatalf("unexpected merge request: %#v", mr)
	}
	if mr.Unit.AuthorID != 20 || len(mr.Unit.AssigneeIDs) != 1 || mr.Unit.AssigneeIDs[0] != 30 {
		t.Fatalf("unexpected unit: %#v", mr.Unit)
	}
	if len(mr.Unit.ReviewerIDs) != 1 || mr.Unit.ReviewerIDs[0] != 10 {
		t.Fatalf("unexpected reviewers: %#v", mr.Unit.ReviewerIDs)
	}
}

func TestMergeRequestNotFound(t *testing.T) {
	client := newTestClient(t, map[string]string{})
	_, err := client.MergeRequest(context.Background(), MRRef{Project: "acme/app", IID: 1})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDiscussionsPaginatesAndFoldsResolution(t *testing.T) {
	path := "/api/v4/projects/acme%2Fapp/merge_requests/42/discussions"
	client := newTestClient(t, map[string]string{
		path: `[
			{"id":"a","individual_note":false,"notes":[
				{"id":1,"body":"why?","author":{"id":10},"resolvable":true,"resolved":false},
				{"id":2,"body":"because","author":{"id":20},"resolvable":true,"resolved":false}
			]},
			{"id":"b","individual_note":true,"notes":[
				{"id":3,"body":"approved this merge request","author":{"id":10},"system":true,"resolvable":false}
			]}
		]`,
		path + "?page=2": `[
			{"id":"c","individual_note":false,"notes":[
				{"id":4,"body":"nit","author":{"id":10},"resolvable":true,"resolved":true}
			]}
		]`,
	})
	threads, err := client.Discussions(context.Background(), MRRef{Project: "acme/app", IID: 42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(threads) != 3 {
		t.Fatalf("expected 3 threads, got %d", len(threads))
	}
	if !threads[0].Resolvable || threads[0].Resolved || len(threads[0].Notes) != 2 {
		t.Fatalf("unexpected first thread: %#v", threads[0])
	}
	if threads[0].Notes[1].AuthorID != 20 {
		t.Fatalf("expected last note by 20, got %d", threads[0].Notes[1].AuthorID)
	}
	if threads[1].Resolvable || !threads[1].IndividualNote || threads[1].Notes[0].Body != "approved this merge request" {
		t.Fatalf("unexpected individual note: %#v", threads[1])
	}
	if !threads[2].Resolvable || !threads[2].Resolved {
		t.Fatalf("expected resolved thread: %#v", threads[2])
	}
}

func TestDiffFiles(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/api/v4/projects/acme%2Fapp/merge_requests/42/diffs": `[
			{"old_path":"a.go","new_path":"a.go","diff":"@@ -1,2 +1,3 @@\n package a\n-var x = 1\n+var x = 2\n+var y = 3\n"},
			{"old_path":"b.po","new_path":"b.po","diff":"@@ -0,0 +1 @@\n+msgid \"\"\n"}
		]`,
	})
	files, err := client.DiffFiles(context.Background(), MRRef{Project: "acme/app", IID: 42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if files[0].Path != "a.go" || files[0].AddedLines != 2 || files[0].RemovedLines != 1 {
		t.Fatalf("unexpected file: %#v", files[0])
	}
}

func TestRelatedMergeRequests(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/api/v4/projects/acme%2Fapp/issues/7/related_merge_requests": `[
			{"iid":42,"state":"opened","title":"A","web_url":"https://gitlab.example.com/acme/app/-/merge_requests/42"},
			{"iid":43,"state":"merged","title":"B","web_url":"https://gitlab.example.com/acme/lib/-/merge_requests/43"}
		]`,
	})
	mrs, err := client.RelatedMergeRequests(context.Background(), IssueRef{Project: "acme/app", IID: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mrs) != 2 {
		t.Fatalf("expected 2 merge requests, got %d", len(mrs))
	}
	if mrs[1].Ref.Project != "acme/lib" || mrs[1].State != "merged" {
		t.Fatalf("unexpected merge request: %#v", mrs[1])
	}
}

func TestListMergeRequestsRespectsLimit(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/api/v4/merge_requests": `[
			{"iid":1,"state":"opened","web_url":"https://gitlab.example.com/acme/app/-/merge_requests/1"},
			{"iid":2,"state":"opened","web_url":"https://gitlab.example.com/acme/app/-/merge_requests/2"},
			{"iid":3,"state":"opened","web_url":"https://gitlab.example.com/acme/app/-/merge_requests/3"}
		]`,
	})
	mrs, err := client.ListMergeRequests(context.Background(), ListOptions{Mode: ListModeReview, Username: "me", Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mrs) != 2 || mrs[1].Ref.IID != 2 {
		t.Fatalf("unexpected merge requests: %#v", mrs)
	}

	if _, err := client.ListMergeRequests(context.Background(), ListOptions{Mode: ListModeReview, Limit: 2}); err == nil {
		t.Fatalf("expected error without username")
	}
}

func TestListMergeRequestsUsesFullReference(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/api/v4/merge_requests": `[
			{"iid":42,"state":"opened","web_url":"https://example.com/gitlab/acme/app/-/merge_requests/42","references":{"short":"!42","full":"acme/app!42"}},
			{"iid":7,"state":"opened","web_url":"https://gitlab.example.com/acme/lib/-/merge_requests/7"}
		]`,
	})
	mrs, err := client.ListMergeRequests(context.Background(), ListOptions{Mode: ListModeMine, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mrs) != 2 {
		t.Fatalf("expected 2 merge requests, got %d", len(mrs))
	}
	if got := mrs[0].Ref.String(); got != "acme/app!42" {
		t.Fatalf("expected ref from references.full, got %s", got)
	}
	if got := mrs[1].Ref.String(); got != "acme/lib!7" {
		t.Fatalf("expected ref from web url, got %s", got)
	}
}

func TestFixtureTransport(t *testing.T) {
	_, file, _, _ := runtime.Caller(0)
	root := filepath.Clean(filepath.Join(filepath.Dir(file), "..", "..", "testdata", "gitlab"))
	client, err := NewClient("https://gitlab.example.com", "mock", &http.Client{Transport: NewFixtureTransport(root)})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	viewer, err := client.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if viewer.Username != "me" {
		t.Fatalf("unexpected viewer: %#v", viewer)
	}
	if _, err := client.MergeRequest(context.Background(), MRRef{Project: "acme/missing", IID: 1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

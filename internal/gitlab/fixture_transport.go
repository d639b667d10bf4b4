package gitlab

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FixtureTransport serves recorded API responses from a directory. A request
// for /api/v4/projects/acme%2Fapp/merge_requests/42 reads
// projects_acme_app_merge_requests_42.json; a missing file is a 404.
type FixtureTransport struct {
	Root string
}

func NewFixtureTransport(root string) FixtureTransport {
	return FixtureTransport{Root: root}
}

func (f FixtureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	data, err := os.ReadFile(filepath.Join(f.Root, fixtureName(req.URL)))
	if err != nil {
		if os.IsNotExist(err) {
			return response(req, http.StatusNotFound, []byte(`{"message":"404 Not Found"}`)), nil
		}
		return nil, err
	}
	return response(req, http.StatusOK, data), nil
}

func fixtureName(u *url.URL) string {
	path := strings.TrimPrefix(u.EscapedPath(), "/")
	path = strings.TrimPrefix(path, "api/v4/")
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	return strings.ReplaceAll(strings.Trim(path, "/"), "/", "_") + ".json"
}

func response(req *http.Request, status int, body []byte) *http.Response {
	return &http.Response{
		StatusCode:    status,
		Status:        http.StatusText(status),
		Header:        http.Header{"Content-Type": []string{"application/json"}},
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}

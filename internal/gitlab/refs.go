package gitlab

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var ErrInvalidRef = errors.New("invalid reference")

// MRRef identifies a merge request by project path and project-scoped IID.
type MRRef struct {
	Project string `json:"project"`
	IID     int64  `json:"iid"`
}

func (r MRRef) String() string {
	return fmt.Sprintf("%s!%d", r.Project, r.IID)
}

type IssueRef struct {
	Project string `json:"project"`
	IID     int64  `json:"iid"`
}

func (r IssueRef) String() string {
	return fmt.Sprintf("%s#%d", r.Project, r.IID)
}

var (
	mrRefRe    = regexp.MustCompile(`^([^!\s]+/[^!\s]+)!([0-9]+)$`)
	issueRefRe = regexp.MustCompile(`^([^#\s]+/[^#\s]+)#([0-9]+)$`)
)

// ParseMR accepts a merge request web URL or a group/project!IID reference.
func ParseMR(ref string) (MRRef, error) {
	project, iid, err := parseRef(ref, "merge_requests", mrRefRe)
	if err != nil {
		return MRRef{}, err
	}
	return MRRef{Project: project, IID: iid}, nil
}

// ParseIssue accepts an issue web URL or a group/project#IID reference.
func ParseIssue(ref string) (IssueRef, error) {
	project, iid, err := parseRef(ref, "issues", issueRefRe)
	if err != nil {
		return IssueRef{}, err
	}
	return IssueRef{Project: project, IID: iid}, nil
}

func parseRef(ref string, kind string, shortRe *regexp.Regexp) (string, int64, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return parseWebURL(ref, kind)
	}
	matches := shortRe.FindStringSubmatch(ref)
	if len(matches) != 3 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	iid, err := strconv.ParseInt(matches[2], 10, 64)
	if err != nil || iid <= 0 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return matches[1], iid, nil
}

func parseWebURL(ref string, kind string) (string, int64, error) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i, part := range parts {
		if part != kind || i+1 >= len(parts) {
			continue
		}
		project := parts[:i]
		if len(project) > 0 && project[len(project)-1] == "-" {
			project = project[:len(project)-1]
		}
		iid, err := strconv.ParseInt(parts[i+1], 10, 64)
		if err != nil || iid <= 0 || len(project) < 2 {
			break
		}
		return strings.Join(project, "/"), iid, nil
	}
	return "", 0, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
}

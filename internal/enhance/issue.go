package enhance

import (
	"context"
	"fmt"

	"github.com/brianndofor/mrq/internal/gitlab"
)

type IssueResult struct {
	Ref gitlab.IssueRef `json:"ref"`
	// Available is false when the related merge requests could not be
	// fetched.
	Available     bool            `json:"available"`
	Opened        int             `json:"opened"`
	Total         int             `json:"total"`
	MergeRequests []RelatedResult `json:"merge_requests,omitempty"`
}

// Label is the count of merge requests no longer open over the total.
func (r IssueResult) Label() string {
	if r.Total == 0 {
		return "-/-"
	}
	return fmt.Sprintf("%d/%d", r.Total-r.Opened, r.Total)
}

type RelatedResult struct {
	MergeRequest gitlab.MergeRequest `json:"merge_request"`
	// Project is set for merged merge requests.
	Project string `json:"project,omitempty"`
	// Result is set for opened merge requests.
	Result *Result `json:"result,omitempty"`
}

func (s *Service) Issue(ctx context.Context, ref gitlab.IssueRef, details bool) IssueResult {
	result := IssueResult{Ref: ref}
	mrs, err := s.api.RelatedMergeRequests(ctx, ref)
	if err != nil {
		s.degrade(ref.String(), "related_merge_requests", err)
		return result
	}
	result.Available = true
	result.Total = len(mrs)

	var opened []gitlab.MergeRequest
	for _, mr := range mrs {
		if mr.State == "opened" {
			result.Opened++
			opened = append(opened, mr)
		}
	}
	if !details {
		return result
	}

	enhanced := s.ListedAll(ctx, opened)
	next := 0
	for _, mr := range mrs {
		related := RelatedResult{MergeRequest: mr}
		switch mr.State {
		case "opened":
			related.Result = &enhanced[next]
			next++
		case "merged":
			related.Project = mr.Ref.Project
		}
		result.MergeRequests = append(result.MergeRequests, related)
	}
	return result
}

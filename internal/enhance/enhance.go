// Package enhance runs the per merge request enhancement tasks: thread
// badges, review classification and diff summaries. Every task degrades on
// failure instead of returning an error.
package enhance

import (
	"context"
	"errors"

	"github.com/brianndofor/mrq/internal/diff"
	"github.com/brianndofor/mrq/internal/discussion"
	"github.com/brianndofor/mrq/internal/gitlab"
	"github.com/brianndofor/mrq/internal/review"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 4

type API interface {
	MergeRequest(ctx context.Context, ref gitlab.MRRef) (gitlab.MergeRequest, error)
	Discussions(ctx context.Context, ref gitlab.MRRef) ([]discussion.Thread, error)
	DiffFiles(ctx context.Context, ref gitlab.MRRef) ([]diff.ChangedFile, error)
	RelatedMergeRequests(ctx context.Context, ref gitlab.IssueRef) ([]gitlab.MergeRequest, error)
}

type ViewerResolver interface {
	Resolve(ctx context.Context) (review.Viewer, bool)
}

type Service struct {
	api         API
	viewer      ViewerResolver
	summarizer  *diff.Summarizer
	concurrency int
	log         zerolog.Logger
}

type Options struct {
	Concurrency int
	Summarizer  *diff.Summarizer
	Log         zerolog.Logger
}

func NewService(api API, viewer ViewerResolver, opts Options) *Service {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Summarizer == nil {
		opts.Summarizer = diff.Default()
	}
	return &Service{
		api:         api,
		viewer:      viewer,
		summarizer:  opts.Summarizer,
		concurrency: opts.Concurrency,
		log:         opts.Log,
	}
}

type Result struct {
	Ref          gitlab.MRRef         `json:"ref"`
	MergeRequest *gitlab.MergeRequest `json:"merge_request,omitempty"`
	Badge        discussion.Badge     `json:"badge"`
	Action       *review.Action       `json:"action,omitempty"`
	Diff         *diff.Summary        `json:"diff,omitempty"`

	Threads []discussion.Thread `json:"-"`
	Viewer  review.Viewer       `json:"-"`
}

// Title falls back to the reference when the detail fetch failed.
func (r Result) Title() string {
	if r.MergeRequest != nil && r.MergeRequest.Title != "" {
		return r.MergeRequest.Title
	}
	return r.Ref.String()
}

// MergeRequest fetches the merge request detail and enhances it.
func (s *Service) MergeRequest(ctx context.Context, ref gitlab.MRRef) Result {
	return s.enhance(ctx, ref, func(ctx context.Context) (*gitlab.MergeRequest, error) {
		mr, err := s.api.MergeRequest(ctx, ref)
		if err != nil {
			return nil, err
		}
		return &mr, nil
	})
}

// Listed enhances a merge request whose detail is already known, as it is
// for queue entries.
func (s *Service) Listed(ctx context.Context, mr gitlab.MergeRequest) Result {
	return s.enhance(ctx, mr.Ref, func(context.Context) (*gitlab.MergeRequest, error) {
		return &mr, nil
	})
}

func (s *Service) MergeRequests(ctx context.Context, refs []gitlab.MRRef) []Result {
	return runAll(ctx, s.concurrency, refs, s.MergeRequest)
}

func (s *Service) ListedAll(ctx context.Context, mrs []gitlab.MergeRequest) []Result {
	return runAll(ctx, s.concurrency, mrs, s.Listed)
}

func (s *Service) enhance(ctx context.Context, ref gitlab.MRRef, detail func(context.Context) (*gitlab.MergeRequest, error)) Result {
	result := Result{Ref: ref}

	threads, err := s.api.Discussions(ctx, ref)
	if err != nil {
		s.degrade(ref.String(), "discussions", err)
		threads = nil
	}
	result.Threads = threads
	counts := discussion.Aggregate(threads)
	result.Badge = discussion.SelectBadge(counts)

	mr, err := detail(ctx)
	if err != nil {
		s.degrade(ref.String(), "merge_request", err)
	}
	result.MergeRequest = mr

	if mr != nil && err == nil {
		if viewer, ok := s.viewer.Resolve(ctx); ok {
			result.Viewer = viewer
			if action, ok := review.Classify(threads, counts, mr.Unit, viewer); ok {
				if action.Clamped {
					s.log.Warn().Str("ref", ref.String()).
						Int("resolvable", counts.Resolvable).
						Int("resolved", counts.Resolved).
						Msg("other unresolved count clamped at zero")
				}
				result.Action = &action
			}
		}
	}

	files, err := s.api.DiffFiles(ctx, ref)
	if err != nil {
		s.degrade(ref.String(), "diff", err)
	} else {
		summary := s.summarizer.Summarize(files)
		result.Diff = &summary
	}
	return result
}

func (s *Service) degrade(ref string, source string, err error) {
	event := s.log.Warn()
	if errors.Is(err, gitlab.ErrNotFound) {
		event = s.log.Debug()
	}
	event.Str("ref", ref).Str("source", source).Err(err).Msg("enhancement degraded")
}

// runAll runs fn for every item with bounded concurrency. Results keep the
// input order.
func runAll[T any](ctx context.Context, limit int, items []T, fn func(context.Context, T) Result) []Result {
	results := make([]Result, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, item := range items {
		g.Go(func() error {
			results[i] = fn(gctx, item)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

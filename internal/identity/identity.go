// Package identity resolves the viewer once per process and shares the
// lookup between concurrent tasks.
package identity

import (
	"context"
	"sync"

	"github.com/brianndofor/mrq/internal/review"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

type Source interface {
	CurrentUser(ctx context.Context) (review.Viewer, error)
}

type Resolver struct {
	source Source
	log    zerolog.Logger
	group  singleflight.Group

	mu     sync.RWMutex
	viewer *review.Viewer
}

func NewResolver(source Source, log zerolog.Logger) *Resolver {
	return &Resolver{source: source, log: log}
}

// Resolve returns the cached viewer or fetches it. Concurrent callers share
// one request. Failures are not cached, so a later call retries.
func (r *Resolver) Resolve(ctx context.Context) (review.Viewer, bool) {
	if viewer, ok := r.cached(); ok {
		return viewer, true
	}

	ch := r.group.DoChan("viewer", func() (any, error) {
		if viewer, ok := r.cached(); ok {
			return viewer, nil
		}
		// The shared fetch must outlive any single caller's cancellation.
		viewer, err := r.source.CurrentUser(context.WithoutCancel(ctx))
		if err != nil {
			return review.Viewer{}, err
		}
		r.mu.Lock()
		r.viewer = &viewer
		r.mu.Unlock()
		return viewer, nil
	})

	select {
	case <-ctx.Done():
		return review.Viewer{}, false
	case res := <-ch:
		if res.Err != nil {
			r.log.Warn().Err(res.Err).Msg("viewer identity unavailable")
			return review.Viewer{}, false
		}
		viewer := res.Val.(review.Viewer)
		return viewer, viewer.Known()
	}
}

func (r *Resolver) cached() (review.Viewer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.viewer == nil {
		return review.Viewer{}, false
	}
	return *r.viewer, true
}

// Package observe polls for items of interest and hands each new one to a
// callback, the way a page watcher waits for elements to appear.
package observe

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const DefaultInterval = 300 * time.Millisecond

type Options struct {
	Interval time.Duration
	// WaitOnce stops watching after the first round that found anything.
	WaitOnce bool
	// MaxIntervals bounds the number of rounds after the first one. Negative
	// means unlimited.
	MaxIntervals int
	Log          zerolog.Logger
}

func DefaultOptions() Options {
	return Options{Interval: DefaultInterval, WaitOnce: true, MaxIntervals: -1, Log: zerolog.Nop()}
}

// FindFunc returns the current candidates.
type FindFunc[T any] func(ctx context.Context) ([]T, error)

// HandleFunc processes one candidate. Returning true keeps the candidate
// unmarked so it is handled again on the next round.
type HandleFunc[T any] func(ctx context.Context, item T) (keepWatching bool)

// Watch runs until the context is cancelled, the round budget is spent, or
// WaitOnce is satisfied. Items are deduplicated by key; a find error is
// logged and the round counts as empty.
func Watch[T any](ctx context.Context, opts Options, find FindFunc[T], key func(T) string, handle HandleFunc[T]) error {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	seen := map[string]bool{}
	remaining := opts.MaxIntervals

	for {
		found := round(ctx, opts, find, key, handle, seen)
		if err := ctx.Err(); err != nil {
			return err
		}
		if found && opts.WaitOnce {
			return nil
		}
		if remaining == 0 {
			return nil
		}
		remaining--

		timer := time.NewTimer(opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func round[T any](ctx context.Context, opts Options, find FindFunc[T], key func(T) string, handle HandleFunc[T], seen map[string]bool) bool {
	items, err := find(ctx)
	if err != nil {
		opts.Log.Warn().Err(err).Msg("observe: find failed")
		return false
	}
	found := len(items) > 0
	for _, item := range items {
		k := key(item)
		if seen[k] {
			continue
		}
		if handle(ctx, item) {
			found = false
			continue
		}
		seen[k] = true
	}
	return found
}

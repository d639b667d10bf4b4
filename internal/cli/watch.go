package cli

import (
	"context"
	"errors"
	"time"

	"github.com/brianndofor/mrq/internal/enhance"
	"github.com/brianndofor/mrq/internal/gitlab"
	"github.com/brianndofor/mrq/internal/observe"
	"github.com/brianndofor/mrq/internal/render"
	"github.com/spf13/cobra"
)

func NewWatchCmd() *cobra.Command {
	var opts queueOptions
	var once bool
	var maxIntervals int
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the queue and show merge requests as they appear or change",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			opts = opts.withDefaults(app)

			watchOpts := observe.Options{
				Interval:     app.Config.Watch.Interval,
				WaitOnce:     once,
				MaxIntervals: app.Config.Watch.MaxIntervals,
				Log:          app.Log,
			}
			if cmd.Flags().Changed("interval") {
				watchOpts.Interval = interval
			}
			if cmd.Flags().Changed("max-intervals") {
				watchOpts.MaxIntervals = maxIntervals
			}

			out := cmd.OutOrStdout()
			r := render.New(out)
			find := func(ctx context.Context) ([]gitlab.MergeRequest, error) {
				return listQueue(ctx, app, opts)
			}
			handle := func(ctx context.Context, mr gitlab.MergeRequest) bool {
				items := buildQueueItems([]enhance.Result{app.Enhancer.Listed(ctx, mr)}, now())
				if err := printQueueItem(out, r, items[0]); err != nil {
					app.Log.Warn().Err(err).Str("ref", mr.Ref.String()).Msg("render failed")
					return true
				}
				return false
			}

			err = observe.Watch[gitlab.MergeRequest](cmd.Context(), watchOpts, find, watchKey, handle)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	opts.bind(cmd)
	cmd.Flags().BoolVar(&once, "once", false, "Stop after the first round that found merge requests")
	cmd.Flags().IntVar(&maxIntervals, "max-intervals", -1, "Rounds after the first one; negative is unlimited")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Polling interval")
	return cmd
}

// watchKey changes whenever the merge request is updated, so updates are
// shown again.
func watchKey(mr gitlab.MergeRequest) string {
	return mr.Ref.String() + "@" + mr.UpdatedAt.UTC().Format(time.RFC3339)
}

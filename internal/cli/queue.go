package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/brianndofor/mrq/internal/enhance"
	"github.com/brianndofor/mrq/internal/gitlab"
	"github.com/brianndofor/mrq/internal/render"
	"github.com/spf13/cobra"
)

type QueueItem struct {
	enhance.Result
	AgeDays     int `json:"age_days"`
	UpdatedDays int `json:"updated_days"`
}

type queueOptions struct {
	mode    string
	project string
	limit   int
	sortBy  string
}

func (o *queueOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.mode, "mode", "", "Queue: review|mine|assigned")
	cmd.Flags().StringVar(&o.project, "project", "", "Only merge requests of this group/project")
	cmd.Flags().IntVar(&o.limit, "limit", 0, "Max results")
	cmd.Flags().StringVar(&o.sortBy, "sort", "", "Sort: oldest|updated|size|attention")
}

func (o queueOptions) withDefaults(app *App) queueOptions {
	if o.mode == "" {
		o.mode = app.Config.Queue.DefaultMode
	}
	if o.limit == 0 {
		o.limit = app.Config.Queue.DefaultLimit
	}
	if o.sortBy == "" {
		o.sortBy = app.Config.Queue.DefaultSort
	}
	return o
}

func NewQueueCmd() *cobra.Command {
	var opts queueOptions
	var jsonOut bool
	var tui bool

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List open merge requests waiting on you",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			if tui {
				if jsonOut {
					return fmt.Errorf("--json is not supported with --tui")
				}
				return runPicker(cmd, app, opts)
			}

			opts = opts.withDefaults(app)
			queue, err := loadQueue(cmd.Context(), app, opts)
			if err != nil {
				return err
			}
			if jsonOut {
				return printQueueJSON(cmd, queue, opts.limit)
			}
			return printQueueText(cmd, queue, opts.limit)
		},
	}

	opts.bind(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	cmd.Flags().BoolVar(&tui, "tui", false, "Open TUI picker")
	return cmd
}

// listQueue fetches the queue entries without enhancing them.
func listQueue(ctx context.Context, app *App, opts queueOptions) ([]gitlab.MergeRequest, error) {
	mode, err := parseMode(opts.mode)
	if err != nil {
		return nil, err
	}
	list := gitlab.ListOptions{Mode: mode, Project: opts.project, Limit: opts.limit}
	list.OrderBy, list.Sort = mapSort(opts.sortBy)
	if mode == gitlab.ListModeReview {
		viewer, ok := app.Identity.Resolve(ctx)
		if !ok {
			return nil, fmt.Errorf("could not resolve the current GitLab user; run mrq doctor")
		}
		list.Username = viewer.Username
	}
	return app.GitLab.ListMergeRequests(ctx, list)
}

func loadQueue(ctx context.Context, app *App, opts queueOptions) ([]QueueItem, error) {
	mrs, err := listQueue(ctx, app, opts)
	if err != nil {
		return nil, err
	}
	queue := buildQueueItems(app.Enhancer.ListedAll(ctx, mrs), now())
	sortQueue(queue, opts.sortBy)
	return queue, nil
}

func parseMode(mode string) (gitlab.ListMode, error) {
	switch gitlab.ListMode(mode) {
	case gitlab.ListModeReview, gitlab.ListModeMine, gitlab.ListModeAssigned:
		return gitlab.ListMode(mode), nil
	default:
		return "", fmt.Errorf("unknown mode %q: expected review|mine|assigned", mode)
	}
}

func mapSort(sortBy string) (string, string) {
	switch sortBy {
	case "updated":
		return "updated_at", "asc"
	default:
		return "created_at", "asc"
	}
}

func buildQueueItems(results []enhance.Result, at time.Time) []QueueItem {
	queue := make([]QueueItem, 0, len(results))
	for _, result := range results {
		item := QueueItem{Result: result}
		if mr := result.MergeRequest; mr != nil {
			item.AgeDays = days(at, mr.CreatedAt)
			item.UpdatedDays = days(at, mr.UpdatedAt)
		}
		queue = append(queue, item)
	}
	return queue
}

func days(at, t time.Time) int {
	if t.IsZero() {
		return 0
	}
	return int(at.Sub(t).Hours() / 24)
}

func sortQueue(queue []QueueItem, sortBy string) {
	switch sortBy {
	case "updated":
		sort.SliceStable(queue, func(i, j int) bool {
			return updatedAt(queue[i]).Before(updatedAt(queue[j]))
		})
	case "size":
		sort.SliceStable(queue, func(i, j int) bool {
			return size(queue[i]) > size(queue[j])
		})
	case "attention":
		sort.SliceStable(queue, func(i, j int) bool {
			if a, b := attention(queue[i]), attention(queue[j]); a != b {
				return a > b
			}
			return createdAt(queue[i]).Before(createdAt(queue[j]))
		})
	default:
		sort.SliceStable(queue, func(i, j int) bool {
			return createdAt(queue[i]).Before(createdAt(queue[j]))
		})
	}
}

func createdAt(item QueueItem) time.Time {
	if item.MergeRequest == nil {
		return time.Time{}
	}
	return item.MergeRequest.CreatedAt
}

func updatedAt(item QueueItem) time.Time {
	if item.MergeRequest == nil {
		return time.Time{}
	}
	return item.MergeRequest.UpdatedAt
}

func size(item QueueItem) int {
	if item.Diff == nil {
		return 0
	}
	return item.Diff.AddedLineCount + item.Diff.DeleteLineCount
}

// attention counts what the viewer owes: replies, plus one for a pending
// review.
func attention(item QueueItem) int {
	if item.Action == nil {
		return 0
	}
	score := item.Action.WaitForOurs
	if item.Action.NeedsReview {
		score++
	}
	return score
}

func printQueueText(cmd *cobra.Command, queue []QueueItem, limit int) error {
	out := cmd.OutOrStdout()
	if len(queue) == 0 {
		fmt.Fprintln(out, "No merge requests found.")
		return nil
	}
	r := render.New(out)
	for _, item := range queue {
		if err := printQueueItem(out, r, item); err != nil {
			return err
		}
	}
	if len(queue) >= limit {
		fmt.Fprintf(out, "Showing first %d results. Refine with --project or raise --limit.\n", limit)
	}
	return nil
}

func printQueueItem(out io.Writer, r *render.Renderer, item QueueItem) error {
	if err := r.Result(item.Result); err != nil {
		return err
	}
	if mr := item.MergeRequest; mr != nil {
		fmt.Fprintf(out, "  Author: %s  Age: %dd  Updated: %dd  Draft: %v\n", mr.Author, item.AgeDays, item.UpdatedDays, mr.Draft)
		fmt.Fprintf(out, "  URL: %s\n", mr.WebURL)
	}
	return nil
}

func printQueueJSON(cmd *cobra.Command, queue []QueueItem, limit int) error {
	payload := map[string]any{
		"items": queue,
		"limit": limit,
	}
	if len(queue) == 0 {
		payload["message"] = "No merge requests found."
	}
	return render.JSON(cmd.OutOrStdout(), payload)
}

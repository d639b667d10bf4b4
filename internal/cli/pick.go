package cli

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

func NewPickCmd() *cobra.Command {
	var opts queueOptions

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Interactive picker over the merge request queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			return runPicker(cmd, app, opts)
		},
	}

	opts.bind(cmd)
	return cmd
}

func runPicker(cmd *cobra.Command, app *App, opts queueOptions) error {
	if !app.Config.TUI.Enabled {
		return fmt.Errorf("tui picker is disabled in config")
	}
	opts = opts.withDefaults(app)
	queue, err := loadQueue(cmd.Context(), app, opts)
	if err != nil {
		return err
	}
	if len(queue) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No merge requests found.")
		return nil
	}

	result, err := runPickTUI(queue)
	if err != nil {
		return err
	}
	if result.Action == "" {
		return nil
	}
	return runPickAction(cmd, app, result.Item, result.Action)
}

func runPickAction(cmd *cobra.Command, app *App, item QueueItem, action string) error {
	ref := item.Ref.String()
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "q", "quit":
		return nil
	case "o", "open":
		url := ""
		if item.MergeRequest != nil {
			url = item.MergeRequest.WebURL
		}
		return openBrowser(cmd, app, url)
	case "s", "status":
		return runSubcommand(cmd, NewStatusCmd(), ref)
	case "t", "threads":
		return runSubcommand(cmd, NewThreadsCmd(), ref)
	default:
		return fmt.Errorf("unknown action: %s", action)
	}
}

func openBrowser(cmd *cobra.Command, app *App, url string) error {
	if url == "" {
		return fmt.Errorf("merge request has no web URL")
	}
	fields := strings.Fields(app.Config.Browser.Command)
	if len(fields) == 0 {
		fields = []string{defaultBrowser()}
	}
	args := append(fields[1:], url)
	if _, err := app.Exec.Run(cmd.Context(), "", fields[0], args...); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Opened %s\n", url)
	return nil
}

func defaultBrowser() string {
	if runtime.GOOS == "darwin" {
		return "open"
	}
	return "xdg-open"
}

func runSubcommand(parent *cobra.Command, sub *cobra.Command, args ...string) error {
	sub.SetContext(parent.Context())
	sub.SetOut(parent.OutOrStdout())
	sub.SetErr(parent.ErrOrStderr())
	sub.SetArgs(args)
	return sub.Execute()
}

package cli

import (
	"github.com/brianndofor/mrq/internal/gitlab"
	"github.com/brianndofor/mrq/internal/redact"
	"github.com/brianndofor/mrq/internal/render"
	"github.com/spf13/cobra"
)

func NewThreadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threads <mr-url|group/project!IID>",
		Short: "Show unresolved threads and who owes the next reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			ref, err := gitlab.ParseMR(args[0])
			if err != nil {
				return err
			}

			result := app.Enhancer.MergeRequest(cmd.Context(), ref)
			return render.New(cmd.OutOrStdout()).Threads(result, redact.Optional(app.Config.Redaction.Enabled))
		},
	}

	return cmd
}

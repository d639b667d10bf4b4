package cli

import (
	"github.com/brianndofor/mrq/internal/gitlab"
	"github.com/brianndofor/mrq/internal/render"
	"github.com/spf13/cobra"
)

func NewIssueCmd() *cobra.Command {
	var details bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "issue <issue-url|group/project#IID>",
		Short: "Summarise the merge requests related to an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			ref, err := gitlab.ParseIssue(args[0])
			if err != nil {
				return err
			}

			result := app.Enhancer.Issue(cmd.Context(), ref, details)
			if jsonOut {
				return render.JSON(cmd.OutOrStdout(), result)
			}
			return render.New(cmd.OutOrStdout()).Issue(result)
		},
	}

	cmd.Flags().BoolVar(&details, "details", false, "Enhance each open merge request")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

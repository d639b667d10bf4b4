package cli

import (
	"github.com/brianndofor/mrq/internal/gitlab"
	"github.com/brianndofor/mrq/internal/render"
	"github.com/spf13/cobra"
)

func NewStatusCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status <mr-url|group/project!IID>...",
		Short: "Show thread, review and diff badges for merge requests",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			refs, err := parseMRRefs(args)
			if err != nil {
				return err
			}

			results := app.Enhancer.MergeRequests(cmd.Context(), refs)
			if jsonOut {
				return render.JSON(cmd.OutOrStdout(), map[string]any{"items": results})
			}
			return render.New(cmd.OutOrStdout()).Results(results)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func parseMRRefs(args []string) ([]gitlab.MRRef, error) {
	refs := make([]gitlab.MRRef, 0, len(args))
	for _, arg := range args {
		ref, err := gitlab.ParseMR(arg)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

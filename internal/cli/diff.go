package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/brianndofor/mrq/internal/diff"
	"github.com/brianndofor/mrq/internal/render"
	"github.com/spf13/cobra"
)

func NewDiffCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "diff [file|-]",
		Short: "Summarize a local unified diff with the configured exclusions",
		Long:  "Reads the output of git diff from a file or stdin and prints the same diff badge mrq shows for merge requests.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			input, err := readDiffInput(cmd, args)
			if err != nil {
				return err
			}

			files := diff.ChangedFiles(diff.ParseUnified(input))
			summarizer := app.Summarizer
			if summarizer == nil {
				summarizer = diff.Default()
			}
			summary := summarizer.Summarize(files)
			if jsonOut {
				return render.JSON(cmd.OutOrStdout(), map[string]any{
					"summary": summary,
					"files":   files,
				})
			}
			return render.New(cmd.OutOrStdout()).Diff(summary, files, summarizer.Excluded)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func readDiffInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read diff from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read diff: %w", err)
	}
	return string(data), nil
}

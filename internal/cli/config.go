package cli

import (
	"github.com/brianndofor/mrq/internal/config"
	"github.com/brianndofor/mrq/internal/render"
	"github.com/spf13/cobra"
)

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print merged configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			user := app.Config
			user.GitLab.Token = config.MaskToken(user.GitLab.Token)
			payload := map[string]any{
				"user": user,
				"repo": app.RepoConfig,
			}
			return render.JSON(cmd.OutOrStdout(), payload)
		},
	}
	return cmd
}

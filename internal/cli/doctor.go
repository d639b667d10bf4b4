package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func NewDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and GitLab access",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "mrq doctor")
			fmt.Fprintf(out, "- gitlab: %s\n", app.Config.GitLab.BaseURL)
			if app.Config.GitLab.Token == "" {
				return fmt.Errorf("no GitLab token: set gitlab.token, MRQ_GITLAB_TOKEN or GITLAB_TOKEN")
			}
			fmt.Fprintln(out, "- token: ok")

			viewer, err := app.GitLab.CurrentUser(ctx)
			if err != nil {
				return fmt.Errorf("token check failed: %w", err)
			}
			fmt.Fprintf(out, "- user: %s (id %d)\n", viewer.Username, viewer.ID)
			fmt.Fprintln(out, "doctor checks passed")
			return nil
		},
	}
	return cmd
}

package cli

import "github.com/spf13/cobra"

func NewRootCmd() *cobra.Command {
	var configPath string
	var debug bool

	root := &cobra.Command{
		Use:           "mrq",
		Short:         "Merge request review queue for GitLab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app, err := initApp(configPath, debug)
			if err != nil {
				return err
			}
			cmd.SetContext(withApp(cmd.Context(), app))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Override config path")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Log at debug level")

	root.AddCommand(NewStatusCmd())
	root.AddCommand(NewQueueCmd())
	root.AddCommand(NewPickCmd())
	root.AddCommand(NewThreadsCmd())
	root.AddCommand(NewDiffCmd())
	root.AddCommand(NewIssueCmd())
	root.AddCommand(NewWatchCmd())
	root.AddCommand(NewDoctorCmd())
	root.AddCommand(NewConfigCmd())

	return root
}

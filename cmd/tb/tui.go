package main

import (
	"github.com/spf13/cobra"

	"github.com/amonks/taskboard/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive terminal UI",
	Long: `Start the interactive terminal UI.

Logs are written to tb.log in the state directory while the UI runs.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run(cmd.Context(), tui.Options{
		APIURL:      resolveAPIURL(env.Config),
		Session:     env.Session,
		Logger:      env.Logger,
		QuietPeriod: env.Config.QuietPeriod(),
	})
}

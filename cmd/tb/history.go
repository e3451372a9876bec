package main

import (
	"github.com/spf13/cobra"

	"github.com/amonks/taskboard/api"
	"github.com/amonks/taskboard/internal/ui"
	"github.com/amonks/taskboard/store"
)

// systemName labels history entries with no responsible user.
const systemName = "System"

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show task change history",
}

var historyTaskCmd = &cobra.Command{
	Use:   "task <id>",
	Short: "Show the history of a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryTask,
}

var historyUserCmd = &cobra.Command{
	Use:   "user [id]",
	Short: "Show changes made by a user (default: current user)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistoryUser,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyTaskCmd, historyUserCmd)
}

func runHistoryTask(cmd *cobra.Command, args []string) error {
	if err := env.Stores.History.FetchTask(cmd.Context(), args[0]); err != nil {
		return err
	}
	return writeHistory(cmd, false)
}

func runHistoryUser(cmd *cobra.Command, args []string) error {
	explicit := ""
	if len(args) > 0 {
		explicit = args[0]
	}
	userID, err := userOrCurrent(cmd, explicit)
	if err != nil {
		return err
	}
	if err := env.Stores.History.FetchUser(cmd.Context(), userID); err != nil {
		return err
	}
	return writeHistory(cmd, true)
}

func writeHistory(cmd *cobra.Command, withTask bool) error {
	if err := env.Stores.Users.Fetch(cmd.Context()); err != nil {
		return err
	}
	logs := env.Stores.History.Items()
	return writeOutput(cmd.OutOrStdout(), logs, func() string {
		return formatHistoryTable(logs, env.Stores.Users, withTask)
	})
}

func formatHistoryTable(logs []api.HistoryLog, users *store.Users, withTask bool) string {
	if len(logs) == 0 {
		return "No history.\n"
	}
	headers := []string{"WHEN", "BY", "FIELD", "OLD", "NEW"}
	if withTask {
		headers = append(headers, "TASK")
	}
	builder := ui.NewTableBuilder(headers, len(logs))
	for _, log := range logs {
		row := []string{
			ui.FormatTimestamp(log.CreatedAt),
			actorName(log, users),
			log.FieldLabel(),
			historyValue(log.OldValue),
			historyValue(log.NewValue),
		}
		if withTask {
			row = append(row, log.TaskID)
		}
		builder.AddRow(row...)
	}
	return builder.String()
}

func actorName(log api.HistoryLog, users *store.Users) string {
	actor := log.Actor()
	if actor == api.SystemActor {
		return systemName
	}
	return users.Name(actor)
}

func historyValue(value *string) string {
	if value == nil || *value == "" {
		return "-"
	}
	return ui.TruncateTableCell(*value)
}

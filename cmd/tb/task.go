package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amonks/taskboard/api"
	"github.com/amonks/taskboard/currentuser"
	"github.com/amonks/taskboard/filter"
	"github.com/amonks/taskboard/internal/editor"
	"github.com/amonks/taskboard/internal/markdown"
	"github.com/amonks/taskboard/internal/ui"
	"github.com/amonks/taskboard/store"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks on a board",
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tasks of a board",
	Long: `List the tasks of a board.

--title and --description match case-insensitive substrings. A status of
"all" is the same as no status filter.`,
	Args: cobra.NoArgs,
	RunE: runTaskList,
}

var (
	taskListBoard       string
	taskListStatus      string
	taskListAssignee    string
	taskListTitle       string
	taskListDescription string
)

var taskShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a task with its comments and history",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskShowBoard string

var taskCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a task",
	Long: `Create a task.

Without field flags on a terminal, the task is written in $EDITOR.`,
	Args: cobra.NoArgs,
	RunE: runTaskCreate,
}

var (
	taskCreateBoard       string
	taskCreateTitle       string
	taskCreateStatus      string
	taskCreateDescription string
	taskCreateAssignee    string
	taskCreateEdit        bool
	taskCreateNoEdit      bool
)

var taskUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a task",
	Long: `Update a task.

Without field flags on a terminal, the task is opened in $EDITOR. Editing
needs --board to load the current values.`,
	Aliases: []string{"edit"},
	Args:    cobra.ExactArgs(1),
	RunE:    runTaskUpdate,
}

var (
	taskUpdateBoard       string
	taskUpdateTitle       string
	taskUpdateStatus      string
	taskUpdateDescription string
	taskUpdateAssignee    string
	taskUpdateEdit        bool
	taskUpdateNoEdit      bool
)

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDelete,
}

func init() {
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskListCmd, taskShowCmd, taskCreateCmd, taskUpdateCmd, taskDeleteCmd)
	addTaskFlagAliases(taskListCmd, taskCreateCmd, taskUpdateCmd)

	taskListCmd.Flags().StringVar(&taskListBoard, "board", "", "Board id (required)")
	taskListCmd.Flags().StringVar(&taskListStatus, "status", "", statusUsage("Filter by status", true))
	taskListCmd.Flags().StringVar(&taskListAssignee, "assignee", "", "Filter by assignee id")
	taskListCmd.Flags().StringVar(&taskListTitle, "title", "", "Filter by title substring")
	taskListCmd.Flags().StringVar(&taskListDescription, "description", "", "Filter by description substring")
	_ = taskListCmd.MarkFlagRequired("board")

	taskShowCmd.Flags().StringVar(&taskShowBoard, "board", "", "Board id (required)")
	_ = taskShowCmd.MarkFlagRequired("board")

	taskCreateCmd.Flags().StringVar(&taskCreateBoard, "board", "", "Board id (required)")
	taskCreateCmd.Flags().StringVar(&taskCreateTitle, "title", "", "Title")
	taskCreateCmd.Flags().StringVar(&taskCreateStatus, "status", string(api.StatusTodo), statusUsage("Status", false))
	taskCreateCmd.Flags().StringVarP(&taskCreateDescription, "description", "d", "", "Description (markdown)")
	taskCreateCmd.Flags().StringVar(&taskCreateAssignee, "assignee", "", "Assignee user id")
	addEditorFlags(taskCreateCmd, &taskCreateEdit, &taskCreateNoEdit)
	_ = taskCreateCmd.MarkFlagRequired("board")

	taskUpdateCmd.Flags().StringVar(&taskUpdateTitle, "title", "", "New title")
	taskUpdateCmd.Flags().StringVar(&taskUpdateStatus, "status", "", statusUsage("New status", false))
	taskUpdateCmd.Flags().StringVarP(&taskUpdateDescription, "description", "d", "", "New description (markdown)")
	taskUpdateCmd.Flags().StringVar(&taskUpdateAssignee, "assignee", "", "New assignee user id (empty to unassign)")
	taskUpdateCmd.Flags().StringVar(&taskUpdateBoard, "board", "", "Board of the task (needed with --edit)")
	addEditorFlags(taskUpdateCmd, &taskUpdateEdit, &taskUpdateNoEdit)
}

func statusUsage(prefix string, allowAll bool) string {
	values := make([]string, 0, 4)
	if allowAll {
		values = append(values, string(filter.StatusAll))
	}
	for _, status := range api.ValidStatuses() {
		values = append(values, string(status))
	}
	return fmt.Sprintf("%s (%s)", prefix, strings.Join(values, ", "))
}

func runTaskList(cmd *cobra.Command, args []string) error {
	query := api.TaskQuery{
		BoardID:     taskListBoard,
		AssigneeID:  taskListAssignee,
		Title:       taskListTitle,
		Description: taskListDescription,
	}
	if status := api.Status(taskListStatus); status != "" && status != filter.StatusAll {
		if err := api.ValidateStatus(status); err != nil {
			return err
		}
		query.Status = status
	}

	if err := env.Stores.Tasks.FetchFiltered(cmd.Context(), query); err != nil {
		return err
	}
	if err := env.Stores.Users.Fetch(cmd.Context()); err != nil {
		return err
	}
	tasks := env.Stores.Tasks.Items()

	return writeOutput(cmd.OutOrStdout(), tasks, func() string {
		return formatTaskTable(cmd.OutOrStdout(), tasks, env.Stores.Users)
	})
}

func formatTaskTable(w io.Writer, tasks []api.Task, users *store.Users) string {
	if len(tasks) == 0 {
		return "No tasks found.\n"
	}
	highlight := idHighlighter(w, tasks)
	builder := ui.NewTableBuilder([]string{"ID", "STATUS", "ASSIGNEE", "TITLE"}, len(tasks))
	for _, task := range tasks {
		builder.AddRow(
			highlight(task.ID),
			task.Status.Label(),
			assigneeName(task, users),
			ui.TruncateTableCell(task.Title),
		)
	}
	return builder.String()
}

func assigneeName(task api.Task, users *store.Users) string {
	if task.AssigneeID == "" {
		return "-"
	}
	return users.Name(task.AssigneeID)
}

type taskDetail struct {
	Task     api.Task         `json:"task" yaml:"task"`
	Comments []api.Comment    `json:"comments" yaml:"comments"`
	History  []api.HistoryLog `json:"history" yaml:"history"`
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	stores := env.Stores
	task, err := findBoardTask(cmd, taskShowBoard, args[0])
	if err != nil {
		return err
	}
	id := task.ID
	if err := stores.Users.Fetch(ctx); err != nil {
		return err
	}
	if err := stores.Comments.Fetch(ctx, id); err != nil {
		return err
	}
	if err := stores.History.FetchTask(ctx, id); err != nil {
		return err
	}

	detail := taskDetail{Task: task, Comments: stores.Comments.Items(), History: stores.History.Items()}
	return writeOutput(cmd.OutOrStdout(), detail, func() string {
		return formatTaskDetail(detail, stores.Users)
	})
}

const taskDetailLineWidth = 80

func formatTaskDetail(detail taskDetail, users *store.Users) string {
	var b strings.Builder
	task := detail.Task
	fmt.Fprintf(&b, "ID:       %s\n", task.ID)
	fmt.Fprintf(&b, "Title:    %s\n", task.Title)
	fmt.Fprintf(&b, "Status:   %s\n", task.Status.Label())
	fmt.Fprintf(&b, "Assignee: %s\n", assigneeName(task, users))

	description := markdown.SafeRender(taskDetailLineWidth, 2, task.Description)
	if description == "" {
		description = "  -"
	}
	fmt.Fprintf(&b, "\nDescription:\n%s\n", description)

	fmt.Fprintf(&b, "\nComments:\n")
	b.WriteString(formatCommentBlocks(detail.Comments, users))

	fmt.Fprintf(&b, "\nHistory:\n")
	b.WriteString(formatHistoryTable(detail.History, users, false))
	return b.String()
}

func runTaskCreate(cmd *cobra.Command, args []string) error {
	input := api.TaskInput{
		BoardID:     taskCreateBoard,
		Title:       taskCreateTitle,
		Status:      api.Status(taskCreateStatus),
		Description: taskCreateDescription,
		AssigneeID:  taskCreateAssignee,
	}
	if shouldUseEditor(taskFieldFlagsChanged(cmd), taskCreateEdit, taskCreateNoEdit, editor.IsInteractive()) {
		data := editor.DefaultCreateData()
		data.Title = input.Title
		data.Status = string(input.Status)
		data.AssigneeID = input.AssigneeID
		data.Description = input.Description
		parsed, err := editor.EditTask(data)
		if err != nil {
			return err
		}
		input = parsed.ToInput(taskCreateBoard)
	}
	input.ChangedByUserID = currentuser.FromContext(cmd.Context()).UserID()

	task, err := env.Stores.Tasks.Create(cmd.Context(), input)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), task, func() string {
		return fmt.Sprintf("Created task %s (%s)\n", task.ID, task.Title)
	})
}

func runTaskUpdate(cmd *cobra.Command, args []string) error {
	patch := api.TaskPatch{
		Title:       stringFlagPtr(cmd, "title", taskUpdateTitle),
		Description: stringFlagPtr(cmd, "description", taskUpdateDescription),
		AssigneeID:  stringFlagPtr(cmd, "assignee", taskUpdateAssignee),
	}
	if cmd.Flags().Changed("status") {
		patch.Status = api.StatusPtr(api.Status(taskUpdateStatus))
	}

	id := args[0]
	if shouldUseEditor(!patch.IsEmpty(), taskUpdateEdit, taskUpdateNoEdit, editor.IsInteractive()) {
		task, err := findBoardTask(cmd, taskUpdateBoard, id)
		if err != nil {
			return err
		}
		id = task.ID
		parsed, err := editor.EditTask(editor.DataFromTask(task))
		if err != nil {
			return err
		}
		patch = parsed.ToPatch(task)
		if patch.IsEmpty() {
			fmt.Fprintf(cmd.OutOrStdout(), "No changes to task %s\n", id)
			return nil
		}
	}
	if patch.IsEmpty() {
		return fmt.Errorf("%w: nothing to update (use --title, --description, --status or --assignee)", api.ErrInvalidInput)
	}
	patch.ChangedByUserID = currentuser.FromContext(cmd.Context()).UserID()

	if err := env.Stores.Tasks.Update(cmd.Context(), id, patch); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s\n", id)
	return nil
}

// taskFieldFlagsChanged reports whether any task field was given on the
// command line.
func taskFieldFlagsChanged(cmd *cobra.Command) bool {
	for _, name := range []string{"title", "description", "status", "assignee"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// findBoardTask loads the tasks of boardID and resolves arg among them.
func findBoardTask(cmd *cobra.Command, boardID, arg string) (api.Task, error) {
	if boardID == "" {
		return api.Task{}, errEditNeedsBoard
	}
	tasks := env.Stores.Tasks
	if err := tasks.FetchBoard(cmd.Context(), boardID); err != nil {
		return api.Task{}, err
	}
	id, err := expandID(tasks.Items(), arg)
	if err != nil {
		return api.Task{}, err
	}
	task, ok := tasks.Lookup(id)
	if !ok {
		return api.Task{}, fmt.Errorf("task not found on board %s: %s", boardID, arg)
	}
	return task, nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	if err := env.Stores.Tasks.Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", id)
	return nil
}

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"github.com/amonks/taskboard/api"
	"github.com/amonks/taskboard/internal/ui"
	"github.com/amonks/taskboard/store"
)

var errNotAuthor = errors.New("only the author can change a comment")

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Manage task comments",
}

var commentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the comments on a task",
	Args:  cobra.NoArgs,
	RunE:  runCommentList,
}

var commentListTask string

var commentAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Comment on a task as the current user",
	Args:  cobra.NoArgs,
	RunE:  runCommentAdd,
}

var (
	commentAddTask string
	commentAddText string
)

var commentEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit one of your comments",
	Args:  cobra.ExactArgs(1),
	RunE:  runCommentEdit,
}

var (
	commentEditTask string
	commentEditText string
)

var commentDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one of your comments",
	Args:  cobra.ExactArgs(1),
	RunE:  runCommentDelete,
}

var commentDeleteTask string

func init() {
	rootCmd.AddCommand(commentCmd)
	commentCmd.AddCommand(commentListCmd, commentAddCmd, commentEditCmd, commentDeleteCmd)

	commentListCmd.Flags().StringVar(&commentListTask, "task", "", "Task id (required)")
	_ = commentListCmd.MarkFlagRequired("task")

	commentAddCmd.Flags().StringVar(&commentAddTask, "task", "", "Task id (required)")
	commentAddCmd.Flags().StringVar(&commentAddText, "text", "", "Comment text")
	_ = commentAddCmd.MarkFlagRequired("task")

	commentEditCmd.Flags().StringVar(&commentEditTask, "task", "", "Task the comment belongs to (required)")
	commentEditCmd.Flags().StringVar(&commentEditText, "text", "", "New comment text")
	_ = commentEditCmd.MarkFlagRequired("task")

	commentDeleteCmd.Flags().StringVar(&commentDeleteTask, "task", "", "Task the comment belongs to (required)")
	_ = commentDeleteCmd.MarkFlagRequired("task")
}

func runCommentList(cmd *cobra.Command, args []string) error {
	if err := env.Stores.Comments.Fetch(cmd.Context(), commentListTask); err != nil {
		return err
	}
	if err := env.Stores.Users.Fetch(cmd.Context()); err != nil {
		return err
	}
	comments := env.Stores.Comments.Items()
	return writeOutput(cmd.OutOrStdout(), comments, func() string {
		return formatCommentBlocks(comments, env.Stores.Users)
	})
}

const commentWrapWidth = 76

// formatCommentBlocks renders each comment as a header line followed by its
// text, wrapped and indented.
func formatCommentBlocks(comments []api.Comment, users *store.Users) string {
	if len(comments) == 0 {
		return "No comments.\n"
	}
	now := time.Now()
	var b strings.Builder
	for i, comment := range comments {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s  %s  %s\n", comment.ID, users.Name(comment.UserID), ui.FormatRelative(comment.CreatedAt, now))
		text := wordwrap.String(strings.TrimSpace(comment.Text), commentWrapWidth)
		b.WriteString(indent.String(text, 4))
		b.WriteByte('\n')
	}
	return b.String()
}

func runCommentAdd(cmd *cobra.Command, args []string) error {
	author, err := requireCurrentUser(cmd)
	if err != nil {
		return err
	}
	comment, err := env.Stores.Comments.Create(cmd.Context(), api.CommentInput{
		TaskID: commentAddTask,
		Text:   commentAddText,
		UserID: author.ID,
	})
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), comment, func() string {
		return fmt.Sprintf("Added comment %s\n", comment.ID)
	})
}

func runCommentEdit(cmd *cobra.Command, args []string) error {
	id, err := ownComment(cmd, commentEditTask, args[0])
	if err != nil {
		return err
	}
	comment, err := env.Stores.Comments.Update(cmd.Context(), id, commentEditText)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), comment, func() string {
		return fmt.Sprintf("Updated comment %s\n", comment.ID)
	})
}

func runCommentDelete(cmd *cobra.Command, args []string) error {
	id, err := ownComment(cmd, commentDeleteTask, args[0])
	if err != nil {
		return err
	}
	if err := env.Stores.Comments.Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted comment %s\n", id)
	return nil
}

// ownComment loads the comments of taskID and returns the id of the comment
// named by arg, provided the current user wrote it.
func ownComment(cmd *cobra.Command, taskID, arg string) (string, error) {
	user, err := requireCurrentUser(cmd)
	if err != nil {
		return "", err
	}
	comments := env.Stores.Comments
	if err := comments.Fetch(cmd.Context(), taskID); err != nil {
		return "", err
	}
	id, err := expandID(comments.Items(), arg)
	if err != nil {
		return "", err
	}
	comment, ok := comments.Lookup(id)
	if !ok {
		return "", fmt.Errorf("comment not found on task %s: %s", taskID, arg)
	}
	if !comment.AuthoredBy(user.ID) {
		return "", errNotAuthor
	}
	return id, nil
}

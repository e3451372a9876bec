package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amonks/taskboard/api"
	"github.com/amonks/taskboard/internal/ui"
	"github.com/amonks/taskboard/store"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Manage boards",
}

var boardListCmd = &cobra.Command{
	Use:   "list",
	Short: "List boards owned by or shared with a user",
	Args:  cobra.NoArgs,
	RunE:  runBoardList,
}

var boardListUser string

var boardCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a board owned by the current user",
	Args:  cobra.NoArgs,
	RunE:  runBoardCreate,
}

var (
	boardCreateName    string
	boardCreateMembers []string
)

var boardRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a board",
	Args:  cobra.ExactArgs(2),
	RunE:  runBoardRename,
}

var boardMembersCmd = &cobra.Command{
	Use:   "members <id>",
	Short: "Replace the members of a board",
	Long: `Replace the members of a board.

Every --member flag names one user. Passing no --member flags removes every
member. The owner is never listed as a member.`,
	Args: cobra.ExactArgs(1),
	RunE: runBoardMembers,
}

var boardMembersMembers []string

var boardDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a board",
	Args:  cobra.ExactArgs(1),
	RunE:  runBoardDelete,
}

func init() {
	rootCmd.AddCommand(boardCmd)
	boardCmd.AddCommand(boardListCmd, boardCreateCmd, boardRenameCmd, boardMembersCmd, boardDeleteCmd)

	boardListCmd.Flags().StringVar(&boardListUser, "user", "", "User whose boards to list (default: current user)")

	boardCreateCmd.Flags().StringVar(&boardCreateName, "name", "", "Board name")
	boardCreateCmd.Flags().StringArrayVar(&boardCreateMembers, "member", nil, "Member user id (repeatable)")

	boardMembersCmd.Flags().StringArrayVar(&boardMembersMembers, "member", nil, "Member user id (repeatable)")
}

func runBoardList(cmd *cobra.Command, args []string) error {
	userID, err := userOrCurrent(cmd, boardListUser)
	if err != nil {
		return err
	}
	if err := env.Stores.Boards.Fetch(cmd.Context(), userID); err != nil {
		return err
	}
	if err := env.Stores.Users.Fetch(cmd.Context()); err != nil {
		return err
	}
	boards := env.Stores.Boards.Items()

	return writeOutput(cmd.OutOrStdout(), boards, func() string {
		return formatBoardTable(cmd.OutOrStdout(), boards, env.Stores.Users)
	})
}

func formatBoardTable(w io.Writer, boards []api.Board, users *store.Users) string {
	if len(boards) == 0 {
		return "No boards found.\n"
	}
	highlight := idHighlighter(w, boards)
	builder := ui.NewTableBuilder([]string{"ID", "NAME", "OWNER", "MEMBERS"}, len(boards))
	for _, board := range boards {
		builder.AddRow(
			highlight(board.ID),
			ui.TruncateTableCell(board.Name),
			users.Name(board.OwnerID),
			ui.TruncateTableCell(memberNames(board, users)),
		)
	}
	return builder.String()
}

func memberNames(board api.Board, users *store.Users) string {
	if len(board.MemberIDs) == 0 {
		return "-"
	}
	names := make([]string, 0, len(board.MemberIDs))
	for _, id := range board.MemberIDs {
		names = append(names, users.Name(id))
	}
	return strings.Join(names, ", ")
}

func runBoardCreate(cmd *cobra.Command, args []string) error {
	owner, err := requireCurrentUser(cmd)
	if err != nil {
		return err
	}
	members, err := expandUserIDs(cmd, boardCreateMembers)
	if err != nil {
		return err
	}

	board, err := env.Stores.Boards.Create(cmd.Context(), api.BoardInput{
		Name:      boardCreateName,
		OwnerID:   owner.ID,
		MemberIDs: excludeID(members, owner.ID),
	})
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), board, func() string {
		return fmt.Sprintf("Created board %s (%s)\n", board.ID, board.Name)
	})
}

func runBoardRename(cmd *cobra.Command, args []string) error {
	id, err := expandBoardID(cmd, args[0])
	if err != nil {
		return err
	}
	if err := env.Stores.Boards.Rename(cmd.Context(), id, args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Renamed board %s to %s\n", id, args[1])
	return nil
}

func runBoardMembers(cmd *cobra.Command, args []string) error {
	id, err := expandBoardID(cmd, args[0])
	if err != nil {
		return err
	}
	members, err := expandUserIDs(cmd, boardMembersMembers)
	if err != nil {
		return err
	}
	if board, ok := env.Stores.Boards.Lookup(id); ok {
		members = excludeID(members, board.OwnerID)
	}

	if err := env.Stores.Boards.SetMembers(cmd.Context(), id, members); err != nil {
		return err
	}
	board, ok := env.Stores.Boards.Lookup(id)
	if !ok {
		board = api.Board{ID: id, MemberIDs: members}
	}
	return writeOutput(cmd.OutOrStdout(), board, func() string {
		return fmt.Sprintf("Board %s now has %d member(s)\n", id, len(members))
	})
}

func runBoardDelete(cmd *cobra.Command, args []string) error {
	id, err := expandBoardID(cmd, args[0])
	if err != nil {
		return err
	}
	if err := env.Stores.Boards.Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted board %s\n", id)
	return nil
}

// expandBoardID resolves arg against the current user's boards. Without a
// current user the id is used as given.
func expandBoardID(cmd *cobra.Command, arg string) (string, error) {
	user, err := requireCurrentUser(cmd)
	if err != nil {
		return arg, nil
	}
	if err := env.Stores.Boards.Fetch(cmd.Context(), user.ID); err != nil {
		return "", err
	}
	return expandID(env.Stores.Boards.Items(), arg)
}

func expandUserIDs(cmd *cobra.Command, args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	if err := env.Stores.Users.Fetch(cmd.Context()); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(args))
	for _, arg := range args {
		id, err := expandID(env.Stores.Users.Items(), arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/amonks/taskboard/api"
	"github.com/amonks/taskboard/currentuser"
	"github.com/amonks/taskboard/internal/ui"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users and the current user",
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE:  runUserList,
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	Args:  cobra.NoArgs,
	RunE:  runUserCreate,
}

var (
	userCreateName  string
	userCreateEmail string
)

var userUpdateCmd = &cobra.Command{
	Use:     "update <id>",
	Short:   "Update a user",
	Aliases: []string{"edit"},
	Args:    cobra.ExactArgs(1),
	RunE:    runUserUpdate,
}

var (
	userUpdateName  string
	userUpdateEmail string
)

var userDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserDelete,
}

var userUseCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Select the current user",
	Long: `Select the current user.

The selection is remembered for seven days and is used as the owner of new
boards, the author of new comments and the actor in task history.`,
	Args: cobra.ExactArgs(1),
	RunE: runUserUse,
}

var userCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the current user",
	Args:  cobra.NoArgs,
	RunE:  runUserCurrent,
}

var userClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the current user",
	Args:  cobra.NoArgs,
	RunE:  runUserClear,
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userListCmd, userCreateCmd, userUpdateCmd, userDeleteCmd,
		userUseCmd, userCurrentCmd, userClearCmd)

	userCreateCmd.Flags().StringVar(&userCreateName, "name", "", "Display name")
	userCreateCmd.Flags().StringVar(&userCreateEmail, "email", "", "Email address (unique)")

	userUpdateCmd.Flags().StringVar(&userUpdateName, "name", "", "New display name")
	userUpdateCmd.Flags().StringVar(&userUpdateEmail, "email", "", "New email address")
}

func runUserList(cmd *cobra.Command, args []string) error {
	users := env.Stores.Users
	if err := users.Fetch(cmd.Context()); err != nil {
		return err
	}
	items := users.Items()
	currentID := currentuser.FromContext(cmd.Context()).UserID()

	return writeOutput(cmd.OutOrStdout(), items, func() string {
		return formatUserTable(cmd.OutOrStdout(), items, currentID)
	})
}

func formatUserTable(w io.Writer, users []api.User, currentID string) string {
	if len(users) == 0 {
		return "No users found.\n"
	}
	highlight := idHighlighter(w, users)
	builder := ui.NewTableBuilder([]string{"ID", "NAME", "EMAIL", "CURRENT"}, len(users))
	for _, user := range users {
		current := ""
		if user.ID == currentID {
			current = "*"
		}
		builder.AddRow(highlight(user.ID), ui.TruncateTableCell(user.Name), user.Email, current)
	}
	return builder.String()
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	user, err := env.Stores.Users.Create(cmd.Context(), api.UserInput{
		Name:  userCreateName,
		Email: userCreateEmail,
	})
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), user, func() string {
		return fmt.Sprintf("Created user %s (%s)\n", user.ID, user.Name)
	})
}

func runUserUpdate(cmd *cobra.Command, args []string) error {
	users := env.Stores.Users
	if err := users.Fetch(cmd.Context()); err != nil {
		return err
	}
	id, err := expandID(users.Items(), args[0])
	if err != nil {
		return err
	}

	patch := api.UserPatch{
		Name:  stringFlagPtr(cmd, "name", userUpdateName),
		Email: stringFlagPtr(cmd, "email", userUpdateEmail),
	}
	if patch.Name == nil && patch.Email == nil {
		return fmt.Errorf("%w: nothing to update (use --name or --email)", api.ErrInvalidInput)
	}
	if err := users.Update(cmd.Context(), id, patch); err != nil {
		return err
	}

	updated, ok := users.Lookup(id)
	session := currentuser.FromContext(cmd.Context())
	if ok && session.UserID() == id {
		if err := session.Set(&updated); err != nil {
			env.Logger.Warn("refresh current user", "error", err)
		}
	}

	return writeOutput(cmd.OutOrStdout(), updated, func() string {
		return fmt.Sprintf("Updated user %s\n", id)
	})
}

func runUserDelete(cmd *cobra.Command, args []string) error {
	users := env.Stores.Users
	if err := users.Fetch(cmd.Context()); err != nil {
		return err
	}
	id, err := expandID(users.Items(), args[0])
	if err != nil {
		return err
	}
	if err := users.Delete(cmd.Context(), id); err != nil {
		return err
	}

	session := currentuser.FromContext(cmd.Context())
	if session.UserID() == id {
		if err := session.Set(nil); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s\n", id)
	return nil
}

func runUserUse(cmd *cobra.Command, args []string) error {
	users := env.Stores.Users
	if err := users.Fetch(cmd.Context()); err != nil {
		return err
	}
	id, err := expandID(users.Items(), args[0])
	if err != nil {
		return err
	}
	user, ok := users.Lookup(id)
	if !ok {
		return fmt.Errorf("user not found: %s", args[0])
	}
	if err := currentuser.FromContext(cmd.Context()).Set(&user); err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), user, func() string {
		return fmt.Sprintf("Current user: %s (%s)\n", user.Name, user.ID)
	})
}

func runUserCurrent(cmd *cobra.Command, args []string) error {
	user, ok := currentuser.FromContext(cmd.Context()).User()
	if !ok {
		return writeOutput(cmd.OutOrStdout(), nil, func() string {
			return "No current user.\n"
		})
	}
	return writeOutput(cmd.OutOrStdout(), user, func() string {
		return fmt.Sprintf("%s <%s> (%s)\n", user.Name, user.Email, user.ID)
	})
}

func runUserClear(cmd *cobra.Command, args []string) error {
	if err := currentuser.FromContext(cmd.Context()).Set(nil); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Cleared current user.")
	return nil
}

package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var errEditNeedsBoard = errors.New("--board is required to edit a task in $EDITOR")

func addEditorFlags(cmd *cobra.Command, edit, noEdit *bool) {
	cmd.Flags().BoolVarP(edit, "edit", "e", false, "Open $EDITOR (default if interactive and no field flags)")
	cmd.Flags().BoolVar(noEdit, "no-edit", false, "Do not open $EDITOR")
	cmd.MarkFlagsMutuallyExclusive("edit", "no-edit")
}

func shouldUseEditor(hasFlags bool, editFlag bool, noEditFlag bool, interactive bool) bool {
	if editFlag {
		return true
	}
	if noEditFlag {
		return false
	}
	if hasFlags {
		return false
	}
	return interactive
}

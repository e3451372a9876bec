package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amonks/taskboard/api"
	"github.com/amonks/taskboard/currentuser"
	"github.com/amonks/taskboard/internal/ui"
)

var (
	errNoCurrentUser = errors.New("no current user (run `tb user use <id>`)")
	errAmbiguousID   = errors.New("ambiguous id prefix")
)

// requireCurrentUser returns the selected user or errNoCurrentUser.
func requireCurrentUser(cmd *cobra.Command) (api.User, error) {
	user, ok := currentuser.FromContext(cmd.Context()).User()
	if !ok {
		return api.User{}, errNoCurrentUser
	}
	return user, nil
}

// userOrCurrent returns explicit when set, otherwise the current user id.
func userOrCurrent(cmd *cobra.Command, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	user, err := requireCurrentUser(cmd)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// expandID resolves arg against the ids of items. An exact match or a
// unique case-insensitive prefix selects that item; anything else is
// returned unchanged so the server can judge it.
func expandID[T api.Entity](items []T, arg string) (string, error) {
	lowered := strings.ToLower(arg)
	var matches []string
	for _, item := range items {
		id := item.EntityID()
		if id == arg {
			return id, nil
		}
		if strings.HasPrefix(strings.ToLower(id), lowered) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return arg, nil
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %q matches %s", errAmbiguousID, arg, strings.Join(matches, ", "))
	}
}

// idHighlighter highlights the unique prefix of each id in items when w
// is a terminal.
func idHighlighter[T api.Entity](w io.Writer, items []T) func(string) string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.EntityID())
	}
	lengths := ui.UniqueIDPrefixLengths(ids)
	color := ui.ColorEnabled(w)
	return func(id string) string {
		return ui.HighlightID(id, ui.PrefixLength(lengths, id), color)
	}
}

// excludeID drops every occurrence of id from ids, preserving order.
func excludeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}

func stringFlagPtr(cmd *cobra.Command, name string, value string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}

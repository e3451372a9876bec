package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/amonks/taskboard/api"
	"github.com/amonks/taskboard/internal/markdown"
	"github.com/amonks/taskboard/internal/ui"
)

const systemActor = "System"

func (m model) usersPane() string {
	state := m.stores.Users.Snapshot()
	return withState(m.userList.View(), state.Loading, state.Err, len(state.Items) == 0, "No users yet (press c to create one)")
}

func (m model) boardsPane() string {
	if m.session.UserID() == "" {
		return valueMuted.Render("Select a current user on the Users tab to see boards")
	}
	state := m.stores.Boards.Snapshot()
	return withState(m.boardList.View(), state.Loading, state.Err, len(state.Items) == 0, "No boards yet (press c to create one)")
}

// withState prefixes a list with its load error, loading marker or empty
// message.
func withState(body string, loading bool, err string, empty bool, emptyText string) string {
	switch {
	case err != "":
		return statusErrorStyle.Render(err) + "\n" + body
	case loading:
		return valueMuted.Render("Loading...") + "\n" + body
	case empty:
		return valueMuted.Render(emptyText) + "\n" + body
	}
	return body
}

func (m model) userDetail() string {
	user, ok := m.stores.Users.Lookup(selectedRowID(m.userList))
	if !ok {
		return valueMuted.Render("No user selected")
	}
	lines := []string{
		formatDetailRow("Name", user.Name),
		formatDetailRow("Email", user.Email),
		formatDetailRow("ID", user.ID),
	}
	if user.ID == m.session.UserID() {
		lines = append(lines, "", statusSuccessStyle.Render("Current user"))
	} else {
		lines = append(lines, "", valueMuted.Render("Press enter to make this the current user"))
	}
	return strings.Join(lines, "\n")
}

func (m model) boardDetail() string {
	board, ok := m.stores.Boards.Lookup(selectedRowID(m.boardList))
	if !ok {
		return valueMuted.Render("No board selected")
	}
	members := make([]string, 0, len(board.MemberIDs))
	for _, id := range board.MemberIDs {
		members = append(members, m.stores.Users.Name(id))
	}
	lines := []string{
		formatDetailRow("Name", board.Name),
		formatDetailRow("Owner", m.stores.Users.Name(board.OwnerID)),
		formatDetailRow("Members", strings.Join(members, ", ")),
		formatDetailRow("ID", board.ID),
	}
	return strings.Join(lines, "\n")
}

func formatDetailRow(label, value string) string {
	return fmt.Sprintf("%s: %s", labelStyle.Render(label), valueOrDash(value))
}

func (m model) actorName(log api.HistoryLog) string {
	actor := log.Actor()
	if actor == api.SystemActor {
		return systemActor
	}
	return m.stores.Users.Name(actor)
}

func historyValue(value *string) string {
	if value == nil || *value == "" {
		return "-"
	}
	return strings.Join(strings.Fields(*value), " ")
}

func (m model) formatHistoryLine(log api.HistoryLog, withTask bool) string {
	line := fmt.Sprintf("%s  %s  %s: %s -> %s",
		ui.FormatRelative(log.CreatedAt, m.clock.Now()),
		m.actorName(log),
		log.FieldLabel(),
		historyValue(log.OldValue),
		historyValue(log.NewValue))
	if withTask {
		line += valueMuted.Render("  (task " + log.TaskID + ")")
	}
	return line
}

func (m *model) refreshHistory() {
	if m.session.UserID() == "" {
		m.historyView.SetContent(valueMuted.Render("Select a current user to see their changes"))
		return
	}
	state := m.stores.History.Snapshot()
	lines := []string{labelStyle.Render("Your changes")}
	switch {
	case state.Err != "":
		lines = append(lines, statusErrorStyle.Render(state.Err))
	case state.Loading && len(state.Items) == 0:
		lines = append(lines, valueMuted.Render("Loading..."))
	case len(state.Items) == 0:
		lines = append(lines, valueMuted.Render("No changes yet"))
	}
	for _, log := range state.Items {
		lines = append(lines, truncateText(m.formatHistoryLine(log, true), m.historyView.Width))
	}
	m.historyView.SetContent(strings.Join(lines, "\n"))
}

func (m model) renderTaskDetail(task api.Task, comments []api.Comment, logs []api.HistoryLog, width int) string {
	width = max(width, 20)
	assignee := "-"
	if task.AssigneeID != "" {
		assignee = m.stores.Users.Name(task.AssigneeID)
	}
	status := task.Status.Label()
	if style, ok := statusStyles[string(task.Status)]; ok {
		status = style.Render(status)
	}

	lines := []string{
		labelStyle.Render(valueOrDash(task.Title)),
		fmt.Sprintf("%s: %s  %s: %s", labelStyle.Render("Status"), status, labelStyle.Render("Assignee"), assignee),
		"",
		labelStyle.Render("Description"),
	}
	description := markdown.SafeRender(width, 0, task.Description)
	lines = append(lines, valueOrDash(description), "")

	lines = append(lines, labelStyle.Render(fmt.Sprintf("Comments (%d)", len(comments))))
	userID := m.session.UserID()
	for i, comment := range comments {
		header := fmt.Sprintf("%s  %s", m.stores.Users.Name(comment.UserID), valueMuted.Render(ui.FormatRelative(comment.CreatedAt, m.clock.Now())))
		if comment.AuthoredBy(userID) {
			header += valueMuted.Render("  (yours)")
		}
		marker := "  "
		if m.focus == focusDetail && m.board != nil && i == m.board.commentIndex {
			marker = selectedBorder.Render("> ")
		}
		text := lipgloss.NewStyle().Width(width - 4).Render(comment.Text)
		lines = append(lines, marker+header, indentLines(text, 4))
	}
	if len(comments) == 0 {
		lines = append(lines, valueMuted.Render("No comments"))
	}

	lines = append(lines, "", labelStyle.Render("History"))
	for _, log := range logs {
		lines = append(lines, truncateText(m.formatHistoryLine(log, false), width))
	}
	if len(logs) == 0 {
		lines = append(lines, valueMuted.Render("No history"))
	}
	return strings.Join(lines, "\n")
}

func indentLines(value string, spaces int) string {
	prefix := strings.Repeat(" ", spaces)
	lines := strings.Split(value, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

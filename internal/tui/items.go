package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/amonks/taskboard/api"
	"github.com/amonks/taskboard/store"
)

// rowItem is a list entry rendered as one precomputed line.
type rowItem struct {
	id    string
	line  string
	muted bool
}

func (item rowItem) FilterValue() string { return item.line }

type rowDelegate struct{}

func (d rowDelegate) Height() int                             { return 1 }
func (d rowDelegate) Spacing() int                            { return 0 }
func (d rowDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d rowDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(rowItem)
	if !ok {
		return
	}
	line := truncateText(item.line, m.Width())
	style := itemNormalStyle
	if index == m.Index() {
		style = itemSelectedStyle
	} else if item.muted {
		style = valueMuted
	}
	fmt.Fprint(w, style.Render(line))
}

func newRowList(title string) list.Model {
	l := list.New(nil, rowDelegate{}, 0, 0)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowPagination(false)
	return l
}

// setRows replaces the items of l, keeping the selection on selectedID
// when it is still present.
func setRows(l *list.Model, rows []rowItem, selectedID string) {
	items := make([]list.Item, 0, len(rows))
	selected := 0
	for i, row := range rows {
		items = append(items, row)
		if row.id == selectedID {
			selected = i
		}
	}
	l.SetItems(items)
	if len(items) > 0 {
		l.Select(selected)
	}
}

func selectedRowID(l list.Model) string {
	item, ok := l.SelectedItem().(rowItem)
	if !ok {
		return ""
	}
	return item.id
}

func userRows(users []api.User, currentID string) []rowItem {
	rows := make([]rowItem, 0, len(users))
	for _, user := range users {
		marker := "  "
		if user.ID == currentID {
			marker = "* "
		}
		rows = append(rows, rowItem{id: user.ID, line: fmt.Sprintf("%s%s <%s>", marker, user.Name, user.Email)})
	}
	return rows
}

func boardRows(boards []api.Board, users *store.Users, currentID string) []rowItem {
	rows := make([]rowItem, 0, len(boards))
	for _, board := range boards {
		owner := "shared by " + users.Name(board.OwnerID)
		if board.OwnerID == currentID {
			owner = "owned"
		}
		rows = append(rows, rowItem{id: board.ID, line: fmt.Sprintf("%s  [%s]", board.Name, owner)})
	}
	return rows
}

func taskRows(tasks []api.Task, users *store.Users) []rowItem {
	rows := make([]rowItem, 0, len(tasks))
	for _, task := range tasks {
		title := strings.TrimSpace(task.Title)
		if title == "" {
			title = "(untitled)"
		}
		line := fmt.Sprintf("[%s] %s", task.Status.Label(), title)
		if task.AssigneeID != "" {
			line += "  @" + users.Name(task.AssigneeID)
		}
		rows = append(rows, rowItem{id: task.ID, line: line, muted: task.Status == api.StatusDone})
	}
	return rows
}

func truncateText(value string, width int) string {
	if width <= 0 {
		return value
	}
	return runewidth.Truncate(value, width, "...")
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

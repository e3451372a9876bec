package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amonks/taskboard/api"
	"github.com/amonks/taskboard/filter"
)

const (
	filterTitle = iota
	filterDescription
)

// boardView is an open board: its filter bar, task list and the detail of
// the selected task.
type boardView struct {
	board       api.Board
	pipeline    *filter.Pipeline
	title       textinput.Model
	description textinput.Model
	filterField int

	tasks          list.Model
	detail         viewport.Model
	selectedTaskID string
	commentIndex   int
}

func newBoardView(board api.Board, pipeline *filter.Pipeline) *boardView {
	title := textinput.New()
	title.Prompt = ""
	title.Placeholder = "title"
	description := textinput.New()
	description.Prompt = ""
	description.Placeholder = "description"
	return &boardView{
		board:       board,
		pipeline:    pipeline,
		title:       title,
		description: description,
		tasks:       newRowList(board.Name),
		detail:      viewport.New(0, 0),
	}
}

func (v *boardView) resize(listWidth, listHeight, detailWidth, detailHeight int) {
	v.tasks.SetSize(listWidth, max(listHeight, 1))
	inputWidth := max(listWidth/2-12, 8)
	v.title.Width = inputWidth
	v.description.Width = inputWidth
	v.detail.Width = detailWidth
	v.detail.Height = detailHeight
}

// participants returns the owner followed by the members.
func (v *boardView) participants() []string {
	return append([]string{v.board.OwnerID}, v.board.MemberIDs...)
}

func (m model) openBoard(board api.Board) (tea.Model, tea.Cmd) {
	m.closeBoard()
	pipeline := filter.NewPipeline(board.ID, m.queries.Put, filter.Options{
		Clock:       m.clock,
		QuietPeriod: m.quietPeriod,
	})
	m.board = newBoardView(board, pipeline)
	m.focus = focusList
	m.resize()
	m.queries.Put(pipeline.Query())
	return m, nil
}

// closeBoard cancels pending debounces. Queries already queued are still
// fetched but no longer shown.
func (m *model) closeBoard() {
	if m.board == nil {
		return
	}
	m.board.pipeline.Close()
	m.board = nil
	m.focus = focusList
}

func (m model) handleBoardViewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.focus == focusDetail {
		return m.handleTaskDetailKey(msg)
	}
	v := m.board
	task, selected := m.selectedTask()
	switch msg.String() {
	case "esc", "backspace":
		m.closeBoard()
		return m, m.loadBoardsCmd()
	case "enter":
		if selected {
			m.focus = focusDetail
		}
		return m, nil
	case "s":
		v.pipeline.SetStatus(nextStatus(v.pipeline.Committed().Status))
		return m, nil
	case "a":
		v.pipeline.SetAssignee(nextAssignee(v.participants(), v.pipeline.Committed().AssigneeID))
		return m, nil
	case "/":
		m.focus = focusFilter
		v.filterField = filterTitle
		v.title.Focus()
		v.description.Blur()
		return m, textinput.Blink
	case "x":
		v.title.SetValue("")
		v.description.SetValue("")
		v.pipeline.Clear()
		return m, nil
	case "c":
		m.openForm(m.taskForm(formCreateTask, "New task", api.Task{Status: api.StatusTodo}))
		return m, nil
	case "e":
		if selected {
			m.openForm(m.taskForm(formEditTask, "Edit task", task))
		}
		return m, nil
	case "d":
		if selected {
			m.confirm(opDeleteTask, task.ID, fmt.Sprintf("Delete task %q?", task.Title))
		}
		return m, nil
	}

	var cmd tea.Cmd
	v.tasks, cmd = v.tasks.Update(msg)
	return m, tea.Batch(cmd, m.syncSelectedTask())
}

func (m model) updateFilterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.board
	switch msg.String() {
	case "esc", "enter":
		v.title.Blur()
		v.description.Blur()
		m.focus = focusList
		return m, nil
	case "tab", "shift+tab", "backtab":
		if v.filterField == filterTitle {
			v.filterField = filterDescription
			v.title.Blur()
			v.description.Focus()
		} else {
			v.filterField = filterTitle
			v.description.Blur()
			v.title.Focus()
		}
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	if v.filterField == filterTitle {
		before := v.title.Value()
		v.title, cmd = v.title.Update(msg)
		if v.title.Value() != before {
			v.pipeline.SetTitle(v.title.Value())
		}
		return m, cmd
	}
	before := v.description.Value()
	v.description, cmd = v.description.Update(msg)
	if v.description.Value() != before {
		v.pipeline.SetDescription(v.description.Value())
	}
	return m, cmd
}

func (m model) handleTaskDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.board
	task, ok := m.selectedTask()
	if !ok {
		m.focus = focusList
		return m, nil
	}
	comments := m.taskComments()
	userID := m.session.UserID()
	var comment api.Comment
	hasComment := v.commentIndex < len(comments)
	if hasComment {
		comment = comments[v.commentIndex]
	}

	switch msg.String() {
	case "esc":
		m.focus = focusList
		return m, nil
	case "up", "k":
		if v.commentIndex > 0 {
			v.commentIndex--
			m.refreshDetail()
		}
		return m, nil
	case "down", "j":
		if v.commentIndex < len(comments)-1 {
			v.commentIndex++
			m.refreshDetail()
		}
		return m, nil
	case "n":
		if userID == "" {
			m.setStatus("Select a current user to comment", statusError)
			return m, nil
		}
		m.openForm(newForm(formAddComment, "New comment", task.ID, areaField("text", "Comment", "")))
		return m, nil
	case "e":
		if hasComment && comment.AuthoredBy(userID) {
			m.openForm(newForm(formEditComment, "Edit comment", comment.ID, areaField("text", "Comment", comment.Text)))
		} else if hasComment {
			m.setStatus("Only the author can edit a comment", statusError)
		}
		return m, nil
	case "d":
		if hasComment && comment.AuthoredBy(userID) {
			m.confirm(opDeleteComment, comment.ID, "Delete this comment?")
		} else if hasComment {
			m.setStatus("Only the author can delete a comment", statusError)
		}
		return m, nil
	}

	var cmd tea.Cmd
	v.detail, cmd = v.detail.Update(msg)
	return m, cmd
}

// syncSelectedTask loads comments and history when the selection moves to
// another task.
func (m *model) syncSelectedTask() tea.Cmd {
	v := m.board
	if v == nil {
		return nil
	}
	id := selectedRowID(v.tasks)
	if id == v.selectedTaskID {
		return nil
	}
	v.selectedTaskID = id
	v.commentIndex = 0
	m.refreshDetail()
	return tea.Batch(m.loadCommentsCmd(id), m.loadTaskHistoryCmd(id))
}

// refreshTasks reloads the task list from the store.
func (m *model) refreshTasks() tea.Cmd {
	v := m.board
	if v == nil {
		return nil
	}
	tasks := make([]api.Task, 0)
	for _, task := range m.stores.Tasks.Items() {
		if task.BoardID == v.board.ID {
			tasks = append(tasks, task)
		}
	}
	setRows(&v.tasks, taskRows(tasks, m.stores.Users), v.selectedTaskID)
	return m.syncSelectedTask()
}

func (m model) selectedTask() (api.Task, bool) {
	if m.board == nil {
		return api.Task{}, false
	}
	id := selectedRowID(m.board.tasks)
	if id == "" {
		return api.Task{}, false
	}
	return m.stores.Tasks.Lookup(id)
}

// taskComments returns the loaded comments of the selected task.
func (m model) taskComments() []api.Comment {
	if m.board == nil {
		return nil
	}
	var out []api.Comment
	for _, comment := range m.stores.Comments.Items() {
		if comment.TaskID == m.board.selectedTaskID {
			out = append(out, comment)
		}
	}
	return out
}

func (m model) taskHistoryLogs() []api.HistoryLog {
	if m.board == nil {
		return nil
	}
	var out []api.HistoryLog
	for _, log := range m.taskHistory.Items() {
		if log.TaskID == m.board.selectedTaskID {
			out = append(out, log)
		}
	}
	return out
}

func (m *model) refreshDetail() {
	v := m.board
	if v == nil {
		return
	}
	task, ok := m.selectedTask()
	if !ok {
		v.detail.SetContent(valueMuted.Render("No task selected"))
		return
	}
	content := m.renderTaskDetail(task, m.taskComments(), m.taskHistoryLogs(), v.detail.Width)
	v.detail.SetContent(content)
}

func (m model) renderBoardView(leftWidth, rightWidth, height int) string {
	v := m.board
	state := m.stores.Tasks.Snapshot()
	header := m.renderFilterBar()
	body := v.tasks.View()
	switch {
	case state.Err != "":
		body = statusErrorStyle.Render(state.Err) + "\n" + body
	case state.Loading:
		body = valueMuted.Render("Loading...") + "\n" + body
	case len(v.tasks.Items()) == 0 && v.pipeline.Active():
		body = valueMuted.Render("No tasks match the filters") + "\n" + body
	case len(v.tasks.Items()) == 0:
		body = valueMuted.Render("No tasks yet (press c to create one)") + "\n" + body
	}
	left := m.renderPane(header+"\n"+body, leftWidth, height, m.focus != focusDetail)
	right := m.renderPane(v.detail.View(), rightWidth, height, m.focus == focusDetail)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m model) renderFilterBar() string {
	v := m.board
	committed := v.pipeline.Committed()
	status := "all"
	if committed.Status != filter.StatusAll {
		status = committed.Status.Label()
	}
	assignee := "anyone"
	if committed.AssigneeID != "" {
		assignee = m.stores.Users.Name(committed.AssigneeID)
	}
	line := fmt.Sprintf("status: %s  assignee: %s", status, assignee)
	if v.pipeline.Active() {
		line = filterActiveStyle.Render(line)
	}
	search := fmt.Sprintf("title: %s  desc: %s", v.title.View(), v.description.View())
	if v.pipeline.Pending() {
		search += valueMuted.Render(" ...")
	}
	return strings.Join([]string{line, search}, "\n")
}

// nextStatus cycles all, then each task status in column order.
func nextStatus(current api.Status) api.Status {
	order := append([]api.Status{filter.StatusAll}, api.ValidStatuses()...)
	for i, status := range order {
		if status == current {
			return order[(i+1)%len(order)]
		}
	}
	return filter.StatusAll
}

// nextAssignee cycles anyone, then each participant of the board.
func nextAssignee(participants []string, current string) string {
	order := append([]string{""}, participants...)
	for i, id := range order {
		if id == current {
			return order[(i+1)%len(order)]
		}
	}
	return ""
}

func (m model) taskForm(purpose formPurpose, title string, task api.Task) *formModel {
	statuses := make([]choice, 0, len(api.ValidStatuses()))
	for _, status := range api.ValidStatuses() {
		statuses = append(statuses, choice{value: string(status), label: status.Label()})
	}
	assignees := []choice{{value: "", label: "Unassigned"}}
	for _, id := range m.board.participants() {
		assignees = append(assignees, choice{value: id, label: m.stores.Users.Name(id)})
	}
	return newForm(purpose, title, task.ID,
		lineField("title", "Title", task.Title),
		areaField("description", "Description", task.Description),
		choiceField("status", "Status", statuses, string(task.Status)),
		choiceField("assignee", "Assignee", assignees, task.AssigneeID),
	)
}

func (m model) submitForm(f *formModel) tea.Cmd {
	stores, session := m.stores, m.session
	switch f.purpose {
	case formCreateUser:
		input := api.UserInput{Name: f.Value("name"), Email: f.Value("email")}
		return m.runOp(opUser, "", "User created", func(ctx context.Context) error {
			_, err := stores.Users.Create(ctx, input)
			return err
		})
	case formEditUser:
		id := f.targetID
		patch := api.UserPatch{Name: api.StringPtr(f.Value("name")), Email: api.StringPtr(f.Value("email"))}
		return m.runOp(opUser, id, "User updated", func(ctx context.Context) error {
			if err := stores.Users.Update(ctx, id, patch); err != nil {
				return err
			}
			if user, ok := stores.Users.Lookup(id); ok && session.UserID() == id {
				return session.Set(&user)
			}
			return nil
		})
	case formCreateBoard:
		input := api.BoardInput{Name: f.Value("name"), OwnerID: session.UserID()}
		return m.runOp(opBoard, "", "Board created", func(ctx context.Context) error {
			_, err := stores.Boards.Create(ctx, input)
			return err
		})
	case formRenameBoard:
		id, name := f.targetID, f.Value("name")
		return m.runOp(opBoard, id, "Board renamed", func(ctx context.Context) error {
			return stores.Boards.Rename(ctx, id, name)
		})
	case formCreateTask:
		input := api.TaskInput{
			BoardID:         m.board.board.ID,
			Title:           f.Value("title"),
			Description:     f.Value("description"),
			Status:          api.Status(f.Value("status")),
			AssigneeID:      f.Value("assignee"),
			ChangedByUserID: session.UserID(),
		}
		return m.runOp(opTask, "", "Task created", func(ctx context.Context) error {
			_, err := stores.Tasks.Create(ctx, input)
			return err
		})
	case formEditTask:
		id := f.targetID
		task, _ := stores.Tasks.Lookup(id)
		patch := taskPatch(task, f)
		patch.ChangedByUserID = session.UserID()
		if patch.IsEmpty() {
			return func() tea.Msg { return opDoneMsg{done: "No changes", purpose: opTask, id: id} }
		}
		return m.runOp(opTask, id, "Task updated", func(ctx context.Context) error {
			return stores.Tasks.Update(ctx, id, patch)
		})
	case formAddComment:
		input := api.CommentInput{TaskID: f.targetID, Text: f.Value("text"), UserID: session.UserID()}
		return m.runOp(opComment, "", "Comment added", func(ctx context.Context) error {
			_, err := stores.Comments.Create(ctx, input)
			return err
		})
	case formEditComment:
		id, text := f.targetID, f.Value("text")
		return m.runOp(opComment, id, "Comment updated", func(ctx context.Context) error {
			_, err := stores.Comments.Update(ctx, id, text)
			return err
		})
	}
	return nil
}

// taskPatch includes only the fields the form changed.
func taskPatch(task api.Task, f *formModel) api.TaskPatch {
	var patch api.TaskPatch
	if title := f.Value("title"); title != task.Title {
		patch.Title = api.StringPtr(title)
	}
	if description := f.Value("description"); description != task.Description {
		patch.Description = api.StringPtr(description)
	}
	if status := api.Status(f.Value("status")); status != task.Status {
		patch.Status = api.StatusPtr(status)
	}
	if assignee := f.Value("assignee"); assignee != task.AssigneeID {
		patch.AssigneeID = api.StringPtr(assignee)
	}
	return patch
}

package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amonks/taskboard/api"
)

// queryBox holds the latest task query waiting to be fetched. Put never
// blocks; queries that arrive while a fetch is running collapse into the
// newest one.
type queryBox struct {
	mu    sync.Mutex
	query api.TaskQuery
	ready chan struct{}
}

func newQueryBox() *queryBox {
	return &queryBox{ready: make(chan struct{}, 1)}
}

func (b *queryBox) Put(query api.TaskQuery) {
	b.mu.Lock()
	b.query = query
	b.mu.Unlock()
	select {
	case b.ready <- struct{}{}:
	default:
	}
}

func (b *queryBox) take(ctx context.Context) (api.TaskQuery, bool) {
	select {
	case <-ctx.Done():
		return api.TaskQuery{}, false
	case <-b.ready:
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.query, true
}

type usersLoadedMsg struct{ err error }

type boardsLoadedMsg struct{ err error }

type tasksLoadedMsg struct {
	boardID string
	err     error
}

type commentsLoadedMsg struct {
	taskID string
	err    error
}

type taskHistoryLoadedMsg struct {
	taskID string
	err    error
}

type userHistoryLoadedMsg struct{ err error }

type noticeMsg struct{ message string }

// opDoneMsg reports the end of a mutation started from a form, picker or
// confirmation.
type opDoneMsg struct {
	done    string
	err     error
	purpose opKind
	id      string
}

type opKind int

const (
	opOther opKind = iota
	opUser
	opBoard
	opTask
	opComment
	opDeleteUser
	opDeleteBoard
	opDeleteTask
	opDeleteComment
)

func (m model) loadUsersCmd() tea.Cmd {
	users, ctx := m.stores.Users, m.ctx
	return func() tea.Msg {
		return usersLoadedMsg{err: users.Fetch(ctx)}
	}
}

func (m model) loadBoardsCmd() tea.Cmd {
	userID := m.session.UserID()
	if userID == "" {
		return nil
	}
	boards, ctx := m.stores.Boards, m.ctx
	return func() tea.Msg {
		return boardsLoadedMsg{err: boards.Fetch(ctx, userID)}
	}
}

func (m model) loadUserHistoryCmd() tea.Cmd {
	userID := m.session.UserID()
	if userID == "" {
		return nil
	}
	history, ctx := m.stores.History, m.ctx
	return func() tea.Msg {
		return userHistoryLoadedMsg{err: history.FetchUser(ctx, userID)}
	}
}

func (m model) loadCommentsCmd(taskID string) tea.Cmd {
	if taskID == "" {
		return nil
	}
	comments, ctx := m.stores.Comments, m.ctx
	return func() tea.Msg {
		return commentsLoadedMsg{taskID: taskID, err: comments.Fetch(ctx, taskID)}
	}
}

// loadTaskHistoryCmd uses a separate History store from the History tab so
// the two views do not overwrite each other.
func (m model) loadTaskHistoryCmd(taskID string) tea.Cmd {
	if taskID == "" {
		return nil
	}
	history, ctx := m.taskHistory, m.ctx
	return func() tea.Msg {
		return taskHistoryLoadedMsg{taskID: taskID, err: history.FetchTask(ctx, taskID)}
	}
}

// waitForQueryCmd runs the next queued task query. Exactly one is
// outstanding at a time, so fetches never overlap.
func (m model) waitForQueryCmd() tea.Cmd {
	box, tasks, ctx := m.queries, m.stores.Tasks, m.ctx
	return func() tea.Msg {
		query, ok := box.take(ctx)
		if !ok {
			return nil
		}
		return tasksLoadedMsg{boardID: query.BoardID, err: tasks.FetchFiltered(ctx, query)}
	}
}

func (m model) waitForNoticeCmd() tea.Cmd {
	notices, ctx := m.notices, m.ctx
	if notices == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case message := <-notices:
			return noticeMsg{message: message}
		}
	}
}

func (m model) runOp(kind opKind, id, done string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{done: done, err: fn(ctx), purpose: kind, id: id}
	}
}

package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amonks/taskboard/api"
	"github.com/amonks/taskboard/filter"
)

type boardFixture struct {
	ada, bob api.User
	board    api.Board
	docs     api.Task
	ship     api.Task
}

// openTestBoard selects Ada, opens her shared board and loads its tasks.
func openTestBoard(t *testing.T) (model, *testEnv, boardFixture) {
	t.Helper()
	m, env := newTestModel(t)

	var fx boardFixture
	fx.ada = env.fake.AddUser("Ada", "ada@example.com")
	fx.bob = env.fake.AddUser("Bob", "bob@example.com")
	fx.board = env.fake.AddBoard("Launch", fx.ada.ID, fx.bob.ID)
	fx.docs = env.fake.AddTask(api.Task{BoardID: fx.board.ID, Title: "Write docs", Description: "Cover the CLI", AssigneeID: fx.bob.ID})
	fx.ship = env.fake.AddTask(api.Task{BoardID: fx.board.ID, Title: "Ship it", Status: api.StatusInProgress})

	if err := m.session.Set(&fx.ada); err != nil {
		t.Fatalf("set current user: %v", err)
	}
	m = loadUsers(t, m)
	m, _ = update(t, m, m.loadBoardsCmd()())
	m, _ = update(t, m, keyRunes("2"))
	m, _ = update(t, m, keyType(tea.KeyEnter))
	if m.board == nil {
		t.Fatal("expected board to open")
	}

	query := expectQuery(t, m)
	if query != (api.TaskQuery{BoardID: fx.board.ID}) {
		t.Fatalf("expected unfiltered board query, got %+v", query)
	}
	m = fetchQueued(t, m, query)
	return m, env, fx
}

func nextQuery(m model, wait time.Duration) (api.TaskQuery, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	return m.queries.take(ctx)
}

func expectQuery(t *testing.T, m model) api.TaskQuery {
	t.Helper()
	query, ok := nextQuery(m, time.Second)
	if !ok {
		t.Fatal("expected a queued query")
	}
	return query
}

func expectNoQuery(t *testing.T, m model) {
	t.Helper()
	if query, ok := nextQuery(m, 20*time.Millisecond); ok {
		t.Fatalf("expected no query, got %+v", query)
	}
}

// fetchQueued runs query the way waitForQueryCmd would and applies the
// result.
func fetchQueued(t *testing.T, m model, query api.TaskQuery) model {
	t.Helper()
	err := m.stores.Tasks.FetchFiltered(context.Background(), query)
	m, _ = update(t, m, tasksLoadedMsg{boardID: query.BoardID, err: err})
	return m
}

func taskTitles(m model) []string {
	var titles []string
	for _, item := range m.board.tasks.Items() {
		row := item.(rowItem)
		task, _ := m.stores.Tasks.Lookup(row.id)
		titles = append(titles, task.Title)
	}
	return titles
}

func TestOpenBoardListsTasks(t *testing.T) {
	m, _, fx := openTestBoard(t)

	if got := strings.Join(taskTitles(m), ","); got != "Write docs,Ship it" {
		t.Fatalf("expected both tasks, got %q", got)
	}
	if m.board.selectedTaskID != fx.docs.ID {
		t.Fatalf("expected first task selected, got %q", m.board.selectedTaskID)
	}
	view := m.View()
	for _, want := range []string{"[To Do] Write docs  @Bob", "[In Progress] Ship it", "status: all  assignee: anyone"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected view to contain %q\n%s", want, view)
		}
	}
}

func TestStatusKeyQueriesImmediately(t *testing.T) {
	m, _, fx := openTestBoard(t)

	m, _ = update(t, m, keyRunes("s"))
	query := expectQuery(t, m)
	if query.Status != api.StatusTodo || query.BoardID != fx.board.ID {
		t.Fatalf("expected todo query, got %+v", query)
	}
	m = fetchQueued(t, m, query)
	if got := strings.Join(taskTitles(m), ","); got != "Write docs" {
		t.Fatalf("expected only todo tasks, got %q", got)
	}
	if !strings.Contains(m.renderFilterBar(), "status: To Do") {
		t.Fatalf("expected filter bar to show the status, got %q", m.renderFilterBar())
	}
}

func TestAssigneeKeyCyclesParticipants(t *testing.T) {
	m, _, fx := openTestBoard(t)

	m, _ = update(t, m, keyRunes("a"))
	if query := expectQuery(t, m); query.AssigneeID != fx.ada.ID {
		t.Fatalf("expected owner first, got %+v", query)
	}
	m, _ = update(t, m, keyRunes("a"))
	if query := expectQuery(t, m); query.AssigneeID != fx.bob.ID {
		t.Fatalf("expected member next, got %+v", query)
	}
	m, _ = update(t, m, keyRunes("a"))
	if query := expectQuery(t, m); query.AssigneeID != "" {
		t.Fatalf("expected anyone again, got %+v", query)
	}
}

func TestTitleFilterWaitsForQuietPeriod(t *testing.T) {
	m, env, fx := openTestBoard(t)

	m, _ = update(t, m, keyRunes("/"))
	if m.focus != focusFilter {
		t.Fatal("expected filter focus")
	}
	m, _ = update(t, m, keyRunes("sh"))
	env.clock.Advance(500 * time.Millisecond)
	m, _ = update(t, m, keyRunes("ip"))
	if !m.board.pipeline.Pending() {
		t.Fatal("expected pending title filter")
	}

	env.clock.Advance(999 * time.Millisecond)
	expectNoQuery(t, m)

	env.clock.Advance(time.Millisecond)
	query := expectQuery(t, m)
	if query != (api.TaskQuery{BoardID: fx.board.ID, Title: "ship"}) {
		t.Fatalf("expected one title query, got %+v", query)
	}
	m = fetchQueued(t, m, query)
	if got := strings.Join(taskTitles(m), ","); got != "Ship it" {
		t.Fatalf("expected title match, got %q", got)
	}
}

func TestClearResetsFilters(t *testing.T) {
	m, env, fx := openTestBoard(t)

	m, _ = update(t, m, keyRunes("s"))
	expectQuery(t, m)
	m, _ = update(t, m, keyRunes("/"))
	m, _ = update(t, m, keyRunes("docs"))
	m, _ = update(t, m, keyType(tea.KeyEsc))

	m, _ = update(t, m, keyRunes("x"))
	query := expectQuery(t, m)
	if query != (api.TaskQuery{BoardID: fx.board.ID}) {
		t.Fatalf("expected neutral query, got %+v", query)
	}
	if m.board.title.Value() != "" || m.board.pipeline.Active() {
		t.Fatal("expected filter inputs to be cleared")
	}

	env.clock.Advance(2 * time.Second)
	expectNoQuery(t, m)
}

func TestCloseBoardCancelsPendingFilter(t *testing.T) {
	m, env, _ := openTestBoard(t)

	m, _ = update(t, m, keyRunes("/"))
	m, _ = update(t, m, keyRunes("docs"))
	m, _ = update(t, m, keyType(tea.KeyEsc))
	m, _ = update(t, m, keyType(tea.KeyEsc))
	if m.board != nil {
		t.Fatal("expected board to close")
	}

	env.clock.Advance(2 * time.Second)
	expectNoQuery(t, m)
}

func TestStaleBoardTasksAreNotShown(t *testing.T) {
	m, env, fx := openTestBoard(t)
	other := env.fake.AddBoard("Other", fx.ada.ID)
	env.fake.AddTask(api.Task{BoardID: other.ID, Title: "Elsewhere"})

	m = fetchQueued(t, m, api.TaskQuery{BoardID: other.ID})
	if got := strings.Join(taskTitles(m), ","); got != "" {
		t.Fatalf("expected tasks of another board to be hidden, got %q", got)
	}
}

func TestEditTaskSendsOnlyChangedFields(t *testing.T) {
	m, env, fx := openTestBoard(t)

	m, _ = update(t, m, keyRunes("e"))
	if m.form == nil || m.form.purpose != formEditTask || m.form.targetID != fx.docs.ID {
		t.Fatalf("expected edit form for the selected task, got %#v", m.form)
	}
	m, _ = update(t, m, keyType(tea.KeyTab))
	m, _ = update(t, m, keyType(tea.KeyTab))
	m, _ = update(t, m, keyType(tea.KeyRight))
	if got := m.form.Value("status"); got != string(api.StatusInProgress) {
		t.Fatalf("expected status choice to advance, got %q", got)
	}

	env.fake.ResetRequests()
	m, _ = update(t, m, m.submitForm(m.form)())
	if m.form != nil {
		t.Fatal("expected form to close")
	}
	if query := expectQuery(t, m); query.BoardID != fx.board.ID {
		t.Fatalf("expected a refetch of the board, got %+v", query)
	}

	var updated api.Task
	for _, task := range env.fake.Tasks() {
		if task.ID == fx.docs.ID {
			updated = task
		}
	}
	if updated.Status != api.StatusInProgress || updated.AssigneeID != fx.bob.ID || updated.Title != "Write docs" {
		t.Fatalf("expected only the status to change, got %+v", updated)
	}
}

func TestEditTaskWithoutChangesSkipsRequest(t *testing.T) {
	m, env, _ := openTestBoard(t)

	m, _ = update(t, m, keyRunes("e"))
	env.fake.ResetRequests()
	m, _ = update(t, m, m.submitForm(m.form)())
	if m.status != "No changes" {
		t.Fatalf("expected no-op status, got %q", m.status)
	}
	for _, request := range env.fake.Requests() {
		if strings.HasPrefix(request, "PATCH") {
			t.Fatalf("expected no update request, got %v", env.fake.Requests())
		}
	}
}

func TestOnlyAuthorCanEditComment(t *testing.T) {
	m, env, fx := openTestBoard(t)
	env.fake.AddComment(fx.docs.ID, fx.bob.ID, "Bob's note")

	m, _ = update(t, m, m.loadCommentsCmd(fx.docs.ID)())
	m, _ = update(t, m, keyType(tea.KeyEnter))
	if m.focus != focusDetail {
		t.Fatal("expected detail focus")
	}
	if !strings.Contains(m.board.detail.View(), "Bob's note") {
		t.Fatalf("expected the comment in the detail pane\n%s", m.board.detail.View())
	}

	m, _ = update(t, m, keyRunes("e"))
	if m.form != nil {
		t.Fatal("expected no edit form for someone else's comment")
	}
	if m.status != "Only the author can edit a comment" {
		t.Fatalf("expected refusal, got %q", m.status)
	}

	m, _ = update(t, m, keyRunes("d"))
	if m.modal.kind != modalNone {
		t.Fatal("expected no delete confirmation")
	}
}

func TestAddCommentAsCurrentUser(t *testing.T) {
	m, _, fx := openTestBoard(t)

	m, _ = update(t, m, keyType(tea.KeyEnter))
	m, _ = update(t, m, keyRunes("n"))
	if m.form == nil || m.form.purpose != formAddComment {
		t.Fatal("expected comment form")
	}
	m, _ = update(t, m, keyRunes("Looks good"))
	m, _ = update(t, m, m.submitForm(m.form)())

	comments := m.taskComments()
	if len(comments) != 1 {
		t.Fatalf("expected one comment, got %v", comments)
	}
	if comments[0].UserID != fx.ada.ID || comments[0].Text != "Looks good" {
		t.Fatalf("expected Ada's comment, got %+v", comments[0])
	}
	if !strings.Contains(m.board.detail.View(), "(yours)") {
		t.Fatal("expected the comment to be marked as yours")
	}
}

func TestNextStatusCycle(t *testing.T) {
	order := []api.Status{filter.StatusAll, api.StatusTodo, api.StatusInProgress, api.StatusDone, filter.StatusAll}
	for i := 0; i < len(order)-1; i++ {
		if got := nextStatus(order[i]); got != order[i+1] {
			t.Fatalf("after %q expected %q, got %q", order[i], order[i+1], got)
		}
	}
	if got := nextStatus("bogus"); got != filter.StatusAll {
		t.Fatalf("expected unknown status to reset, got %q", got)
	}
}

func TestNextAssigneeCycle(t *testing.T) {
	participants := []string{"owner", "member"}
	tests := []struct {
		current string
		want    string
	}{
		{current: "", want: "owner"},
		{current: "owner", want: "member"},
		{current: "member", want: ""},
		{current: "gone", want: ""},
	}
	for _, tt := range tests {
		if got := nextAssignee(participants, tt.current); got != tt.want {
			t.Fatalf("after %q expected %q, got %q", tt.current, tt.want, got)
		}
	}
}

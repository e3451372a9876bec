package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amonks/taskboard/api"
)

func TestQueryBoxKeepsLatest(t *testing.T) {
	box := newQueryBox()
	box.Put(api.TaskQuery{BoardID: "b", Title: "s"})
	box.Put(api.TaskQuery{BoardID: "b", Title: "sh"})
	box.Put(api.TaskQuery{BoardID: "b", Title: "ship"})

	got, ok := box.take(context.Background())
	if !ok || got.Title != "ship" {
		t.Fatalf("expected latest query, got %+v (ok %v)", got, ok)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if extra, ok := box.take(ctx); ok {
		t.Fatalf("expected queries to coalesce, got %+v", extra)
	}
}

func TestQueryBoxTakeStopsOnCancel(t *testing.T) {
	box := newQueryBox()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := box.take(ctx); ok {
		t.Fatal("expected take to give up on a cancelled context")
	}
}

func TestFormEnterSubmitsLineButNotArea(t *testing.T) {
	f := newForm(formAddComment, "New comment", "task-1",
		lineField("title", "Title", ""),
		areaField("text", "Comment", ""))

	if _, submit, _ := f.Update(keyType(tea.KeyEnter)); !submit {
		t.Fatal("expected enter to submit from a line field")
	}

	f.Update(keyType(tea.KeyTab))
	if _, submit, _ := f.Update(keyType(tea.KeyEnter)); submit {
		t.Fatal("expected enter to insert a newline in a text area")
	}
	if _, submit, _ := f.Update(keyType(tea.KeyCtrlS)); !submit {
		t.Fatal("expected ctrl+s to submit from a text area")
	}
	if _, _, cancel := f.Update(keyType(tea.KeyEsc)); !cancel {
		t.Fatal("expected esc to cancel")
	}
}

func TestFormShowsError(t *testing.T) {
	f := newForm(formCreateBoard, "New board", "", lineField("name", "Name", ""))
	f.err = "Board name is required"
	if !strings.Contains(f.View(), "Board name is required") {
		t.Fatalf("expected error in form view, got %q", f.View())
	}
}

func TestChoiceFieldCycles(t *testing.T) {
	choices := []choice{{value: "a", label: "A"}, {value: "b", label: "B"}}
	field := choiceField("pick", "Pick", choices, "b")
	if field.Value() != "b" {
		t.Fatalf("expected initial value b, got %q", field.Value())
	}
	field, _ = field.Update(keyType(tea.KeyRight))
	if field.Value() != "a" {
		t.Fatalf("expected wrap to a, got %q", field.Value())
	}
	field, _ = field.Update(keyType(tea.KeyLeft))
	if field.Value() != "b" {
		t.Fatalf("expected wrap back to b, got %q", field.Value())
	}
}

func TestTaskPatchOnlyChangedFields(t *testing.T) {
	task := api.Task{ID: "t1", Title: "Write docs", Description: "Cover the CLI", Status: api.StatusTodo, AssigneeID: "bob"}
	statuses := []choice{{value: "todo"}, {value: "in-progress"}, {value: "done"}}
	assignees := []choice{{value: ""}, {value: "bob"}}

	f := newForm(formEditTask, "Edit task", task.ID,
		lineField("title", "Title", "Write the docs"),
		areaField("description", "Description", task.Description),
		choiceField("status", "Status", statuses, "done"),
		choiceField("assignee", "Assignee", assignees, "bob"))

	patch := taskPatch(task, f)
	if patch.Title == nil || *patch.Title != "Write the docs" {
		t.Fatalf("expected title change, got %+v", patch.Title)
	}
	if patch.Status == nil || *patch.Status != api.StatusDone {
		t.Fatalf("expected status change, got %+v", patch.Status)
	}
	if patch.Description != nil || patch.AssigneeID != nil {
		t.Fatalf("expected unchanged fields to be omitted, got %+v", patch)
	}
}

func TestTaskPatchUnassign(t *testing.T) {
	task := api.Task{ID: "t1", Title: "Ship it", Status: api.StatusTodo, AssigneeID: "bob"}
	f := newForm(formEditTask, "Edit task", task.ID,
		lineField("title", "Title", task.Title),
		areaField("description", "Description", ""),
		choiceField("status", "Status", []choice{{value: "todo"}}, "todo"),
		choiceField("assignee", "Assignee", []choice{{value: ""}, {value: "bob"}}, ""))

	patch := taskPatch(task, f)
	if patch.AssigneeID == nil || *patch.AssigneeID != "" {
		t.Fatalf("expected an explicit unassign, got %+v", patch.AssigneeID)
	}
	if patch.Title != nil || patch.Status != nil || patch.Description != nil {
		t.Fatalf("expected only the assignee, got %+v", patch)
	}
}

func TestMemberPickerExcludesOwner(t *testing.T) {
	board := api.Board{ID: "b1", OwnerID: "ada", MemberIDs: []string{"bob"}}
	users := []api.User{
		{ID: "ada", Name: "Ada"},
		{ID: "bob", Name: "Bob"},
		{ID: "cy", Name: "Cy"},
	}
	p := newMemberPicker(board, users)

	if strings.Contains(p.View(), "Ada") {
		t.Fatal("expected the owner to be left out")
	}
	if got := strings.Join(p.MemberIDs(), ","); got != "bob" {
		t.Fatalf("expected existing members, got %q", got)
	}

	p.Update(keyType(tea.KeySpace))
	p.Update(keyType(tea.KeyDown))
	p.Update(keyType(tea.KeySpace))
	if got := strings.Join(p.MemberIDs(), ","); got != "cy" {
		t.Fatalf("expected toggled members, got %q", got)
	}

	if save, _ := p.Update(keyType(tea.KeyEnter)); !save {
		t.Fatal("expected enter to save")
	}
	if _, cancel := p.Update(keyType(tea.KeyEsc)); !cancel {
		t.Fatal("expected esc to cancel")
	}
}

func TestMemberPickerEmptySelectionIsNotNil(t *testing.T) {
	p := newMemberPicker(api.Board{ID: "b1", OwnerID: "ada"}, []api.User{{ID: "ada"}})
	if ids := p.MemberIDs(); ids == nil || len(ids) != 0 {
		t.Fatalf("expected empty non-nil members, got %#v", ids)
	}
	if !strings.Contains(p.View(), "No other users") {
		t.Fatal("expected empty picker message")
	}
}

func TestTaskRowsMarkDone(t *testing.T) {
	rows := taskRows([]api.Task{
		{ID: "t1", Title: "Ship it", Status: api.StatusDone},
		{ID: "t2", Title: "  ", Status: api.StatusTodo},
	}, nil)
	if rows[0].line != "[Done] Ship it" || !rows[0].muted {
		t.Fatalf("expected muted done row, got %+v", rows[0])
	}
	if rows[1].line != "[To Do] (untitled)" || rows[1].muted {
		t.Fatalf("expected untitled todo row, got %+v", rows[1])
	}
}

package api

import (
	"errors"
	"testing"
)

func TestInputValidation(t *testing.T) {
	tests := []struct {
		name  string
		input interface{ Validate() error }
		ok    bool
	}{
		{name: "user ok", input: UserInput{Name: "Ada", Email: "ada@example.com"}, ok: true},
		{name: "user missing name", input: UserInput{Email: "ada@example.com"}},
		{name: "user blank email", input: UserInput{Name: "Ada", Email: "  "}},
		{name: "board ok", input: BoardInput{Name: "Roadmap", OwnerID: "u1"}, ok: true},
		{name: "board missing owner", input: BoardInput{Name: "Roadmap"}},
		{name: "task ok", input: TaskInput{BoardID: "b1", Title: "Ship", Status: StatusTodo}, ok: true},
		{name: "task bad status", input: TaskInput{BoardID: "b1", Title: "Ship", Status: "blocked"}},
		{name: "task missing title", input: TaskInput{BoardID: "b1", Status: StatusTodo}},
		{name: "comment ok", input: CommentInput{TaskID: "t1", UserID: "u1", Text: "hi"}, ok: true},
		{name: "comment empty", input: CommentInput{TaskID: "t1", UserID: "u1"}},
		{name: "task patch blank title", input: TaskPatch{Title: StringPtr("")}},
		{name: "task patch status", input: TaskPatch{Status: StatusPtr(StatusInProgress)}, ok: true},
		{name: "comment patch blank", input: CommentPatch{Text: StringPtr(" ")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.ok {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestTaskPatchApplyMergesOnlySuppliedFields(t *testing.T) {
	task := Task{ID: "t1", BoardID: "b1", Title: "A", Status: StatusTodo, AssigneeID: "u2"}
	TaskPatch{Status: StatusPtr(StatusDone), ChangedByUserID: "u1"}.Apply(&task)

	want := Task{ID: "t1", BoardID: "b1", Title: "A", Status: StatusDone, AssigneeID: "u2"}
	if task != want {
		t.Fatalf("expected %+v, got %+v", want, task)
	}
}

func TestTaskQueryValues(t *testing.T) {
	neutral := TaskQuery{BoardID: "b1"}.Values()
	if len(neutral) != 1 || neutral.Get("boardId") != "b1" {
		t.Fatalf("expected only boardId, got %v", neutral)
	}

	full := TaskQuery{BoardID: "b1", Status: StatusDone, AssigneeID: "u1", Title: "a", Description: "b"}.Values()
	if full.Encode() != "assigneeId=u1&boardId=b1&description=b&status=done&title=a" {
		t.Fatalf("unexpected encoding %q", full.Encode())
	}
}

func TestHistoryActorDefaultsToSystem(t *testing.T) {
	if got := (HistoryLog{}).Actor(); got != SystemActor {
		t.Fatalf("expected %q, got %q", SystemActor, got)
	}
	if got := (HistoryLog{ChangedByUserID: StringPtr("u1")}).Actor(); got != "u1" {
		t.Fatalf("expected u1, got %q", got)
	}
}

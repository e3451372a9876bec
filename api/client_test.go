package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(message string) {
	n.messages = append(n.messages, message)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *recordingNotifier) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	notifier := &recordingNotifier{}
	return NewClient(server.URL, WithNotifier(notifier)), notifier
}

func TestNewClientNormalizesBaseURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{addr: "localhost:3001", want: "http://localhost:3001"},
		{addr: "http://example.com/", want: "http://example.com"},
		{addr: "https://example.com/api//", want: "https://example.com/api"},
		{addr: "", want: DefaultBaseURL},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			if got := NewClient(tt.addr).BaseURL(); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestListUsersDecodesResponse(t *testing.T) {
	client, notifier := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/users" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("expected Accept application/json, got %q", got)
		}
		_, _ = w.Write([]byte(`[{"_id":"u1","name":"Ada","email":"ada@example.com"}]`))
	})

	users, err := client.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 || users[0].ID != "u1" || users[0].Name != "Ada" {
		t.Fatalf("unexpected users: %+v", users)
	}
	if len(notifier.messages) != 0 {
		t.Fatalf("expected no notifications, got %v", notifier.messages)
	}
}

func TestServerMessageIsSurfacedVerbatim(t *testing.T) {
	client, notifier := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Email already in use"}`))
	})

	_, err := client.CreateUser(context.Background(), UserInput{Name: "Ada", Email: "ada@example.com"})
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Kind != KindServer || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("unexpected error classification: %+v", apiErr)
	}
	if apiErr.Message != "Email already in use" {
		t.Fatalf("expected server message, got %q", apiErr.Message)
	}
	if message, ok := ServerMessage(err); !ok || message != "Email already in use" {
		t.Fatalf("expected ServerMessage to extract message, got %q %v", message, ok)
	}
	if len(notifier.messages) != 1 || notifier.messages[0] != "Email already in use" {
		t.Fatalf("expected exactly one notification, got %v", notifier.messages)
	}
}

func TestStatusWithoutMessageIsTransportFailure(t *testing.T) {
	client, notifier := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	err := client.DeleteTask(context.Background(), "t1")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Kind != KindTransport {
		t.Fatalf("expected transport kind, got %v", apiErr.Kind)
	}
	want := "Error: request failed with status code 500"
	if apiErr.Message != want {
		t.Fatalf("expected %q, got %q", want, apiErr.Message)
	}
	if _, ok := ServerMessage(err); ok {
		t.Fatalf("expected no server message")
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("expected one notification, got %v", notifier.messages)
	}
}

func TestUnreachableServerIsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	notifier := &recordingNotifier{}
	client := NewClient(addr, WithNotifier(notifier))
	_, err := client.ListBoards(context.Background(), "u1")

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Kind != KindTransport || apiErr.Status != 0 {
		t.Fatalf("unexpected error classification: %+v", apiErr)
	}
	if !strings.HasPrefix(apiErr.Message, "Error: ") {
		t.Fatalf("expected transport message, got %q", apiErr.Message)
	}
	if len(notifier.messages) != 1 || notifier.messages[0] != apiErr.Message {
		t.Fatalf("expected one notification matching the error, got %v", notifier.messages)
	}
}

func TestUndecodableBodyIsUnclassified(t *testing.T) {
	client, notifier := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := client.ListUsers(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Kind != KindUnclassified || apiErr.Message != UnexpectedMessage {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
	if len(notifier.messages) != 1 || notifier.messages[0] != UnexpectedMessage {
		t.Fatalf("expected one notification, got %v", notifier.messages)
	}
}

func TestListTasksOmitsNeutralFilters(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if got := query.Get("boardId"); got != "b1" {
			t.Errorf("expected boardId b1, got %q", got)
		}
		for _, key := range []string{"status", "assigneeId", "title", "description"} {
			if query.Has(key) {
				t.Errorf("expected %s to be omitted, got %q", key, query.Get(key))
			}
		}
		_, _ = w.Write([]byte(`[]`))
	})

	tasks, err := client.ListTasks(context.Background(), TaskQuery{BoardID: "b1"})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected no tasks, got %+v", tasks)
	}
}

func TestUpdateTaskSendsOnlySuppliedFields(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/tasks/t1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("expected json content type, got %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if len(body) != 2 || body["status"] != "done" || body["changedByUserId"] != "u1" {
			t.Errorf("unexpected body: %v", body)
		}
		_, _ = w.Write([]byte(`{}`))
	})

	patch := TaskPatch{Status: StatusPtr(StatusDone), ChangedByUserID: "u1"}
	if err := client.UpdateTask(context.Background(), "t1", patch); err != nil {
		t.Fatalf("update task: %v", err)
	}
}

func TestPathSegmentsAreEscaped(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/history/user/a%2Fb" {
			t.Errorf("unexpected path %q", r.URL.EscapedPath())
		}
		_, _ = w.Write([]byte(`[]`))
	})

	if _, err := client.ListUserHistory(context.Background(), "a/b"); err != nil {
		t.Fatalf("list user history: %v", err)
	}
}

package api

import "time"

// Entity is implemented by every resource the server owns.
type Entity interface {
	EntityID() string
}

// Status represents the state of a task.
type Status string

const (
	// StatusTodo indicates the task has not been started.
	StatusTodo Status = "todo"

	// StatusInProgress indicates the task is being worked on.
	StatusInProgress Status = "in-progress"

	// StatusDone indicates the task is finished.
	StatusDone Status = "done"
)

// ValidStatuses returns all valid status values in board column order.
func ValidStatuses() []Status {
	return []Status{StatusTodo, StatusInProgress, StatusDone}
}

// IsValid returns true if the status is a known valid value.
func (s Status) IsValid() bool {
	for _, valid := range ValidStatuses() {
		if s == valid {
			return true
		}
	}
	return false
}

// Label returns the human-readable column name for the status.
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	default:
		return string(s)
	}
}

// User is a person who can own boards, be assigned tasks and write comments.
type User struct {
	ID    string `json:"_id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// EntityID implements Entity.
func (u User) EntityID() string { return u.ID }

// Board is a named container of tasks owned by one user.
type Board struct {
	ID      string `json:"_id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	OwnerID string `json:"ownerId" yaml:"owner_id"`

	// MemberIDs lists users the board is shared with. Order is irrelevant.
	MemberIDs []string `json:"memberIds,omitempty" yaml:"member_ids,omitempty"`
}

// EntityID implements Entity.
func (b Board) EntityID() string { return b.ID }

// HasMember reports whether userID is listed as a member of the board.
func (b Board) HasMember(userID string) bool {
	for _, id := range b.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Task is a unit of work on a board.
type Task struct {
	ID          string `json:"_id" yaml:"id"`
	BoardID     string `json:"boardId" yaml:"board_id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Status      Status `json:"status" yaml:"status"`
	AssigneeID  string `json:"assigneeId,omitempty" yaml:"assignee_id,omitempty"`
}

// EntityID implements Entity.
func (t Task) EntityID() string { return t.ID }

// Comment is a timestamped note written by a user against a task.
type Comment struct {
	ID        string    `json:"_id" yaml:"id"`
	TaskID    string    `json:"taskId" yaml:"task_id"`
	UserID    string    `json:"userId" yaml:"user_id"`
	Text      string    `json:"text" yaml:"text"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
}

// EntityID implements Entity.
func (c Comment) EntityID() string { return c.ID }

// AuthoredBy reports whether userID wrote the comment. Only the author may
// edit or delete it.
func (c Comment) AuthoredBy(userID string) bool {
	return userID != "" && c.UserID == userID
}

// SystemActor is the display name for changes with no responsible user.
const SystemActor = "system"

// HistoryLog records a single field change on a task. History is read-only.
type HistoryLog struct {
	ID              string    `json:"_id" yaml:"id"`
	TaskID          string    `json:"taskId" yaml:"task_id"`
	Field           string    `json:"field" yaml:"field"`
	OldValue        *string   `json:"oldValue,omitempty" yaml:"old_value,omitempty"`
	NewValue        *string   `json:"newValue,omitempty" yaml:"new_value,omitempty"`
	ChangedByUserID *string   `json:"changedByUserId,omitempty" yaml:"changed_by_user_id,omitempty"`
	CreatedAt       time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" yaml:"updated_at"`
}

// EntityID implements Entity.
func (h HistoryLog) EntityID() string { return h.ID }

// Actor returns the id of the user responsible for the change, or
// SystemActor when the change is not attributed to anyone.
func (h HistoryLog) Actor() string {
	if h.ChangedByUserID == nil || *h.ChangedByUserID == "" {
		return SystemActor
	}
	return *h.ChangedByUserID
}

// FieldLabel returns the display name of the changed field.
func (h HistoryLog) FieldLabel() string {
	switch h.Field {
	case "title":
		return "Title"
	case "description":
		return "Description"
	case "status":
		return "Status"
	case "assigneeId":
		return "Assignee"
	case "boardId":
		return "Board"
	default:
		return h.Field
	}
}

// StringPtr returns a pointer to the provided string.
func StringPtr(value string) *string {
	return &value
}

// StatusPtr returns a pointer to the provided status.
func StatusPtr(status Status) *Status {
	return &status
}

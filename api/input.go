package api

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/amonks/taskboard/internal/validation"
)

// UserInput is the payload for creating a user.
type UserInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Validate checks the fields required at creation.
func (in UserInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Email) == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	return nil
}

// UserPatch updates selected user fields. Nil fields are left alone.
type UserPatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// Apply merges the supplied fields into user.
func (p UserPatch) Apply(user *User) {
	if p.Name != nil {
		user.Name = *p.Name
	}
	if p.Email != nil {
		user.Email = *p.Email
	}
}

// Validate rejects patches that would blank a required field.
func (p UserPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}
	if p.Email != nil && strings.TrimSpace(*p.Email) == "" {
		return fmt.Errorf("%w: email cannot be empty", ErrInvalidInput)
	}
	return nil
}

// BoardInput is the payload for creating a board.
type BoardInput struct {
	Name      string   `json:"name"`
	OwnerID   string   `json:"ownerId"`
	MemberIDs []string `json:"memberIds,omitempty"`
}

// Validate checks the fields required at creation.
func (in BoardInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: board name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.OwnerID) == "" {
		return fmt.Errorf("%w: board owner is required", ErrInvalidInput)
	}
	return nil
}

// BoardPatch renames a board.
type BoardPatch struct {
	Name *string `json:"name,omitempty"`
}

// Apply merges the supplied fields into board.
func (p BoardPatch) Apply(board *Board) {
	if p.Name != nil {
		board.Name = *p.Name
	}
}

// Validate rejects patches that would blank the board name.
func (p BoardPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("%w: board name cannot be empty", ErrInvalidInput)
	}
	return nil
}

// MembersPatch replaces the full membership of a board.
type MembersPatch struct {
	MemberIDs []string `json:"memberIds"`
}

// Apply replaces the member list of board.
func (p MembersPatch) Apply(board *Board) {
	board.MemberIDs = append([]string(nil), p.MemberIDs...)
}

// Validate accepts any membership, including an empty one.
func (p MembersPatch) Validate() error {
	return nil
}

// TaskInput is the payload for creating a task.
type TaskInput struct {
	BoardID         string `json:"boardId"`
	Title           string `json:"title"`
	Status          Status `json:"status"`
	Description     string `json:"description,omitempty"`
	AssigneeID      string `json:"assigneeId,omitempty"`
	ChangedByUserID string `json:"changedByUserId,omitempty"`
}

// Validate checks the fields required at creation.
func (in TaskInput) Validate() error {
	if strings.TrimSpace(in.BoardID) == "" {
		return fmt.Errorf("%w: board is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	return ValidateStatus(in.Status)
}

// TaskPatch updates selected task fields. The board of a task never changes.
type TaskPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *Status `json:"status,omitempty"`
	AssigneeID  *string `json:"assigneeId,omitempty"`

	// ChangedByUserID attributes the change in task history. It is sent to
	// the server but is not a task field.
	ChangedByUserID string `json:"changedByUserId,omitempty"`
}

// Apply merges the supplied fields into task.
func (p TaskPatch) Apply(task *Task) {
	if p.Title != nil {
		task.Title = *p.Title
	}
	if p.Description != nil {
		task.Description = *p.Description
	}
	if p.Status != nil {
		task.Status = *p.Status
	}
	if p.AssigneeID != nil {
		task.AssigneeID = *p.AssigneeID
	}
}

// Validate rejects blank titles and unknown statuses.
func (p TaskPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	}
	if p.Status != nil {
		return ValidateStatus(*p.Status)
	}
	return nil
}

// IsEmpty reports whether the patch changes no task field.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.AssigneeID == nil
}

// CommentInput is the payload for creating a comment.
type CommentInput struct {
	TaskID string `json:"taskId"`
	Text   string `json:"text"`
	UserID string `json:"userId"`
}

// Validate checks the fields required at creation.
func (in CommentInput) Validate() error {
	if strings.TrimSpace(in.TaskID) == "" {
		return fmt.Errorf("%w: task is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.UserID) == "" {
		return fmt.Errorf("%w: author is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Text) == "" {
		return fmt.Errorf("%w: comment text is required", ErrInvalidInput)
	}
	return nil
}

// CommentPatch edits the text of a comment.
type CommentPatch struct {
	Text *string `json:"text,omitempty"`
}

// Apply merges the supplied fields into comment.
func (p CommentPatch) Apply(comment *Comment) {
	if p.Text != nil {
		comment.Text = *p.Text
	}
}

// Validate rejects blank comment text.
func (p CommentPatch) Validate() error {
	if p.Text != nil && strings.TrimSpace(*p.Text) == "" {
		return fmt.Errorf("%w: comment text cannot be empty", ErrInvalidInput)
	}
	return nil
}

// ValidateStatus checks that status is one of the task statuses.
func ValidateStatus(status Status) error {
	if !status.IsValid() {
		return validation.FormatInvalidValueError(ErrInvalidStatus, status, ValidStatuses())
	}
	return nil
}

// TaskQuery selects the tasks of one board. Empty fields are omitted from
// the request rather than sent as wildcards.
type TaskQuery struct {
	BoardID     string
	Status      Status
	AssigneeID  string
	Title       string
	Description string
}

// Values encodes the query, skipping every empty field.
func (q TaskQuery) Values() url.Values {
	values := url.Values{}
	set := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}
	set("boardId", q.BoardID)
	set("status", string(q.Status))
	set("assigneeId", q.AssigneeID)
	set("title", q.Title)
	set("description", q.Description)
	return values
}

package api

import (
	"context"
	"net/url"
)

func escape(id string) string {
	return url.PathEscape(id)
}

// ListUsers returns every user.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.Get(ctx, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser creates a user and returns it as stored by the server.
func (c *Client) CreateUser(ctx context.Context, input UserInput) (User, error) {
	var user User
	if err := c.Post(ctx, "/users", input, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// UpdateUser sends the supplied fields of patch.
func (c *Client) UpdateUser(ctx context.Context, id string, patch UserPatch) error {
	return c.Patch(ctx, "/users/"+escape(id), patch, nil)
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.Delete(ctx, "/users/"+escape(id), nil)
}

// ListBoards returns the boards visible to userID.
func (c *Client) ListBoards(ctx context.Context, userID string) ([]Board, error) {
	var boards []Board
	if err := c.Get(ctx, "/boards/user/"+escape(userID), nil, &boards); err != nil {
		return nil, err
	}
	return boards, nil
}

// CreateBoard creates a board.
func (c *Client) CreateBoard(ctx context.Context, input BoardInput) (Board, error) {
	var board Board
	if err := c.Post(ctx, "/boards", input, &board); err != nil {
		return Board{}, err
	}
	return board, nil
}

// UpdateBoard sends the supplied fields of patch.
func (c *Client) UpdateBoard(ctx context.Context, id string, patch BoardPatch) error {
	return c.Patch(ctx, "/boards/"+escape(id), patch, nil)
}

// SetBoardMembers replaces the membership of a board.
func (c *Client) SetBoardMembers(ctx context.Context, id string, patch MembersPatch) error {
	if patch.MemberIDs == nil {
		patch.MemberIDs = []string{}
	}
	return c.Patch(ctx, "/boards/"+escape(id)+"/members", patch, nil)
}

// DeleteBoard removes a board.
func (c *Client) DeleteBoard(ctx context.Context, id string) error {
	return c.Delete(ctx, "/boards/"+escape(id), nil)
}

// ListTasks returns the tasks matching query.
func (c *Client) ListTasks(ctx context.Context, query TaskQuery) ([]Task, error) {
	var tasks []Task
	if err := c.Get(ctx, "/tasks", query.Values(), &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, input TaskInput) (Task, error) {
	var task Task
	if err := c.Post(ctx, "/tasks", input, &task); err != nil {
		return Task{}, err
	}
	return task, nil
}

// UpdateTask sends the supplied fields of patch.
func (c *Client) UpdateTask(ctx context.Context, id string, patch TaskPatch) error {
	return c.Patch(ctx, "/tasks/"+escape(id), patch, nil)
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.Delete(ctx, "/tasks/"+escape(id), nil)
}

// ListComments returns the comments on a task.
func (c *Client) ListComments(ctx context.Context, taskID string) ([]Comment, error) {
	var comments []Comment
	if err := c.Get(ctx, "/comments", url.Values{"taskId": {taskID}}, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// CreateComment adds a comment to a task.
func (c *Client) CreateComment(ctx context.Context, input CommentInput) (Comment, error) {
	var comment Comment
	if err := c.Post(ctx, "/comments", input, &comment); err != nil {
		return Comment{}, err
	}
	return comment, nil
}

// UpdateComment edits a comment and returns the server copy.
func (c *Client) UpdateComment(ctx context.Context, id string, patch CommentPatch) (Comment, error) {
	var comment Comment
	if err := c.Patch(ctx, "/comments/"+escape(id), patch, &comment); err != nil {
		return Comment{}, err
	}
	return comment, nil
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, id string) error {
	return c.Delete(ctx, "/comments/"+escape(id), nil)
}

// ListTaskHistory returns the change log of a task.
func (c *Client) ListTaskHistory(ctx context.Context, taskID string) ([]HistoryLog, error) {
	var logs []HistoryLog
	if err := c.Get(ctx, "/history", url.Values{"taskId": {taskID}}, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// ListUserHistory returns the change log across the tasks of a user.
func (c *Client) ListUserHistory(ctx context.Context, userID string) ([]HistoryLog, error) {
	var logs []HistoryLog
	if err := c.Get(ctx, "/history/user/"+escape(userID), nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

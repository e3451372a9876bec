package store

import (
	"context"

	"github.com/amonks/taskboard/api"
)

// Comments is the collection of comments on one task.
type Comments struct {
	Collection[api.Comment]
	client *api.Client
}

// NewComments creates an empty comment store.
func NewComments(client *api.Client) *Comments {
	return &Comments{client: client}
}

// Fetch loads the comments on a task.
func (s *Comments) Fetch(ctx context.Context, taskID string) error {
	return s.fetch(ctx, "fetch comments", "Failed to fetch comments", func(ctx context.Context) ([]api.Comment, error) {
		return s.client.ListComments(ctx, taskID)
	})
}

// Create adds a comment and returns it.
func (s *Comments) Create(ctx context.Context, input api.CommentInput) (api.Comment, error) {
	const op, fallback = "create comment", "Failed to create comment"
	if err := input.Validate(); err != nil {
		return api.Comment{}, newOpError(op, fallback, err)
	}
	comment, err := s.client.CreateComment(ctx, input)
	if err != nil {
		return api.Comment{}, newOpError(op, fallback, err)
	}
	s.add(comment)
	return comment, nil
}

// Update replaces the text of a comment. The local copy only takes the new
// text; the server copy is returned as-is.
func (s *Comments) Update(ctx context.Context, id, text string) (api.Comment, error) {
	const op, fallback = "update comment", "Failed to update comment"
	patch := api.CommentPatch{Text: &text}
	if err := patch.Validate(); err != nil {
		return api.Comment{}, newOpError(op, fallback, err)
	}
	comment, err := s.client.UpdateComment(ctx, id, patch)
	if err != nil {
		return api.Comment{}, newOpError(op, fallback, err)
	}
	s.update(id, patch.Apply)
	return comment, nil
}

// Delete removes a comment.
func (s *Comments) Delete(ctx context.Context, id string) error {
	if err := s.client.DeleteComment(ctx, id); err != nil {
		return newOpError("delete comment", "Failed to delete comment", err)
	}
	s.remove(id)
	return nil
}

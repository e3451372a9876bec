package store

import (
	"context"

	"github.com/amonks/taskboard/api"
)

// Boards is the collection of boards visible to one user.
type Boards struct {
	Collection[api.Board]
	client *api.Client
}

// NewBoards creates an empty board store.
func NewBoards(client *api.Client) *Boards {
	return &Boards{client: client}
}

// Fetch loads the boards visible to userID.
func (s *Boards) Fetch(ctx context.Context, userID string) error {
	return s.fetch(ctx, "fetch boards", "Failed to fetch boards", func(ctx context.Context) ([]api.Board, error) {
		return s.client.ListBoards(ctx, userID)
	})
}

// Create adds a board and returns it.
func (s *Boards) Create(ctx context.Context, input api.BoardInput) (api.Board, error) {
	const op, fallback = "create board", "Failed to create board"
	if err := input.Validate(); err != nil {
		return api.Board{}, newOpError(op, fallback, err)
	}
	board, err := s.client.CreateBoard(ctx, input)
	if err != nil {
		return api.Board{}, newOpError(op, fallback, err)
	}
	s.add(board)
	return board, nil
}

// Rename changes the name of a board.
func (s *Boards) Rename(ctx context.Context, id, name string) error {
	const op, fallback = "update board", "Failed to update board"
	patch := api.BoardPatch{Name: &name}
	if err := patch.Validate(); err != nil {
		return newOpError(op, fallback, err)
	}
	if err := s.client.UpdateBoard(ctx, id, patch); err != nil {
		return newOpError(op, fallback, err)
	}
	s.update(id, patch.Apply)
	return nil
}

// SetMembers replaces the membership of a board.
func (s *Boards) SetMembers(ctx context.Context, id string, memberIDs []string) error {
	patch := api.MembersPatch{MemberIDs: memberIDs}
	if err := s.client.SetBoardMembers(ctx, id, patch); err != nil {
		return newOpError("update board members", "Failed to update board members", err)
	}
	s.update(id, patch.Apply)
	return nil
}

// Delete removes a board.
func (s *Boards) Delete(ctx context.Context, id string) error {
	if err := s.client.DeleteBoard(ctx, id); err != nil {
		return newOpError("delete board", "Failed to delete board", err)
	}
	s.remove(id)
	return nil
}

package store

import (
	"context"

	"github.com/amonks/taskboard/api"
)

// UnknownUser is displayed for ids missing from the user collection.
const UnknownUser = "Unknown"

// Users is the user collection.
type Users struct {
	Collection[api.User]
	client *api.Client
}

// NewUsers creates an empty user store.
func NewUsers(client *api.Client) *Users {
	return &Users{client: client}
}

// Fetch loads every user.
func (s *Users) Fetch(ctx context.Context) error {
	return s.fetch(ctx, "fetch users", "Failed to fetch users", s.client.ListUsers)
}

// Create adds a user and returns it.
func (s *Users) Create(ctx context.Context, input api.UserInput) (api.User, error) {
	const op, fallback = "create user", "Failed to create user"
	if err := input.Validate(); err != nil {
		return api.User{}, newOpError(op, fallback, err)
	}
	user, err := s.client.CreateUser(ctx, input)
	if err != nil {
		return api.User{}, newOpError(op, fallback, err)
	}
	s.add(user)
	return user, nil
}

// Update changes the supplied fields of a user.
func (s *Users) Update(ctx context.Context, id string, patch api.UserPatch) error {
	const op, fallback = "update user", "Failed to update user"
	if err := patch.Validate(); err != nil {
		return newOpError(op, fallback, err)
	}
	if err := s.client.UpdateUser(ctx, id, patch); err != nil {
		return newOpError(op, fallback, err)
	}
	s.update(id, patch.Apply)
	return nil
}

// Delete removes a user.
func (s *Users) Delete(ctx context.Context, id string) error {
	if err := s.client.DeleteUser(ctx, id); err != nil {
		return newOpError("delete user", "Failed to delete user", err)
	}
	s.remove(id)
	return nil
}

// Name returns the display name for id.
func (s *Users) Name(id string) string {
	if user, ok := s.Lookup(id); ok {
		return user.Name
	}
	return UnknownUser
}

package store

import (
	"context"

	"github.com/amonks/taskboard/api"
)

// History is a read-only collection of task change logs.
type History struct {
	Collection[api.HistoryLog]
	client *api.Client
}

// NewHistory creates an empty history store.
func NewHistory(client *api.Client) *History {
	return &History{client: client}
}

// FetchTask loads the change log of one task.
func (s *History) FetchTask(ctx context.Context, taskID string) error {
	return s.fetch(ctx, "fetch history", "Failed to fetch history", func(ctx context.Context) ([]api.HistoryLog, error) {
		return s.client.ListTaskHistory(ctx, taskID)
	})
}

// FetchUser loads the change log across the tasks of a user.
func (s *History) FetchUser(ctx context.Context, userID string) error {
	return s.fetch(ctx, "fetch user history", "Failed to fetch user history", func(ctx context.Context) ([]api.HistoryLog, error) {
		return s.client.ListUserHistory(ctx, userID)
	})
}

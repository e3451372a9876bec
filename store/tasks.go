package store

import (
	"context"

	"github.com/amonks/taskboard/api"
)

// Tasks is the collection of tasks on the board being viewed.
type Tasks struct {
	Collection[api.Task]
	client *api.Client
}

// NewTasks creates an empty task store.
func NewTasks(client *api.Client) *Tasks {
	return &Tasks{client: client}
}

// FetchBoard loads every task on a board.
func (s *Tasks) FetchBoard(ctx context.Context, boardID string) error {
	return s.FetchFiltered(ctx, api.TaskQuery{BoardID: boardID})
}

// FetchFiltered loads the tasks matching query.
func (s *Tasks) FetchFiltered(ctx context.Context, query api.TaskQuery) error {
	return s.fetch(ctx, "fetch tasks", "Failed to fetch tasks", func(ctx context.Context) ([]api.Task, error) {
		return s.client.ListTasks(ctx, query)
	})
}

// Create adds a task and returns it.
func (s *Tasks) Create(ctx context.Context, input api.TaskInput) (api.Task, error) {
	const op, fallback = "create task", "Failed to create task"
	if err := input.Validate(); err != nil {
		return api.Task{}, newOpError(op, fallback, err)
	}
	task, err := s.client.CreateTask(ctx, input)
	if err != nil {
		return api.Task{}, newOpError(op, fallback, err)
	}
	s.add(task)
	return task, nil
}

// Update changes the supplied fields of a task.
func (s *Tasks) Update(ctx context.Context, id string, patch api.TaskPatch) error {
	const op, fallback = "update task", "Failed to update task"
	if err := patch.Validate(); err != nil {
		return newOpError(op, fallback, err)
	}
	if err := s.client.UpdateTask(ctx, id, patch); err != nil {
		return newOpError(op, fallback, err)
	}
	s.update(id, patch.Apply)
	return nil
}

// Delete removes a task.
func (s *Tasks) Delete(ctx context.Context, id string) error {
	if err := s.client.DeleteTask(ctx, id); err != nil {
		return newOpError("delete task", "Failed to delete task", err)
	}
	s.remove(id)
	return nil
}

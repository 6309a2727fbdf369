package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/taskforge/taskforge/internal/models"
	"github.com/taskforge/taskforge/internal/store"
)

// TaskService implements task CRUD. Authorization is decided before the
// request reaches this layer; write operations arrive only for admins.
type TaskService struct {
	tasks store.TaskStore
}

// NewTaskService creates a task service.
func NewTaskService(tasks store.TaskStore) *TaskService {
	return &TaskService{tasks: tasks}
}

// Create stores a new task. New tasks always start incomplete with the
// creation timestamp set server side.
func (s *TaskService) Create(ctx context.Context, title, description string) (*models.Task, error) {
	task := &models.Task{
		Title:        title,
		Description:  description,
		CreationDate: time.Now().UTC(),
		Completed:    false,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	log.Info().Int64("id", task.ID).Str("title", task.Title).Msg("Created task")
	return task, nil
}

// Get returns the task with the given ID.
func (s *TaskService) Get(ctx context.Context, id int64) (*models.Task, error) {
	return s.tasks.Get(ctx, id)
}

// List returns a page of tasks ordered by creation date plus the total
// count.
func (s *TaskService) List(ctx context.Context, page store.Page) ([]*models.Task, int64, error) {
	return s.tasks.List(ctx, page)
}

// TaskUpdate carries the replacement fields for a full task update.
type TaskUpdate struct {
	Title       string
	Description string
	Completed   bool
}

// Update replaces the mutable fields of an existing task. The creation date
// is never rewritten.
func (s *TaskService) Update(ctx context.Context, id int64, update TaskUpdate) (*models.Task, error) {
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	task.Title = update.Title
	task.Description = update.Description
	task.Completed = update.Completed

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// Conclude marks the task as completed. Concluding an already completed task
// is a no-op that still returns the task.
func (s *TaskService) Conclude(ctx context.Context, id int64) (*models.Task, error) {
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !task.Completed {
		task.Conclude()
		if err := s.tasks.Update(ctx, task); err != nil {
			return nil, fmt.Errorf("failed to conclude task: %w", err)
		}
		log.Info().Int64("id", task.ID).Msg("Concluded task")
	}

	return task, nil
}

// Delete removes the task with the given ID.
func (s *TaskService) Delete(ctx context.Context, id int64) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}

	log.Info().Int64("id", id).Msg("Deleted task")
	return nil
}

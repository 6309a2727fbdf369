package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/taskforge/taskforge/internal/models"
	"github.com/taskforge/taskforge/internal/store"
)

// TaskStore implements store.TaskStore using PostgreSQL.
type TaskStore struct {
	pool *pgxpool.Pool
}

// NewTaskStore creates a new PostgreSQL-backed task store.
func NewTaskStore(pool *pgxpool.Pool) *TaskStore {
	return &TaskStore{
		pool: pool,
	}
}

// Create inserts a new task and fills in its generated ID.
func (s *TaskStore) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (title, description, creation_date, completed)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := s.pool.QueryRow(ctx, query,
		task.Title,
		task.Description,
		task.CreationDate,
		task.Completed,
	).Scan(&task.ID)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", mapPostgresError(err))
	}

	log.Debug().
		Int64("task_id", task.ID).
		Msg("Created task")

	return nil
}

// Get retrieves a task by ID.
func (s *TaskStore) Get(ctx context.Context, id int64) (*models.Task, error) {
	query := `
		SELECT id, title, description, creation_date, completed
		FROM tasks
		WHERE id = $1
	`

	var t models.Task
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.CreationDate,
		&t.Completed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", mapPostgresError(err))
	}

	return &t, nil
}

// List returns a page of tasks ordered by creation date, plus the total count.
func (s *TaskStore) List(ctx context.Context, page store.Page) ([]*models.Task, int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", mapPostgresError(err))
	}

	query := `
		SELECT id, title, description, creation_date, completed
		FROM tasks
		ORDER BY creation_date, id
		LIMIT $1 OFFSET $2
	`

	rows, err := s.pool.Query(ctx, query, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", mapPostgresError(err))
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		var t models.Task
		err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.CreationDate, &t.Completed)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, total, nil
}

// Update persists changes to an existing task.
func (s *TaskStore) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks SET
			title = $2,
			description = $3,
			completed = $4
		WHERE id = $1
	`

	result, err := s.pool.Exec(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Completed,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrTaskNotFound
	}

	return nil
}

// Delete removes a task.
func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrTaskNotFound
	}

	log.Debug().
		Int64("task_id", id).
		Msg("Deleted task")

	return nil
}

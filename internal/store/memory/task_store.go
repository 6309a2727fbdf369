package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/taskforge/taskforge/internal/models"
	"github.com/taskforge/taskforge/internal/store"
)

// TaskStore implements store.TaskStore using in-memory storage.
// This implementation is for testing and development only.
type TaskStore struct {
	mu sync.RWMutex

	tasks  map[int64]*models.Task
	nextID int64
}

// NewTaskStore creates a new in-memory task store.
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks:  make(map[int64]*models.Task),
		nextID: 1,
	}
}

// Create creates a new task and assigns it an ID.
func (s *TaskStore) Create(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task.ID = s.nextID
	s.nextID++

	clone := *task
	s.tasks[clone.ID] = &clone

	return nil
}

// Get retrieves a task by ID.
func (s *TaskStore) Get(ctx context.Context, id int64) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, exists := s.tasks[id]
	if !exists {
		return nil, store.ErrTaskNotFound
	}

	clone := *task
	return &clone, nil
}

// List returns a page of tasks ordered by creation date, plus the total count.
func (s *TaskStore) List(ctx context.Context, page store.Page) ([]*models.Task, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		clone := *t
		all = append(all, &clone)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreationDate.Equal(all[j].CreationDate) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreationDate.Before(all[j].CreationDate)
	})

	total := int64(len(all))
	start := page.Offset()
	if start >= len(all) {
		return []*models.Task{}, total, nil
	}
	end := start + page.Size
	if end > len(all) {
		end = len(all)
	}

	return all[start:end], total, nil
}

// Update persists changes to an existing task.
func (s *TaskStore) Update(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; !exists {
		return store.ErrTaskNotFound
	}

	clone := *task
	s.tasks[clone.ID] = &clone

	return nil
}

// Delete removes a task.
func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[id]; !exists {
		return store.ErrTaskNotFound
	}

	delete(s.tasks, id)

	return nil
}

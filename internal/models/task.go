package models

import "time"

// Task represents a unit of work tracked by the system.
type Task struct {
	ID           int64
	Title        string
	Description  string
	CreationDate time.Time
	Completed    bool
}

// Conclude marks the task as completed.
func (t *Task) Conclude() {
	t.Completed = true
}

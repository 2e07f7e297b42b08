package tasks

import (
	"strings"
	"time"

	apperrors "github.com/29rl/task-manager-fullstack/internal/errors"
)

// Status is the task workflow state stored in the database. The UI maps
// these onto display labels ("To Do", "In Progress", "Completed").
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

// Task is a single task record. OwnerID is enforced server-side at the
// query level and never serialized to clients.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	OwnerID     string    `json:"-"`
}

// Draft is the client-supplied portion of a task, used for both create and
// replace requests.
type Draft struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=1000"`
	Status      Status `json:"status,omitempty"`
}

// Validate checks the draft's fields and applies the default status.
func (d *Draft) Validate() error {
	fields := map[string][]string{}

	switch {
	case strings.TrimSpace(d.Title) == "":
		fields["title"] = append(fields["title"], "title is required")
	case len(d.Title) > MaxTitleLength:
		fields["title"] = append(fields["title"], "title must be at most 200 characters")
	}

	if len(d.Description) > MaxDescriptionLength {
		fields["description"] = append(fields["description"], "description must be at most 1000 characters")
	}

	if d.Status == "" {
		d.Status = StatusTodo
	} else if !d.Status.Valid() {
		fields["status"] = append(fields["status"], "status must be one of todo, in_progress, done")
	}

	if len(fields) > 0 {
		return &apperrors.ValidationError{Fields: fields}
	}
	return nil
}

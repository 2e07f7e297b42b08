package tasks

// Repo persists tasks. Every read and write is scoped to the owning user:
// an id that exists but belongs to someone else behaves exactly like a
// missing id (ErrNotFound).
type Repo interface {
	Create(task *Task) error
	GetByID(ownerID, taskID string) (*Task, error)
	ListByOwner(ownerID string) ([]*Task, error)
	Update(task *Task) error
	Delete(ownerID, taskID string) error
}

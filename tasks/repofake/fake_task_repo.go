package faketaskrepo

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/29rl/task-manager-fullstack/internal/errors"
	"github.com/29rl/task-manager-fullstack/tasks"
)

var _ tasks.Repo = (*FakeTaskRepo)(nil)

type FakeTaskRepo struct {
	tasks map[string]*tasks.Task
	lock  sync.RWMutex
}

func NewFakeTaskRepo() tasks.Repo {
	return &FakeTaskRepo{
		tasks: make(map[string]*tasks.Task),
	}
}

func (tr *FakeTaskRepo) Create(task *tasks.Task) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	copied := *task
	tr.tasks[task.ID] = &copied
	return nil
}

func (tr *FakeTaskRepo) GetByID(ownerID, taskID string) (*tasks.Task, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	task, ok := tr.tasks[taskID]
	if !ok || task.OwnerID != ownerID {
		return nil, apperrors.ErrNotFound
	}
	copied := *task
	return &copied, nil
}

func (tr *FakeTaskRepo) ListByOwner(ownerID string) ([]*tasks.Task, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	list := make([]*tasks.Task, 0)
	for _, task := range tr.tasks {
		if task.OwnerID != ownerID {
			continue
		}
		copied := *task
		list = append(list, &copied)
	}

	// Newest first, id as tiebreaker for stable ordering
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

func (tr *FakeTaskRepo) Update(task *tasks.Task) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	existing, ok := tr.tasks[task.ID]
	if !ok || existing.OwnerID != task.OwnerID {
		return apperrors.ErrNotFound
	}
	copied := *task
	tr.tasks[task.ID] = &copied
	return nil
}

func (tr *FakeTaskRepo) Delete(ownerID, taskID string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	task, ok := tr.tasks[taskID]
	if !ok || task.OwnerID != ownerID {
		return apperrors.ErrNotFound
	}
	delete(tr.tasks, taskID)
	return nil
}

package fakeuserrepo

import (
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/29rl/task-manager-fullstack/internal/errors"
	"github.com/29rl/task-manager-fullstack/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users     map[string]*users.User
	usernames map[string]string // username to user id
	emails    map[string]string // email to user id
	lock      sync.RWMutex
}

func NewFakeUserRepo() users.UserRepo {
	return &FakeUserRepo{
		users:     make(map[string]*users.User),
		usernames: make(map[string]string),
		emails:    make(map[string]string),
	}
}

func (ur *FakeUserRepo) Upsert(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	ur.users[user.ID] = user
	ur.usernames[user.Username] = user.ID
	ur.emails[user.Email] = user.ID
	return nil
}

func (ur *FakeUserRepo) Delete(username string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	userID, ok := ur.usernames[username]
	if !ok {
		return apperrors.ErrNotFound
	}
	delete(ur.usernames, username)

	user, ok := ur.users[userID]
	if !ok {
		return nil
	}
	delete(ur.emails, user.Email)
	delete(ur.users, userID)
	return nil
}

func (ur *FakeUserRepo) GetByUsername(username string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	if _, ok := ur.usernames[username]; !ok {
		return nil, apperrors.ErrNotFound
	}
	return ur.users[ur.usernames[username]], nil
}

func (ur *FakeUserRepo) GetByEmail(email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	if _, ok := ur.emails[email]; !ok {
		return nil, apperrors.ErrNotFound
	}
	return ur.users[ur.emails[email]], nil
}

func (ur *FakeUserRepo) GetByID(id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	if _, ok := ur.users[id]; !ok {
		return nil, apperrors.ErrNotFound
	}
	return ur.users[id], nil
}

func (ur *FakeUserRepo) SetLastLogin(id string, lastLogin time.Time) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	user.LastLogin = lastLogin
	return nil
}

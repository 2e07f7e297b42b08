package refreshrepofake

import (
	"sync"

	apperrors "github.com/29rl/task-manager-fullstack/internal/errors"
	"github.com/29rl/task-manager-fullstack/token/refresh"
)

var _ refresh.Repo = (*FakeRefreshTokenRepo)(nil)

type FakeRefreshTokenRepo struct {
	tokens  map[string]*refresh.StoredRefreshToken
	userIDs map[string]string // user ID to token
	lock    sync.RWMutex
}

func NewFakeRefreshTokenRepo() refresh.Repo {
	return &FakeRefreshTokenRepo{
		tokens:  make(map[string]*refresh.StoredRefreshToken),
		userIDs: make(map[string]string),
	}
}

func (tr *FakeRefreshTokenRepo) Upsert(refreshToken *refresh.StoredRefreshToken) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	tr.tokens[refreshToken.Token] = refreshToken
	tr.userIDs[refreshToken.UserID] = refreshToken.Token
	return nil
}

func (tr *FakeRefreshTokenRepo) Delete(token string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	rt, ok := tr.tokens[token]
	if !ok {
		return apperrors.ErrNotFound
	}
	delete(tr.userIDs, rt.UserID)
	delete(tr.tokens, token)
	return nil
}

func (tr *FakeRefreshTokenRepo) Get(token string) (*refresh.StoredRefreshToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	if _, ok := tr.tokens[token]; !ok {
		return nil, apperrors.ErrNotFound
	}
	return tr.tokens[token], nil
}

func (tr *FakeRefreshTokenRepo) GetByUserID(userID string) (*refresh.StoredRefreshToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	if _, ok := tr.userIDs[userID]; !ok {
		return nil, apperrors.ErrNotFound
	}
	return tr.tokens[tr.userIDs[userID]], nil
}

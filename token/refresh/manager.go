package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Manager handles refresh token creation and validation. Tokens are opaque
// random strings; one token exists per user at a time and is not rotated
// when an access token is refreshed.
type Manager struct {
	repo        Repo
	tokenLength int
}

// NewManager creates a new refresh token manager. tokenLength is the number
// of random bytes per token (32 bytes = 256 bits).
func NewManager(repo Repo, tokenLength int) *Manager {
	if tokenLength <= 0 {
		tokenLength = 32
	}
	return &Manager{
		repo:        repo,
		tokenLength: tokenLength,
	}
}

// Create generates a new refresh token for the user and stores it, replacing
// any token the user already holds.
func (m *Manager) Create(userID string) (string, error) {
	if existingToken, err := m.repo.GetByUserID(userID); err == nil && existingToken != nil {
		if err := m.repo.Delete(existingToken.Token); err != nil {
			return "", fmt.Errorf("failed to delete existing refresh token: %w", err)
		}
	}

	tokenBytes := make([]byte, m.tokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Iat:    NowTimeFunc(),
	}); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return tokenStr, nil
}

// Get retrieves a refresh token from storage
func (m *Manager) Get(token string) (*StoredRefreshToken, error) {
	return m.repo.Get(token)
}

// Delete removes a refresh token from storage
func (m *Manager) Delete(token string) error {
	return m.repo.Delete(token)
}

// IsExpired checks if a refresh token has outlived the given expiry window
func (m *Manager) IsExpired(rt *StoredRefreshToken, expiry time.Duration) bool {
	return NowTimeFunc().Sub(rt.Iat) > expiry
}

package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/29rl/task-manager-fullstack/internal/errors"
	"github.com/29rl/task-manager-fullstack/token"
	"github.com/29rl/task-manager-fullstack/token/refresh"
	refreshrepofake "github.com/29rl/task-manager-fullstack/token/refresh/repofake"
	"github.com/29rl/task-manager-fullstack/users"
	fakeuserrepo "github.com/29rl/task-manager-fullstack/users/repofake"
)

func newTestUser(t *testing.T, repo users.UserRepo, username, password string) *users.User {
	t.Helper()

	hash, err := users.HashPassword(password)
	require.NoError(t, err)

	user := &users.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
	}
	require.NoError(t, repo.Upsert(user))
	return user
}

func TestIssue(t *testing.T) {
	userRepo := fakeuserrepo.NewFakeUserRepo()
	manager := token.New(userRepo, refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), 32), token.NewHMACSigner("secret"))
	user := newTestUser(t, userRepo, "alice", "secret1")

	t.Run("valid credentials", func(t *testing.T) {
		pair, err := manager.Issue("alice", "secret1")
		require.NoError(t, err)
		require.NotEmpty(t, pair.Access)
		require.NotEmpty(t, pair.Refresh)

		stored, err := userRepo.GetByID(user.ID)
		require.NoError(t, err)
		require.False(t, stored.LastLogin.IsZero(), "last login is recorded")
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := manager.Issue("alice", "wrong")
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := manager.Issue("nobody", "secret1")
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials, "indistinguishable from a wrong password")
	})

	t.Run("new login replaces the refresh token", func(t *testing.T) {
		first, err := manager.Issue("alice", "secret1")
		require.NoError(t, err)
		second, err := manager.Issue("alice", "secret1")
		require.NoError(t, err)
		require.NotEqual(t, first.Refresh, second.Refresh)

		_, err = manager.Refresh(first.Refresh)
		require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)

		_, err = manager.Refresh(second.Refresh)
		require.NoError(t, err)
	})
}

func TestRefresh(t *testing.T) {
	userRepo := fakeuserrepo.NewFakeUserRepo()
	manager := token.New(userRepo, refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), 32), token.NewHMACSigner("secret"))
	newTestUser(t, userRepo, "alice", "secret1")

	pair, err := manager.Issue("alice", "secret1")
	require.NoError(t, err)

	t.Run("returns a fresh access token only", func(t *testing.T) {
		access, err := manager.Refresh(pair.Refresh)
		require.NoError(t, err)
		require.NotEmpty(t, access)

		// The refresh token survives and can be used again.
		again, err := manager.Refresh(pair.Refresh)
		require.NoError(t, err)
		require.NotEmpty(t, again)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := manager.Refresh("no-such-token")
		require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
	})

	t.Run("expired token is rejected and removed", func(t *testing.T) {
		originalNowTimeFunc := refresh.NowTimeFunc
		defer func() { refresh.NowTimeFunc = originalNowTimeFunc }()

		refresh.NowTimeFunc = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }

		_, err := manager.Refresh(pair.Refresh)
		require.ErrorIs(t, err, apperrors.ErrRefreshTokenExpired)

		refresh.NowTimeFunc = originalNowTimeFunc
		_, err = manager.Refresh(pair.Refresh)
		require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken, "the expired token was deleted")
	})
}

func TestIntrospect(t *testing.T) {
	userRepo := fakeuserrepo.NewFakeUserRepo()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	currentTime := now
	manager := token.New(userRepo,
		refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), 32),
		token.NewHMACSigner("secret"),
		token.WithNowFunc(func() time.Time { return currentTime }),
		token.WithTokenExpiry(time.Hour, 7*24*time.Hour),
	)
	user := newTestUser(t, userRepo, "alice", "secret1")

	accessToken, err := manager.CreateAccessToken(user.ID)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		identity, err := manager.Introspect(accessToken)
		require.NoError(t, err)
		require.Equal(t, user.ID, identity.UserID)
		require.Equal(t, now.Unix(), identity.IssuedAt.Unix())
		require.Equal(t, now.Add(time.Hour).Unix(), identity.ExpiresAt.Unix())
	})

	t.Run("expired token", func(t *testing.T) {
		currentTime = now.Add(2 * time.Hour)
		defer func() { currentTime = now }()

		_, err := manager.Introspect(accessToken)
		require.ErrorIs(t, err, apperrors.ErrTokenExpired)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := manager.Introspect("not-a-jwt")
		require.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := manager.Introspect("  ")
		require.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		otherManager := token.New(userRepo,
			refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), 32),
			token.NewHMACSigner("other-secret"),
		)
		forged, err := otherManager.CreateAccessToken(user.ID)
		require.NoError(t, err)

		_, err = manager.Introspect(forged)
		require.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})
}

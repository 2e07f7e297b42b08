package users_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/29rl/task-manager-fullstack/internal/errors"
	"github.com/29rl/task-manager-fullstack/users"
	fakeuserrepo "github.com/29rl/task-manager-fullstack/users/repofake"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := users.HashPassword("secret1")
	require.NoError(t, err)
	require.NotEqual(t, "secret1", hash)

	require.True(t, users.CheckPasswordHash("secret1", hash))
	require.False(t, users.CheckPasswordHash("wrong", hash))
}

func TestRegistrationValidate(t *testing.T) {
	tests := []struct {
		name    string
		reg     users.Registration
		field   string
		message string
	}{
		{
			name:    "missing username",
			reg:     users.Registration{Email: "a@b.com", Password: "secret1"},
			field:   "username",
			message: "username is required",
		},
		{
			name:    "whitespace username",
			reg:     users.Registration{Username: "   ", Email: "a@b.com", Password: "secret1"},
			field:   "username",
			message: "username is required",
		},
		{
			name:    "missing email",
			reg:     users.Registration{Username: "alice", Password: "secret1"},
			field:   "email",
			message: "email is required",
		},
		{
			name:    "malformed email",
			reg:     users.Registration{Username: "alice", Email: "alice-at-example", Password: "secret1"},
			field:   "email",
			message: "enter a valid email address",
		},
		{
			name:    "missing password",
			reg:     users.Registration{Username: "alice", Email: "a@b.com"},
			field:   "password",
			message: "password is required",
		},
		{
			name:    "short password",
			reg:     users.Registration{Username: "alice", Email: "a@b.com", Password: "12345"},
			field:   "password",
			message: "password must be at least 6 characters",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.reg.Validate()
			require.Error(t, err)

			var verr *apperrors.ValidationError
			require.True(t, apperrors.As(err, &verr))
			require.Contains(t, verr.Fields[test.field], test.message)
		})
	}

	t.Run("valid registration", func(t *testing.T) {
		reg := users.Registration{Username: "alice", Email: "alice@example.com", Password: "secret1"}
		require.NoError(t, reg.Validate())
	})
}

func TestRegister(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	user, err := users.Register(repo, users.Registration{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret1",
	}, now)
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, now, user.DateJoined)
	require.NotEqual(t, "secret1", user.PasswordHash)
	require.True(t, users.CheckPasswordHash("secret1", user.PasswordHash))

	t.Run("duplicate username", func(t *testing.T) {
		_, err := users.Register(repo, users.Registration{
			Username: "alice",
			Email:    "other@example.com",
			Password: "secret1",
		}, now)
		require.Error(t, err)

		var verr *apperrors.ValidationError
		require.True(t, apperrors.As(err, &verr))
		require.Equal(t, "a user with that username already exists", verr.FirstMessage("username"))
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := users.Register(repo, users.Registration{
			Username: "alice2",
			Email:    "alice@example.com",
			Password: "secret1",
		}, now)
		require.Error(t, err)

		var verr *apperrors.ValidationError
		require.True(t, apperrors.As(err, &verr))
		require.Equal(t, "a user with that email already exists", verr.FirstMessage("email"))
	})
}

package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/29rl/task-manager-fullstack/internal/config"
	"github.com/29rl/task-manager-fullstack/server"
	"github.com/29rl/task-manager-fullstack/tasks"
	faketaskrepo "github.com/29rl/task-manager-fullstack/tasks/repofake"
	"github.com/29rl/task-manager-fullstack/token"
	"github.com/29rl/task-manager-fullstack/token/refresh"
	refreshrepofake "github.com/29rl/task-manager-fullstack/token/refresh/repofake"
	"github.com/29rl/task-manager-fullstack/users"
	fakeuserrepo "github.com/29rl/task-manager-fullstack/users/repofake"
)

type fixture struct {
	ts     *httptest.Server
	repos  server.Repos
	tokens *token.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repos := server.Repos{
		Users: fakeuserrepo.NewFakeUserRepo(),
		Tasks: faketaskrepo.NewFakeTaskRepo(),
	}
	tokens := token.New(
		repos.Users,
		refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), 32),
		token.NewHMACSigner("test-signing-key"),
	)

	srv, err := server.New(config.New(), repos, tokens)
	require.NoError(t, err)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &fixture{ts: ts, repos: repos, tokens: tokens}
}

// createUser seeds a user directly through the repository.
func (f *fixture) createUser(t *testing.T, username, password string) *users.User {
	t.Helper()

	hash, err := users.HashPassword(password)
	require.NoError(t, err)

	user := &users.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		DateJoined:   time.Now(),
	}
	require.NoError(t, f.repos.Users.Upsert(user))
	return user
}

func (f *fixture) request(t *testing.T, method, path, bearer string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, f.ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func detailOf(t *testing.T, body []byte) string {
	t.Helper()
	var parsed struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(body, &parsed))
	return parsed.Detail
}

func TestTokenEndpoint(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "alice", "secret1")

	t.Run("valid credentials", func(t *testing.T) {
		resp, body := f.request(t, http.MethodPost, "/api/token", "", map[string]string{
			"username": "alice",
			"password": "secret1",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var pair struct {
			Access  string `json:"access"`
			Refresh string `json:"refresh"`
		}
		require.NoError(t, json.Unmarshal(body, &pair))
		require.NotEmpty(t, pair.Access)
		require.NotEmpty(t, pair.Refresh)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp, body := f.request(t, http.MethodPost, "/api/token", "", map[string]string{
			"username": "alice",
			"password": "wrong",
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, "invalid username or password", detailOf(t, body))
	})

	t.Run("missing fields", func(t *testing.T) {
		resp, body := f.request(t, http.MethodPost, "/api/token", "", map[string]string{
			"username": "alice",
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var fields map[string][]string
		require.NoError(t, json.Unmarshal(body, &fields))
		require.Contains(t, fields["password"], "password is required")
	})
}

func TestTokenRefreshEndpoint(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "alice", "secret1")

	pair, err := f.tokens.Issue("alice", "secret1")
	require.NoError(t, err)

	t.Run("valid refresh token", func(t *testing.T) {
		resp, body := f.request(t, http.MethodPost, "/api/token/refresh", "", map[string]string{
			"refresh": pair.Refresh,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var parsed struct {
			Access string `json:"access"`
		}
		require.NoError(t, json.Unmarshal(body, &parsed))
		require.NotEmpty(t, parsed.Access)
	})

	t.Run("unknown refresh token", func(t *testing.T) {
		resp, body := f.request(t, http.MethodPost, "/api/token/refresh", "", map[string]string{
			"refresh": "bogus",
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, "refresh token is invalid or expired", detailOf(t, body))
	})
}

func TestRegisterEndpoint(t *testing.T) {
	f := newFixture(t)

	t.Run("creates the user", func(t *testing.T) {
		resp, body := f.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"username": "alice",
			"email":    "alice@example.com",
			"password": "secret1",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var parsed struct {
			Message string     `json:"message"`
			User    users.User `json:"user"`
		}
		require.NoError(t, json.Unmarshal(body, &parsed))
		require.Equal(t, "user created successfully", parsed.Message)
		require.NotEmpty(t, parsed.User.ID)
	})

	t.Run("field errors use the array shape", func(t *testing.T) {
		resp, body := f.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"email":    "not-an-email",
			"password": "123",
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var fields map[string][]string
		require.NoError(t, json.Unmarshal(body, &fields))
		require.Contains(t, fields["username"], "username is required")
		require.Contains(t, fields["email"], "enter a valid email address")
		require.Contains(t, fields["password"], "password must be at least 6 characters")
	})
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		bearer string
		header string
		detail string
	}{
		{
			name:   "no header",
			detail: "authentication credentials were not provided",
		},
		{
			name:   "malformed header",
			header: "Token abc",
			detail: "invalid authorization header format",
		},
		{
			name:   "garbage token",
			bearer: "not-a-jwt",
			detail: "token is invalid or expired",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, f.ts.URL+"/api/tasks", nil)
			require.NoError(t, err)
			if test.header != "" {
				req.Header.Set("Authorization", test.header)
			} else if test.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+test.bearer)
			}

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			require.Equal(t, test.detail, detailOf(t, raw))
		})
	}
}

func TestTaskEndpoints(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice", "secret1")
	bob := f.createUser(t, "bob", "secret2")

	aliceToken, err := f.tokens.CreateAccessToken(alice.ID)
	require.NoError(t, err)
	bobToken, err := f.tokens.CreateAccessToken(bob.ID)
	require.NoError(t, err)

	var created tasks.Task

	t.Run("create", func(t *testing.T) {
		resp, body := f.request(t, http.MethodPost, "/api/tasks", aliceToken, map[string]string{
			"title": "buy milk",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		require.NoError(t, json.Unmarshal(body, &created))
		require.NotEmpty(t, created.ID)
		require.Equal(t, tasks.StatusTodo, created.Status)
	})

	t.Run("create invalid", func(t *testing.T) {
		resp, body := f.request(t, http.MethodPost, "/api/tasks", aliceToken, map[string]string{
			"title":  "buy milk",
			"status": "archived",
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var fields map[string][]string
		require.NoError(t, json.Unmarshal(body, &fields))
		require.Contains(t, fields["status"], "status must be one of todo, in_progress, done")
	})

	t.Run("other owner sees not found", func(t *testing.T) {
		resp, body := f.request(t, http.MethodGet, "/api/tasks/"+created.ID, bobToken, nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		require.Equal(t, "not found", detailOf(t, body))

		resp, _ = f.request(t, http.MethodDelete, "/api/tasks/"+created.ID, bobToken, nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("replace keeps creation time", func(t *testing.T) {
		resp, body := f.request(t, http.MethodPut, "/api/tasks/"+created.ID, aliceToken, map[string]string{
			"title":  "buy milk",
			"status": "done",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var updated tasks.Task
		require.NoError(t, json.Unmarshal(body, &updated))
		require.Equal(t, tasks.StatusDone, updated.Status)
		require.Equal(t, created.CreatedAt.Unix(), updated.CreatedAt.Unix())
	})

	t.Run("delete", func(t *testing.T) {
		resp, _ := f.request(t, http.MethodDelete, "/api/tasks/"+created.ID, aliceToken, nil)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, _ = f.request(t, http.MethodGet, "/api/tasks/"+created.ID, aliceToken, nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t)

	resp, body := f.request(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed map[string]string
	require.NoError(t, json.Unmarshal(body, &parsed))
	require.Equal(t, "ok", parsed["status"])
}

func TestCorsHeaders(t *testing.T) {
	f := newFixture(t)

	t.Run("preflight", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodOptions, f.ts.URL+"/api/tasks", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "http://localhost:5173")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		require.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("simple request", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, f.ts.URL+"/api/token", bytes.NewReader([]byte(`{}`)))
		require.NoError(t, err)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	})
}

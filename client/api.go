package client

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	apperrors "github.com/29rl/task-manager-fullstack/internal/errors"
	"github.com/29rl/task-manager-fullstack/tasks"
	"github.com/29rl/task-manager-fullstack/users"
)

var emailRegexp = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Login exchanges credentials for a token pair and stores it in the session.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return errors.Wrap(err, "[Client.Login] Marshal")
	}

	var pair tokenPair
	err = c.do(ctx, &call{
		method: http.MethodPost,
		path:   "/api/token",
		body:   body,
		out:    &pair,
	})
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUnauthorized) {
			return apperrors.ErrInvalidCredentials
		}
		return err
	}

	c.session.SetPair(pair.Access, pair.Refresh)
	return nil
}

// Registration carries the sign-up form, including the client-side password
// confirmation which is never sent to the server.
type Registration struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
}

// validate checks the form locally so obviously bad input never reaches the
// network. The messages mirror the server's so the caller renders one shape.
func (r Registration) validate() error {
	fields := map[string][]string{}
	if strings.TrimSpace(r.Username) == "" {
		fields["username"] = append(fields["username"], "username is required")
	}
	if strings.TrimSpace(r.Email) == "" {
		fields["email"] = append(fields["email"], "email is required")
	} else if !emailRegexp.MatchString(r.Email) {
		fields["email"] = append(fields["email"], "enter a valid email address")
	}
	if r.Password == "" {
		fields["password"] = append(fields["password"], "password is required")
	} else if len(r.Password) < users.MinPasswordLength {
		fields["password"] = append(fields["password"], "password must be at least 6 characters")
	}
	if r.Password != "" && r.ConfirmPassword != r.Password {
		fields["confirm_password"] = append(fields["confirm_password"], "passwords do not match")
	}
	if len(fields) > 0 {
		return &apperrors.ValidationError{Fields: fields}
	}
	return nil
}

// Register creates a new account. It does not log the user in; the caller is
// expected to follow with an explicit Login.
func (c *Client) Register(ctx context.Context, reg Registration) (*users.User, error) {
	if err := reg.validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(reg)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Register] Marshal")
	}

	var resp struct {
		Message string      `json:"message"`
		User    *users.User `json:"user"`
	}
	err = c.do(ctx, &call{
		method: http.MethodPost,
		path:   "/api/auth/register",
		body:   body,
		out:    &resp,
	})
	if err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Logout discards the local session and notifies the application. The server
// holds no per-device state for the access token, so logout is purely local
// and safe to call any number of times.
func (c *Client) Logout() {
	c.forceLogout()
}

// Me fetches the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*users.User, error) {
	var user users.User
	err := c.do(ctx, &call{
		method:      http.MethodGet,
		path:        "/api/auth/me",
		out:         &user,
		protected:   true,
		retryBudget: 1,
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ProfileUpdate carries a partial profile change; nil fields are left as-is.
type ProfileUpdate struct {
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// UpdateProfile applies a partial update to the authenticated user's profile.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*users.User, error) {
	body, err := json.Marshal(update)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.UpdateProfile] Marshal")
	}

	var user users.User
	err = c.do(ctx, &call{
		method:      http.MethodPut,
		path:        "/api/auth/me",
		body:        body,
		out:         &user,
		protected:   true,
		retryBudget: 1,
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListTasks returns the caller's tasks, newest first.
func (c *Client) ListTasks(ctx context.Context) ([]*tasks.Task, error) {
	var list []*tasks.Task
	err := c.do(ctx, &call{
		method:      http.MethodGet,
		path:        "/api/tasks",
		out:         &list,
		protected:   true,
		retryBudget: 1,
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// CreateTask creates a task owned by the caller.
func (c *Client) CreateTask(ctx context.Context, draft tasks.Draft) (*tasks.Task, error) {
	body, err := json.Marshal(draft)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.CreateTask] Marshal")
	}

	var task tasks.Task
	err = c.do(ctx, &call{
		method:      http.MethodPost,
		path:        "/api/tasks",
		body:        body,
		out:         &task,
		protected:   true,
		retryBudget: 1,
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTask fetches one of the caller's tasks by id.
func (c *Client) GetTask(ctx context.Context, taskID string) (*tasks.Task, error) {
	var task tasks.Task
	err := c.do(ctx, &call{
		method:      http.MethodGet,
		path:        "/api/tasks/" + taskID,
		out:         &task,
		protected:   true,
		retryBudget: 1,
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// ReplaceTask replaces a task's editable fields.
func (c *Client) ReplaceTask(ctx context.Context, taskID string, draft tasks.Draft) (*tasks.Task, error) {
	body, err := json.Marshal(draft)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.ReplaceTask] Marshal")
	}

	var task tasks.Task
	err = c.do(ctx, &call{
		method:      http.MethodPut,
		path:        "/api/tasks/" + taskID,
		body:        body,
		out:         &task,
		protected:   true,
		retryBudget: 1,
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask deletes one of the caller's tasks.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	return c.do(ctx, &call{
		method:      http.MethodDelete,
		path:        "/api/tasks/" + taskID,
		protected:   true,
		retryBudget: 1,
	})
}

// UserMessage maps an error from any client operation onto a string suitable
// for direct display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var verr *apperrors.ValidationError
	switch {
	case apperrors.As(err, &verr):
		if msg := verr.FirstMessage("username", "email", "password", "confirm_password", "title", "description", "status"); msg != "" {
			return msg
		}
		return "invalid input"
	case apperrors.Is(err, apperrors.ErrInvalidCredentials):
		return "invalid username or password"
	case apperrors.Is(err, apperrors.ErrUnauthorized):
		return "your session has expired, please log in again"
	case apperrors.Is(err, apperrors.ErrNotFound):
		return "not found"
	case apperrors.Is(err, apperrors.ErrTransport):
		return "could not reach the server, please try again"
	default:
		return "something went wrong, please try again"
	}
}

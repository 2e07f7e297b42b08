// Package client is the session-aware API client for the task manager.
//
// Every protected call reads the session's current access token and attaches
// it as a bearer credential. When a call comes back unauthorized the client
// silently exchanges the refresh token for a new access token and replays the
// original call exactly once; if the refresh itself fails the session is
// cleared and the surrounding application is told to return to the
// unauthenticated view. Concurrent calls that fail unauthorized around the
// same time each run their own refresh; the last write to the session wins,
// which is harmless because any freshly issued access token is valid.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	apperrors "github.com/29rl/task-manager-fullstack/internal/errors"
)

// DefaultTimeout bounds every dispatched call: original, refresh and replay.
// A call that exceeds it is treated as a transport failure.
const DefaultTimeout = 10 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	onLogout   func()
	logger     zerolog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (primarily for tests).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLogoutHandler registers the hook invoked whenever the session is
// forcibly cleared, so the application can show its unauthenticated view.
func WithLogoutHandler(onLogout func()) Option {
	return func(c *Client) {
		c.onLogout = onLogout
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(baseURL string, options ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		session:    NewSession(),
		logger:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Session exposes the client's session for inspection. Mutation should go
// through the client's own operations.
func (c *Client) Session() *Session {
	return c.session
}

// call is one originating request together with its one-shot retry budget.
// The budget belongs to the call, not the session: a replayed call that
// fails unauthorized again is never refreshed a second time.
type call struct {
	method      string
	path        string
	body        []byte // kept as bytes so the call can be replayed
	out         any
	protected   bool
	retryBudget int
}

// do runs the refresh-and-retry state machine for a single originating call.
func (c *Client) do(ctx context.Context, cl *call) error {
	status, body, err := c.dispatch(ctx, cl)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && cl.protected && cl.retryBudget > 0 {
		cl.retryBudget--

		_, refreshToken := c.session.Tokens()
		if refreshToken == "" {
			// Fail closed: nothing to refresh with.
			c.forceLogout()
			return errors.Wrap(apperrors.ErrUnauthorized, "no refresh token held")
		}

		newAccess, refreshErr := c.refreshAccessToken(ctx, refreshToken)
		if refreshErr != nil {
			c.logger.Debug().Err(refreshErr).Msg("token refresh failed, logging out")
			c.forceLogout()
			// Surface the original call's failure, not the refresh's.
			return errors.Wrap(apperrors.ErrUnauthorized, "session expired")
		}

		c.session.SetAccessToken(newAccess)

		// Replay exactly once; the replay's outcome is final.
		status, body, err = c.dispatch(ctx, cl)
		if err != nil {
			return err
		}
	}

	return c.decodeResponse(cl, status, body)
}

// dispatch performs one HTTP exchange. The token-attachment interceptor
// lives here: a snapshot of the session's access token is taken per attempt,
// so a replay picks up the refreshed token.
func (c *Client) dispatch(ctx context.Context, cl *call) (int, []byte, error) {
	var bodyReader io.Reader
	if cl.body != nil {
		bodyReader = bytes.NewReader(cl.body)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, bodyReader)
	if err != nil {
		return 0, nil, errors.Wrap(err, "[Client.dispatch] NewRequest")
	}
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.protected {
		if accessToken := c.session.AccessToken(); accessToken != "" {
			req.Header.Set("Authorization", "Bearer "+accessToken)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, errors.Wrap(apperrors.ErrTransport, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errors.Wrap(apperrors.ErrTransport, err.Error())
	}
	return resp.StatusCode, body, nil
}

// refreshAccessToken exchanges the refresh token for a new access token.
// Any non-success response or transport error counts as a refresh failure.
func (c *Client) refreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	payload, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		return "", errors.Wrap(err, "[Client.refreshAccessToken] Marshal")
	}

	refreshCall := &call{
		method: http.MethodPost,
		path:   "/api/token/refresh",
		body:   payload,
	}
	status, body, err := c.dispatch(ctx, refreshCall)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", errors.Wrapf(apperrors.ErrInvalidRefreshToken, "refresh endpoint returned %d", status)
	}

	var parsed struct {
		Access string `json:"access"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Access == "" {
		return "", errors.Wrap(apperrors.ErrTransport, "unreadable refresh response")
	}
	return parsed.Access, nil
}

// decodeResponse maps the final HTTP outcome onto the error taxonomy and
// unmarshals successful bodies.
func (c *Client) decodeResponse(cl *call, status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		if cl.out == nil || status == http.StatusNoContent {
			return nil
		}
		if err := json.Unmarshal(body, cl.out); err != nil {
			return errors.Wrap(apperrors.ErrTransport, "unreadable response body")
		}
		return nil
	case status == http.StatusUnauthorized:
		return errors.Wrap(apperrors.ErrUnauthorized, detailFrom(body))
	case status == http.StatusNotFound:
		return errors.Wrap(apperrors.ErrNotFound, detailFrom(body))
	case status == http.StatusBadRequest:
		return validationErrorFrom(body)
	default:
		return errors.Wrapf(apperrors.ErrInternal, "unexpected status %d", status)
	}
}

// forceLogout clears the session and notifies the application. Idempotent:
// clearing an already-empty session is a no-op with the same end state.
func (c *Client) forceLogout() {
	c.session.Clear()
	if c.onLogout != nil {
		c.onLogout()
	}
}

// detailFrom extracts the server's {"detail": "..."} message when present.
func detailFrom(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return "request failed"
}

// validationErrorFrom parses the 400 field-error body shape
// {"field": ["message", ...]} into a ValidationError.
func validationErrorFrom(body []byte) error {
	fields := map[string][]string{}
	if err := json.Unmarshal(body, &fields); err == nil && len(fields) > 0 {
		return &apperrors.ValidationError{Fields: fields}
	}
	var detailed struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &detailed); err == nil && detailed.Detail != "" {
		return &apperrors.ValidationError{Fields: map[string][]string{"detail": {detailed.Detail}}}
	}
	return &apperrors.ValidationError{}
}

package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	apperrors "github.com/29rl/task-manager-fullstack/internal/errors"
	"github.com/29rl/task-manager-fullstack/token/refresh"
	"github.com/29rl/task-manager-fullstack/users"
)

// TokenPair is what a successful login returns: a short-lived JWT access
// token and a longer-lived opaque refresh token.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Identity is the verified identity behind an access token.
type Identity struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Manager issues, refreshes and verifies tokens. A refresh exchanges a valid
// refresh token for a new access token only; the refresh token itself stays
// valid until it expires or the user logs in again (single-token model, no
// rotation).
type Manager struct {
	userRepo           users.UserRepo
	refreshTokens      *refresh.Manager
	signer             Signer
	issuer             string
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	nowFunc            func() time.Time
}

type ManagerOption func(*Manager)

func WithTokenExpiry(accessTokenExpiry, refreshTokenExpiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTokenExpiry = accessTokenExpiry
		m.refreshTokenExpiry = refreshTokenExpiry
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func New(userRepo users.UserRepo, refreshTokens *refresh.Manager, signer Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		userRepo:      userRepo,
		refreshTokens: refreshTokens,
		signer:        signer,
	}

	for _, opt := range options {
		opt(m)
	}

	if m.accessTokenExpiry == 0 {
		m.accessTokenExpiry = time.Hour
	}
	if m.refreshTokenExpiry == 0 {
		m.refreshTokenExpiry = 7 * 24 * time.Hour
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m
}

// Issue verifies the credentials and returns a fresh token pair. Missing
// users and wrong passwords are indistinguishable to the caller.
func (m *Manager) Issue(username, password string) (*TokenPair, error) {
	user, err := m.userRepo.GetByUsername(username)
	if err != nil || user == nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	accessToken, err := m.CreateAccessToken(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Issue] CreateAccessToken")
	}

	refreshToken, err := m.refreshTokens.Create(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Issue] refreshTokens.Create")
	}

	if err := m.userRepo.SetLastLogin(user.ID, m.nowFunc()); err != nil {
		return nil, errors.Wrap(err, "[Manager.Issue] SetLastLogin")
	}

	return &TokenPair{Access: accessToken, Refresh: refreshToken}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (m *Manager) Refresh(refreshToken string) (string, error) {
	rt, err := m.refreshTokens.Get(refreshToken)
	if err != nil || rt == nil {
		return "", apperrors.ErrInvalidRefreshToken
	}

	if m.refreshTokens.IsExpired(rt, m.refreshTokenExpiry) {
		_ = m.refreshTokens.Delete(refreshToken)
		return "", apperrors.ErrRefreshTokenExpired
	}

	user, err := m.userRepo.GetByID(rt.UserID)
	if err != nil || user == nil {
		return "", apperrors.ErrInvalidRefreshToken
	}

	accessToken, err := m.CreateAccessToken(user.ID)
	if err != nil {
		return "", errors.Wrap(err, "[Manager.Refresh] CreateAccessToken")
	}
	return accessToken, nil
}

// CreateAccessToken mints a signed JWT for the user.
func (m *Manager) CreateAccessToken(userID string) (string, error) {
	now := m.nowFunc()
	claims := jwt.MapClaims{
		"sub": userID,                              // The subject, the user's unique ID
		"iat": now.Unix(),                          // Issued at
		"exp": now.Add(m.accessTokenExpiry).Unix(), // When the token expires
		"jti": uuid.New().String(),                 // Unique token ID
	}
	if m.issuer != "" {
		claims["iss"] = m.issuer
	}
	return m.signer.Sign(claims)
}

// Introspect verifies an access token and returns the identity behind it.
// Expired and otherwise invalid tokens both fail; callers should treat any
// error here as unauthorized.
func (m *Manager) Introspect(rawToken string) (*Identity, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, apperrors.ErrInvalidToken
	}

	parsed, err := jwt.Parse(rawToken, m.signer.GetVerificationKey,
		jwt.WithTimeFunc(m.nowFunc),
		jwt.WithValidMethods([]string{m.signer.GetSigningMethod().Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken
	}
	if !parsed.Valid {
		return nil, apperrors.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, apperrors.ErrInvalidToken
	}
	iat, _ := claims["iat"].(float64)
	exp, _ := claims["exp"].(float64)

	return &Identity{
		UserID:    sub,
		IssuedAt:  time.Unix(int64(iat), 0),
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}

// InvalidateRefreshToken removes the refresh token from storage. Used on
// explicit server-side logout; unknown tokens are ignored.
func (m *Manager) InvalidateRefreshToken(refreshToken string) {
	_ = m.refreshTokens.Delete(refreshToken)
}

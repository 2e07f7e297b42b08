package client

import "sync"

// Session is the process-wide holder of the current token pair. Exactly one
// Session exists per Client; every outbound call reads a snapshot at
// dispatch time. All mutation points are guarded so a refresh can never be
// interleaved with a read that observes a half-written pair.
type Session struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
}

func NewSession() *Session {
	return &Session{}
}

// Tokens returns a consistent snapshot of the current pair.
func (s *Session) Tokens() (accessToken, refreshToken string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken, s.refreshToken
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// SetPair stores a freshly issued pair, as returned by login.
func (s *Session) SetPair(accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
}

// SetAccessToken replaces only the access token, as a successful refresh
// does. The refresh token is left untouched (single-token model).
func (s *Session) SetAccessToken(accessToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = accessToken
}

// Clear wipes both tokens. Safe to call repeatedly.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.refreshToken = ""
}

// Authenticated reports whether the session currently holds an access token.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken != ""
}

package refresh

import (
	"time"
)

// StoredRefreshToken represents the server-side storage of refresh token metadata.
// The client only receives the Token field (a random string); UserID and Iat are
// server-side metadata used for validation.
type StoredRefreshToken struct {
	Token  string    // The actual random token string (sent to client)
	UserID string    // Owning user
	Iat    time.Time // Issued at time
}

// Repo manages server-side storage of refresh token metadata, keyed by the
// opaque token string.
type Repo interface {
	Upsert(refreshToken *StoredRefreshToken) error
	Delete(token string) error
	Get(token string) (*StoredRefreshToken, error)
	GetByUserID(userID string) (*StoredRefreshToken, error)
}

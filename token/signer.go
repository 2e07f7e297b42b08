package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Signer is an interface for signing and verifying JWT tokens
type Signer interface {
	// Sign creates a signed JWT token from claims
	Sign(claims jwt.MapClaims) (string, error)

	// GetVerificationKey returns the key used to verify a parsed token
	GetVerificationKey(token *jwt.Token) (any, error)

	// GetSigningMethod returns the JWT signing method used
	GetSigningMethod() jwt.SigningMethod
}

// HMACsigner implements Signer using symmetric HMAC-SHA256
type HMACsigner struct {
	secret []byte
}

var _ Signer = (*HMACsigner)(nil)

// NewHMACSigner creates a new HMAC signer with the given secret
func NewHMACSigner(secret string) *HMACsigner {
	return &HMACsigner{
		secret: []byte(secret),
	}
}

func (h *HMACsigner) Sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(h.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with HMAC")
	}
	return signedToken, nil
}

func (h *HMACsigner) GetVerificationKey(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return h.secret, nil
}

func (h *HMACsigner) GetSigningMethod() jwt.SigningMethod {
	return jwt.SigningMethodHS256
}

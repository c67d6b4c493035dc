// Package security issues and decodes signed session tokens and generates
// URL-safe random identifiers.
package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, forged, or expired.
	ErrInvalidToken = errors.New("invalid token")
)

// SessionClaims holds the claims embedded in a session token: the caller
// callback URL, a random per-token user identifier, and the form the session
// belongs to.
type SessionClaims struct {
	jwt.RegisteredClaims
	Callback string `json:"cb"`
	User     string `json:"user"`
	Group    string `json:"group"`
}

// TokenProvider issues and decodes HS256 session tokens using a server-held symmetric key.
type TokenProvider struct {
	key        []byte
	sessionTTL time.Duration
}

// NewTokenProvider returns a TokenProvider that signs with the given symmetric key.
// sessionTTL bounds the token lifetime; the matching cache entry expires on the same schedule.
func NewTokenProvider(key []byte, sessionTTL time.Duration) *TokenProvider {
	return &TokenProvider{key: key, sessionTTL: sessionTTL}
}

// Issue issues a session token binding formID and callbackURL to a fresh random
// user identifier. Returns the token string and its expiration time.
func (p *TokenProvider) Issue(formID, callbackURL string) (token string, expiresAt time.Time, err error) {
	user, err := RandomID(UserIDLength)
	if err != nil {
		return "", time.Time{}, err
	}
	now := time.Now().UTC()
	expiresAt = now.Add(p.sessionTTL)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Callback: callbackURL,
		User:     user,
		Group:    formID,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = t.SignedString(p.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Decode parses and verifies the session token (signature, structure, exp).
// Returns ErrInvalidToken on any failure; an expired token is indistinguishable
// from a forged one to the caller, and the cache lookup fails separately.
func (p *TokenProvider) Decode(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.key, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Group == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

package security

import (
	"crypto/rand"
)

// alphabet is the URL-safe character set used for random identifiers.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

const (
	// UserIDLength is the length of the per-token user identifier.
	UserIDLength = 16
	// PaymentReferenceLength is the length of generated payment references.
	PaymentReferenceLength = 10
)

// RandomID returns a cryptographically random string of n characters drawn
// from the URL-safe alphabet.
func RandomID(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, c := range b {
		// 64-entry alphabet, so masking the low 6 bits keeps the draw uniform.
		out[i] = alphabet[c&63]
	}
	return string(out), nil
}

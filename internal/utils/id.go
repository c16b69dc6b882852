package utils

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/Laisky/errors/v2"
)

// GenerateSecureToken returns length random bytes, base64url encoded without padding.
func GenerateSecureToken(length int) (string, error) {
	if length <= 0 {
		return "", errors.Errorf("token length must be positive, got %d", length)
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "read random bytes")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

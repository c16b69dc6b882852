package transfer

import (
	"github.com/Laisky/errors/v2"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores everything past 72 bytes, longer secrets are refused instead of silently truncated.
const maxPasswordBytes = 72

func hashPassword(password string, cost int) (*string, error) {
	if password == "" {
		return nil, nil
	}
	if len(password) > maxPasswordBytes {
		return nil, validationError("password must be at most %d bytes", maxPasswordBytes)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	h := string(hashed)
	return &h, nil
}

func passwordMatches(hash, supplied string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(supplied)) == nil
}

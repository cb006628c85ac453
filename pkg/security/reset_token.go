package security

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

const (
	resetTokenSize = 32
	resetTokenTTL  = time.Hour
)

// MakeResetToken generates a high entropy password reset token and
// its expiry. The token only ever lives on the user row, it is not a
// JWT and carries no claims.
func MakeResetToken() (token string, expiresAt time.Time, err error) {
	b := make([]byte, resetTokenSize)

	_, err = rand.Read(b)
	if err != nil {
		return "", time.Time{}, err
	}

	return hex.EncodeToString(b), time.Now().Add(resetTokenTTL), nil
}

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
)

const resetTokenBytes = 32

// ResetToken is the plaintext password reset token. It only ever leaves the
// server inside the reset email; the store keeps its Hash.
type ResetToken string

func NewResetToken() (ResetToken, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return ResetToken(hex.EncodeToString(b)), nil
}

func (t ResetToken) Hash() string {
	sum := sha256.Sum256([]byte(t))
	return hex.EncodeToString(sum[:])
}

func (t ResetToken) LogValue() slog.Value {
	return slog.StringValue("[REDACTED]")
}

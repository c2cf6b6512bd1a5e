package device

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// TokenBytes is the token entropy: 256 bits.
const TokenBytes = 32

// GenerateToken returns a new random device token as 64 hex characters.
func GenerateToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating device token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

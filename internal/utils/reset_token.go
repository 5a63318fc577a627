package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// GenerateResetToken returns a random 6-character uppercase hex token
// (3 random bytes, hex-encoded)
func GenerateResetToken() (string, error) {
	bytes := make([]byte, 3)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(bytes)), nil
}

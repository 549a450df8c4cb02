package usecase

import (
	"crypto/rand"
	"encoding/hex"
)

const ephemeralTokenBytes = 32

// newEphemeralToken generates a single-use token with 256 bits of entropy,
// hex encoded.
func newEphemeralToken() (string, error) {
	buf := make([]byte, ephemeralTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(buf), nil
}

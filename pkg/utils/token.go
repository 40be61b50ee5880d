package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// shareTokenBytes gives 192 bits of entropy; collisions are negligible
// for the lifetime of the store and the token space is independent of
// the primary id space.
const shareTokenBytes = 24

// NewShareToken returns an unguessable URL-safe public identifier.
// Issued once per recording at creation time, never rotated.
func NewShareToken() (string, error) {
	buf := make([]byte, shareTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate share token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

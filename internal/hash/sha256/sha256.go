// Package sha256 provides the content fingerprint used for change detection.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hasher implements pipeline.Hasher using SHA-256.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash hashes the input and returns a hex digest.
func (Hasher) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashText trims surrounding whitespace before hashing, so two revisions
// that differ only in leading/trailing whitespace fingerprint identically.
func (h Hasher) HashText(text string) string {
	return h.Hash([]byte(strings.TrimSpace(text)))
}

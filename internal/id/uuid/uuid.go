// Package uuid provides ID generation helpers.
package uuid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Generator creates record IDs and slug suffixes.
type Generator struct{}

// New creates a new Generator.
func New() *Generator {
	return &Generator{}
}

// NewID returns a UUID7 string, time-ordered for index locality.
func (Generator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid7: %w", err)
	}
	return id.String(), nil
}

// ShortSuffix returns a short random hex fragment for slug collision
// resolution. n is clamped to the 32 hex chars a UUID carries.
func (Generator) ShortSuffix(n int) (string, error) {
	if n <= 0 {
		n = 6
	}
	if n > 32 {
		n = 32
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid4: %w", err)
	}
	hex := strings.ReplaceAll(id.String(), "-", "")
	return hex[:n], nil
}

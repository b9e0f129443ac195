package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/gosimple/slug"
)

const (
	slugMaxLen           = 200
	slugSuffixLen        = 6
	slugDefaultAttempts  = 10
	slugFallbackBaseName = "untitled"
)

// Slugify derives a URL-safe slug from a title, capped at 200 chars.
func Slugify(title string) string {
	s := slug.Make(title)
	if len(s) > slugMaxLen {
		s = s[:slugMaxLen]
	}
	if s == "" {
		s = slugFallbackBaseName
	}
	return s
}

// SlugResolver guarantees global slug uniqueness by probing the store and
// appending short random suffixes on collision.
type SlugResolver struct {
	store       BlogStore
	ids         IDGenerator
	maxAttempts int
}

// NewSlugResolver builds a resolver with the default attempt budget.
func NewSlugResolver(store BlogStore, ids IDGenerator) *SlugResolver {
	return &SlugResolver{store: store, ids: ids, maxAttempts: slugDefaultAttempts}
}

// Resolve returns the desired slug unchanged when it is free, otherwise a
// suffixed variant. Exhausting the attempt budget returns ErrSlugExhausted;
// the caller drops that single record and continues the batch.
func (r *SlugResolver) Resolve(ctx context.Context, desired string) (string, error) {
	candidate := desired
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		_, err := r.store.FindBySlug(ctx, candidate)
		if errors.Is(err, ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("probe slug %q: %w", candidate, err)
		}

		suffix, err := r.ids.ShortSuffix(slugSuffixLen)
		if err != nil {
			return "", fmt.Errorf("slug suffix: %w", err)
		}
		candidate = desired + "-" + suffix
	}
	return "", fmt.Errorf("resolve slug %q: %w", desired, ErrSlugExhausted)
}

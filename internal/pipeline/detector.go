package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// Classification is the change detector's verdict for one article.
type Classification struct {
	Kind ChangeKind
	Hash string
	// Existing carries the stored record forward when Kind is ChangeChanged,
	// so generation updates it in place instead of inserting a duplicate.
	Existing *Blog
}

// ChangeDetector compares an article's content fingerprint against the
// previously stored revision for the same source URL.
type ChangeDetector struct {
	store  BlogStore
	hasher Hasher
}

// NewChangeDetector builds a detector over the given store and hasher.
func NewChangeDetector(store BlogStore, hasher Hasher) *ChangeDetector {
	return &ChangeDetector{store: store, hasher: hasher}
}

// Classify computes the article's hash and looks up the stored record by
// originalUrl: absent means new, identical hash means unchanged (idempotent
// skip, zero writes), differing hash means changed.
func (d *ChangeDetector) Classify(ctx context.Context, article ExtractedArticle) (Classification, error) {
	hash := article.ContentHash
	if hash == "" {
		hash = d.hasher.HashText(article.Markdown)
	}

	existing, err := d.store.FindByURL(ctx, article.OriginalURL)
	switch {
	case errors.Is(err, ErrNotFound):
		return Classification{Kind: ChangeNew, Hash: hash}, nil
	case err != nil:
		return Classification{}, fmt.Errorf("find by url %q: %w", article.OriginalURL, err)
	case existing.ContentHash == hash:
		return Classification{Kind: ChangeUnchanged, Hash: hash, Existing: existing}, nil
	default:
		return Classification{Kind: ChangeChanged, Hash: hash, Existing: existing}, nil
	}
}

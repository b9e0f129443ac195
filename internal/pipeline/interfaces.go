package pipeline

import (
	"context"
	"time"
)

// SearchClient queries the external search service for candidate sources.
type SearchClient interface {
	Search(ctx context.Context, tech string, opts SearchOptions) ([]SearchResult, error)
}

// SearchOptions bound one search call.
type SearchOptions struct {
	MaxSources  int
	RecencyDays int
}

// ExtractionOutcome tags each extraction result with its originating
// source; batch completion order is not input order.
type ExtractionOutcome struct {
	Source  SearchResult
	Article *ExtractedArticle
	Err     error
}

// Extractor turns candidate sources into cleaned articles. Implementations
// run with bounded concurrency and settle-all semantics: one source's
// failure never cancels its siblings.
type Extractor interface {
	ExtractAll(ctx context.Context, sources []SearchResult) []ExtractionOutcome
}

// LLM is the single-turn model invocation consumed by the workflows.
type LLM interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// BlogStore is the persistence collaborator for blog records. Lookups
// return ErrNotFound when no record matches.
type BlogStore interface {
	FindByURL(ctx context.Context, url string) (*Blog, error)
	FindByID(ctx context.Context, id string) (*Blog, error)
	FindBySlug(ctx context.Context, slug string) (*Blog, error)
	List(ctx context.Context, limit int) ([]Blog, error)
	Create(ctx context.Context, blog *Blog) error
	Update(ctx context.Context, blog *Blog) error
}

// DiagramStore persists validated diagram documents.
type DiagramStore interface {
	FindByID(ctx context.Context, id string) (*Diagram, error)
	ListByBlog(ctx context.Context, blogID string) ([]Diagram, error)
	Create(ctx context.Context, diagram *Diagram) error
}

// Hasher computes content fingerprints for change detection.
type Hasher interface {
	Hash(data []byte) string
	HashText(text string) string
}

// Clock returns the current time (injectable for tests).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces record IDs and slug collision suffixes.
type IDGenerator interface {
	NewID() (string, error)
	ShortSuffix(n int) (string, error)
}

// Publisher pushes completion events to a topic. Optional; a nil publisher
// or empty topic disables publishing.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

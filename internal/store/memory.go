package store

import (
	"context"
	"sort"
	"sync"

	"github.com/maan2529/tomatoz-project/internal/pipeline"
)

// MemoryBlogStore is an in-process pipeline.BlogStore for tests and
// database-less runs.
type MemoryBlogStore struct {
	mu    sync.RWMutex
	blogs map[string]pipeline.Blog
}

// NewMemoryBlogStore builds an empty store.
func NewMemoryBlogStore() *MemoryBlogStore {
	return &MemoryBlogStore{blogs: make(map[string]pipeline.Blog)}
}

// FindByURL returns the record for a logical source URL.
func (s *MemoryBlogStore) FindByURL(_ context.Context, url string) (*pipeline.Blog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.blogs {
		if b.OriginalURL == url {
			cp := b
			return &cp, nil
		}
	}
	return nil, pipeline.ErrNotFound
}

// FindByID returns a record by primary key.
func (s *MemoryBlogStore) FindByID(_ context.Context, id string) (*pipeline.Blog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blogs[id]
	if !ok {
		return nil, pipeline.ErrNotFound
	}
	cp := b
	return &cp, nil
}

// FindBySlug returns a record by its unique slug.
func (s *MemoryBlogStore) FindBySlug(_ context.Context, slug string) (*pipeline.Blog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.blogs {
		if b.Slug == slug {
			cp := b
			return &cp, nil
		}
	}
	return nil, pipeline.ErrNotFound
}

// List returns records newest first.
func (s *MemoryBlogStore) List(_ context.Context, limit int) ([]pipeline.Blog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]pipeline.Blog, 0, len(s.blogs))
	for _, b := range s.blogs {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Create stores a new record.
func (s *MemoryBlogStore) Create(_ context.Context, blog *pipeline.Blog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blogs[blog.ID] = *blog
	return nil
}

// Update rewrites an existing record.
func (s *MemoryBlogStore) Update(_ context.Context, blog *pipeline.Blog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blogs[blog.ID]; !ok {
		return pipeline.ErrNotFound
	}
	s.blogs[blog.ID] = *blog
	return nil
}

// Len reports the number of stored records.
func (s *MemoryBlogStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blogs)
}

// MemoryDiagramStore is an in-process pipeline.DiagramStore.
type MemoryDiagramStore struct {
	mu       sync.RWMutex
	diagrams map[string]pipeline.Diagram
}

// NewMemoryDiagramStore builds an empty store.
func NewMemoryDiagramStore() *MemoryDiagramStore {
	return &MemoryDiagramStore{diagrams: make(map[string]pipeline.Diagram)}
}

// FindByID returns one diagram.
func (s *MemoryDiagramStore) FindByID(_ context.Context, id string) (*pipeline.Diagram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.diagrams[id]
	if !ok {
		return nil, pipeline.ErrNotFound
	}
	cp := d
	return &cp, nil
}

// ListByBlog returns all diagrams owned by a blog, oldest first.
func (s *MemoryDiagramStore) ListByBlog(_ context.Context, blogID string) ([]pipeline.Diagram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []pipeline.Diagram
	for _, d := range s.diagrams {
		if d.BlogID == blogID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Create stores a validated diagram.
func (s *MemoryDiagramStore) Create(_ context.Context, d *pipeline.Diagram) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diagrams[d.ID] = *d
	return nil
}

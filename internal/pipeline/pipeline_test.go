package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Shared in-file fakes for the pipeline tests.

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

type fakeHasher struct{}

func (fakeHasher) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (h fakeHasher) HashText(text string) string {
	return h.Hash([]byte(strings.TrimSpace(text)))
}

type fakeIDs struct {
	mu sync.Mutex
	n  int
}

func (g *fakeIDs) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n), nil
}

func (g *fakeIDs) ShortSuffix(int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("sfx%d", g.n), nil
}

type memBlogStore struct {
	mu      sync.Mutex
	blogs   map[string]*Blog
	creates int
	updates int
}

func newMemBlogStore() *memBlogStore {
	return &memBlogStore{blogs: map[string]*Blog{}}
}

func (s *memBlogStore) FindByURL(_ context.Context, url string) (*Blog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.blogs {
		if b.OriginalURL == url {
			cp := *b
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memBlogStore) FindByID(_ context.Context, id string) (*Blog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blogs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *memBlogStore) FindBySlug(_ context.Context, slug string) (*Blog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.blogs {
		if b.Slug == slug {
			cp := *b
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memBlogStore) List(_ context.Context, limit int) ([]Blog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Blog
	for _, b := range s.blogs {
		out = append(out, *b)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memBlogStore) Create(_ context.Context, blog *Blog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *blog
	s.blogs[blog.ID] = &cp
	s.creates++
	return nil
}

func (s *memBlogStore) Update(_ context.Context, blog *Blog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blogs[blog.ID]; !ok {
		return ErrNotFound
	}
	cp := *blog
	s.blogs[blog.ID] = &cp
	s.updates++
	return nil
}

func (s *memBlogStore) writeCounts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates, s.updates
}

type fakeSearcher struct {
	results []SearchResult
	err     error
	calls   int
}

func (f *fakeSearcher) Search(_ context.Context, _ string, _ SearchOptions) ([]SearchResult, error) {
	f.calls++
	return f.results, f.err
}

type fakeExtractor struct {
	outcomes []ExtractionOutcome
}

func (f *fakeExtractor) ExtractAll(_ context.Context, _ []SearchResult) []ExtractionOutcome {
	return f.outcomes
}

type scriptedLLM struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
}

func (f *scriptedLLM) Invoke(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	resp := f.responses[f.calls%len(f.responses)]
	f.calls++
	return resp, nil
}

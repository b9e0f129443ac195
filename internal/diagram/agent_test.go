package diagram

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maan2529/tomatoz-project/internal/pipeline"
)

type fakeLLM struct {
	mu        sync.Mutex
	responses []string
	calls     int
}

func (f *fakeLLM) Invoke(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls >= len(f.responses) {
		return "", fmt.Errorf("unexpected call %d", f.calls)
	}
	resp := f.responses[f.calls]
	f.calls++
	return resp, nil
}

type fakeBlogStore struct {
	mu    sync.Mutex
	blogs map[string]*pipeline.Blog
}

func newFakeBlogStore(blogs ...*pipeline.Blog) *fakeBlogStore {
	s := &fakeBlogStore{blogs: map[string]*pipeline.Blog{}}
	for _, b := range blogs {
		cp := *b
		s.blogs[b.ID] = &cp
	}
	return s
}

func (s *fakeBlogStore) FindByID(_ context.Context, id string) (*pipeline.Blog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blogs[id]
	if !ok {
		return nil, pipeline.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *fakeBlogStore) FindByURL(context.Context, string) (*pipeline.Blog, error) {
	return nil, pipeline.ErrNotFound
}

func (s *fakeBlogStore) FindBySlug(context.Context, string) (*pipeline.Blog, error) {
	return nil, pipeline.ErrNotFound
}

func (s *fakeBlogStore) List(context.Context, int) ([]pipeline.Blog, error) { return nil, nil }

func (s *fakeBlogStore) Create(_ context.Context, b *pipeline.Blog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.blogs[b.ID] = &cp
	return nil
}

func (s *fakeBlogStore) Update(_ context.Context, b *pipeline.Blog) error {
	return s.Create(context.Background(), b)
}

func (s *fakeBlogStore) get(id string) *pipeline.Blog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blogs[id]
}

type fakeDiagramStore struct {
	mu       sync.Mutex
	diagrams map[string]*pipeline.Diagram
}

func newFakeDiagramStore() *fakeDiagramStore {
	return &fakeDiagramStore{diagrams: map[string]*pipeline.Diagram{}}
}

func (s *fakeDiagramStore) FindByID(_ context.Context, id string) (*pipeline.Diagram, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.diagrams[id]
	if !ok {
		return nil, pipeline.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *fakeDiagramStore) ListByBlog(_ context.Context, blogID string) ([]pipeline.Diagram, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []pipeline.Diagram
	for _, d := range s.diagrams {
		if d.BlogID == blogID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *fakeDiagramStore) Create(_ context.Context, d *pipeline.Diagram) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.diagrams[d.ID] = &cp
	return nil
}

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n), nil
}

func (g *seqIDs) ShortSuffix(int) (string, error) { return "abc123", nil }

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func testBlog(status pipeline.DiagramStatus) *pipeline.Blog {
	return &pipeline.Blog{
		ID:            "blog-1",
		Title:         "React 20 Compiler",
		Markdown:      "The build pipeline runs parse, optimize, then emit, in that order.",
		Summary:       "- Parse\n- Optimize\n- Emit",
		DiagramStatus: status,
	}
}

func newTestAgent(llm *fakeLLM, blogs *fakeBlogStore, diagrams *fakeDiagramStore) *Agent {
	return NewAgent(llm, blogs, diagrams, &seqIDs{}, fixedClock{now: time.Unix(1756600000, 0)}, nil, "", zap.NewNop())
}

const viableAnalysis = "```json\n" +
	`{"isViable":true,"reasoning":"clear pipeline","recommendedType":"flowchart","confidence":0.9}` +
	"\n```"

const goodFlowchart = `{"nodes":[{"id":"A","label":"Parse"},{"id":"B","label":"Optimize"},{"id":"C","label":"Emit"}],` +
	`"edges":[{"from":"A","to":"B"},{"from":"B","to":"C"}]}`

func TestAgentHappyPath(t *testing.T) {
	t.Parallel()

	blogs := newFakeBlogStore(testBlog(pipeline.DiagramPending))
	diagrams := newFakeDiagramStore()
	llm := &fakeLLM{responses: []string{viableAnalysis, goodFlowchart}}

	out, err := newTestAgent(llm, blogs, diagrams).Execute(context.Background(), "blog-1")
	require.NoError(t, err)
	require.True(t, out.Success)
	require.Equal(t, "flowchart", out.DiagramType)
	require.NotEmpty(t, out.DiagramID)

	blog := blogs.get("blog-1")
	require.Equal(t, pipeline.DiagramCompleted, blog.DiagramStatus)
	require.Equal(t, []string{out.DiagramID}, blog.DiagramIDs)
	require.Empty(t, blog.DiagramError)

	saved, err := diagrams.FindByID(context.Background(), out.DiagramID)
	require.NoError(t, err)
	require.Equal(t, pipeline.DiagramRecordSuccess, saved.Status)
	require.Contains(t, saved.Title, "Flowchart Diagram")
	require.Contains(t, saved.Explanation, "90% confidence")
}

func TestAgentSkipsNonViableContent(t *testing.T) {
	t.Parallel()

	blogs := newFakeBlogStore(testBlog(pipeline.DiagramPending))
	llm := &fakeLLM{responses: []string{
		`{"isViable":false,"reasoning":"purely narrative content","recommendedType":null,"confidence":0.8}`,
	}}

	out, err := newTestAgent(llm, blogs, newFakeDiagramStore()).Execute(context.Background(), "blog-1")
	require.NoError(t, err)
	require.False(t, out.Success)
	require.True(t, out.Skipped)
	require.Equal(t, "purely narrative content", out.Reason)

	require.Equal(t, pipeline.DiagramSkipped, blogs.get("blog-1").DiagramStatus)
	require.Equal(t, 1, llm.calls)
}

func TestAgentRetriesGenerationThenFails(t *testing.T) {
	t.Parallel()

	blogs := newFakeBlogStore(testBlog(pipeline.DiagramPending))
	llm := &fakeLLM{responses: []string{
		viableAnalysis,
		"sorry, here is prose instead of JSON",
		"still not { valid",
		"nope",
	}}

	out, err := newTestAgent(llm, blogs, newFakeDiagramStore()).Execute(context.Background(), "blog-1")
	require.NoError(t, err)
	require.False(t, out.Success)
	require.False(t, out.Skipped)
	require.Contains(t, out.Reason, "generation failed after 3 attempts")

	blog := blogs.get("blog-1")
	require.Equal(t, pipeline.DiagramFailed, blog.DiagramStatus)
	require.NotEmpty(t, blog.DiagramError)
	require.Equal(t, 4, llm.calls)
}

func TestAgentRetryRecovers(t *testing.T) {
	t.Parallel()

	blogs := newFakeBlogStore(testBlog(pipeline.DiagramPending))
	llm := &fakeLLM{responses: []string{
		viableAnalysis,
		"not json at all",
		"```json\n" + goodFlowchart + "\n```",
	}}

	out, err := newTestAgent(llm, blogs, newFakeDiagramStore()).Execute(context.Background(), "blog-1")
	require.NoError(t, err)
	require.True(t, out.Success)
	require.Equal(t, pipeline.DiagramCompleted, blogs.get("blog-1").DiagramStatus)
}

func TestAgentValidationFailure(t *testing.T) {
	t.Parallel()

	blogs := newFakeBlogStore(testBlog(pipeline.DiagramPending))
	dangling := `{"nodes":[{"id":"A","label":"Parse"}],"edges":[{"from":"A","to":"Z"}]}`
	llm := &fakeLLM{responses: []string{viableAnalysis, dangling}}

	out, err := newTestAgent(llm, blogs, newFakeDiagramStore()).Execute(context.Background(), "blog-1")
	require.NoError(t, err)
	require.False(t, out.Success)
	require.False(t, out.Skipped)
	require.Contains(t, out.Reason, `non-existent node: "Z"`)
	require.Equal(t, pipeline.DiagramFailed, blogs.get("blog-1").DiagramStatus)
}

func TestAgentAnalysisParseFailureIsFatal(t *testing.T) {
	t.Parallel()

	blogs := newFakeBlogStore(testBlog(pipeline.DiagramPending))
	llm := &fakeLLM{responses: []string{"I think a diagram would be nice."}}

	out, err := newTestAgent(llm, blogs, newFakeDiagramStore()).Execute(context.Background(), "blog-1")
	require.NoError(t, err)
	require.False(t, out.Success)
	require.False(t, out.Skipped)
	require.Contains(t, out.Reason, "invalid JSON")
	require.Equal(t, pipeline.DiagramFailed, blogs.get("blog-1").DiagramStatus)
	require.Equal(t, 1, llm.calls)
}

func TestAgentRejectsConcurrentRequest(t *testing.T) {
	t.Parallel()

	blogs := newFakeBlogStore(testBlog(pipeline.DiagramProcessing))
	llm := &fakeLLM{}

	_, err := newTestAgent(llm, blogs, newFakeDiagramStore()).Execute(context.Background(), "blog-1")
	require.ErrorIs(t, err, ErrInProgress)
	require.Equal(t, 0, llm.calls)
}

func TestAgentIdempotentWhenCompleted(t *testing.T) {
	t.Parallel()

	blog := testBlog(pipeline.DiagramCompleted)
	blog.DiagramIDs = []string{"existing-diagram"}
	blogs := newFakeBlogStore(blog)
	llm := &fakeLLM{}

	out, err := newTestAgent(llm, blogs, newFakeDiagramStore()).Execute(context.Background(), "blog-1")
	require.NoError(t, err)
	require.True(t, out.Success)
	require.True(t, out.Skipped)
	require.Equal(t, "existing-diagram", out.DiagramID)
	require.Equal(t, 0, llm.calls)
}

func TestAgentUnknownBlog(t *testing.T) {
	t.Parallel()

	_, err := newTestAgent(&fakeLLM{}, newFakeBlogStore(), newFakeDiagramStore()).Execute(context.Background(), "ghost")
	require.ErrorIs(t, err, pipeline.ErrNotFound)
}

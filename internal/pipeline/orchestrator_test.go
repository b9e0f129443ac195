package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testClock = &fakeClock{now: time.Unix(1756600000, 0).UTC()}

func newTestOrchestrator(
	searcher SearchClient,
	extractor Extractor,
	llm LLM,
	store BlogStore,
) *Orchestrator {
	return NewOrchestrator(
		searcher, extractor, llm, store,
		fakeHasher{}, testClock, &fakeIDs{}, nil, "",
		zap.NewNop(),
	)
}

func freshArticle(url, title string) *ExtractedArticle {
	return &ExtractedArticle{
		Title:       title,
		OriginalURL: url,
		Domain:      "react.dev",
		Markdown:    strings.Repeat("React 20 ships a compiler that handles memoization automatically. ", 10),
	}
}

func longDraft() string {
	return strings.Repeat("An in-depth look at the new compiler pipeline and what it changes. ", 5)
}

func TestExecuteNewSource(t *testing.T) {
	t.Parallel()

	source := SearchResult{Title: "React 20", URL: "https://react.dev/blog/react-20"}
	searcher := &fakeSearcher{results: []SearchResult{source}}
	extractor := &fakeExtractor{outcomes: []ExtractionOutcome{
		{Source: source, Article: freshArticle(source.URL, "React 20: The Compiler Era")},
	}}
	llm := &scriptedLLM{responses: []string{longDraft(), "- compiler\n- smaller bundles\n- stable actions"}}
	store := newMemBlogStore()

	report := newTestOrchestrator(searcher, extractor, llm, store).
		Execute(context.Background(), "react", Options{MaxSources: 3})

	require.True(t, report.Success)
	require.Equal(t, 1, report.TotalBlogs)
	require.Len(t, report.Blogs, 1)
	require.Equal(t, ChangeNew, report.Blogs[0].Change)
	require.Equal(t, "react-20-the-compiler-era", report.Blogs[0].Slug)

	creates, updates := store.writeCounts()
	require.Equal(t, 1, creates)
	require.Equal(t, 0, updates)

	saved, err := store.FindBySlug(context.Background(), "react-20-the-compiler-era")
	require.NoError(t, err)
	require.Equal(t, ProcessingReady, saved.ProcessingStatus)
	require.Equal(t, DiagramPending, saved.DiagramStatus)
	require.NotEmpty(t, saved.ContentHash)
	require.Equal(t, []string{"react", "technology", "updates"}, saved.Tags[:3])
}

func TestExecuteUnchangedSourceWritesNothing(t *testing.T) {
	t.Parallel()

	source := SearchResult{URL: "https://react.dev/blog/react-20"}
	article := freshArticle(source.URL, "React 20")
	hasher := fakeHasher{}

	store := newMemBlogStore()
	require.NoError(t, store.Create(context.Background(), &Blog{
		ID:          "existing",
		OriginalURL: source.URL,
		Slug:        "react-20",
		ContentHash: hasher.HashText(article.Markdown),
	}))
	creates0, _ := store.writeCounts()

	searcher := &fakeSearcher{results: []SearchResult{source}}
	extractor := &fakeExtractor{outcomes: []ExtractionOutcome{{Source: source, Article: article}}}
	llm := &scriptedLLM{responses: []string{"must not be called"}}

	report := newTestOrchestrator(searcher, extractor, llm, store).
		Execute(context.Background(), "react", Options{})

	require.True(t, report.Success)
	require.Equal(t, 0, report.TotalBlogs)
	require.Equal(t, 1, report.Generation.Skipped)
	require.Equal(t, 0, llm.calls)

	creates, updates := store.writeCounts()
	require.Equal(t, creates0, creates)
	require.Equal(t, 0, updates)
}

func TestExecuteChangedSourceUpdatesInPlace(t *testing.T) {
	t.Parallel()

	source := SearchResult{URL: "https://react.dev/blog/react-20"}
	article := freshArticle(source.URL, "React 20 Revised")

	store := newMemBlogStore()
	require.NoError(t, store.Create(context.Background(), &Blog{
		ID:          "existing",
		OriginalURL: source.URL,
		Slug:        "react-20",
		Title:       "React 20",
		ContentHash: "stale-hash",
		CreatedAt:   testClock.Now().Add(-24 * time.Hour),
	}))

	searcher := &fakeSearcher{results: []SearchResult{source}}
	extractor := &fakeExtractor{outcomes: []ExtractionOutcome{{Source: source, Article: article}}}
	llm := &scriptedLLM{responses: []string{longDraft(), "- updated summary"}}

	report := newTestOrchestrator(searcher, extractor, llm, store).
		Execute(context.Background(), "react", Options{})

	require.True(t, report.Success)
	require.Equal(t, 1, report.TotalBlogs)
	require.Equal(t, ChangeChanged, report.Blogs[0].Change)

	creates, updates := store.writeCounts()
	require.Equal(t, 1, creates)
	require.Equal(t, 1, updates)

	updated, err := store.FindByID(context.Background(), "existing")
	require.NoError(t, err)
	// Slug survives an in-place update; hash tracks the new content.
	require.Equal(t, "react-20", updated.Slug)
	require.Equal(t, fakeHasher{}.HashText(article.Markdown), updated.ContentHash)
	require.Equal(t, "React 20 Revised", updated.Title)
}

func TestExecuteNoSearchResultsIsFatal(t *testing.T) {
	t.Parallel()

	report := newTestOrchestrator(
		&fakeSearcher{results: nil},
		&fakeExtractor{},
		&scriptedLLM{responses: []string{"unused"}},
		newMemBlogStore(),
	).Execute(context.Background(), "obscuretech", Options{})

	require.False(t, report.Success)
	require.Contains(t, report.Error, "no search results")
	require.Equal(t, 0, report.TotalBlogs)
}

func TestExecuteNoSurvivorsIsFatal(t *testing.T) {
	t.Parallel()

	source := SearchResult{URL: "https://broken.example.com"}
	searcher := &fakeSearcher{results: []SearchResult{source}}
	extractor := &fakeExtractor{outcomes: []ExtractionOutcome{
		{Source: source, Err: context.DeadlineExceeded},
	}}

	report := newTestOrchestrator(searcher, extractor, &scriptedLLM{responses: []string{"unused"}}, newMemBlogStore()).
		Execute(context.Background(), "react", Options{})

	require.False(t, report.Success)
	require.Contains(t, report.Error, "no content could be extracted")
	require.Equal(t, 1, report.Extraction.Failed)
}

func TestExecuteDirectURLSkipsSearch(t *testing.T) {
	t.Parallel()

	url := "https://react.dev/blog/react-20"
	searcher := &fakeSearcher{}
	extractor := &fakeExtractor{outcomes: []ExtractionOutcome{
		{Source: SearchResult{URL: url}, Article: freshArticle(url, "React 20")},
	}}
	llm := &scriptedLLM{responses: []string{longDraft(), "- summary line"}}

	report := newTestOrchestrator(searcher, extractor, llm, newMemBlogStore()).
		Execute(context.Background(), url, Options{})

	require.True(t, report.Success)
	require.Equal(t, 0, searcher.calls)
	require.Equal(t, 1, report.TotalBlogs)
}

func TestExecuteShortDraftDropsArticle(t *testing.T) {
	t.Parallel()

	source := SearchResult{URL: "https://react.dev/blog/react-20"}
	searcher := &fakeSearcher{results: []SearchResult{source}}
	extractor := &fakeExtractor{outcomes: []ExtractionOutcome{
		{Source: source, Article: freshArticle(source.URL, "React 20")},
	}}
	llm := &scriptedLLM{responses: []string{strings.Repeat("x", 120), "short"}}

	report := newTestOrchestrator(searcher, extractor, llm, newMemBlogStore()).
		Execute(context.Background(), "react", Options{})

	require.True(t, report.Success)
	require.Equal(t, 1, report.TotalBlogs)

	tiny := &scriptedLLM{responses: []string{"too short", "summary"}}
	report = newTestOrchestrator(searcher, extractor, tiny, newMemBlogStore()).
		Execute(context.Background(), "react", Options{})

	require.False(t, report.Success)
	require.Contains(t, report.Error, "failed to generate any blogs")
	require.Equal(t, 1, report.Generation.Failed)
}

func TestIsDirectURL(t *testing.T) {
	t.Parallel()

	require.True(t, IsDirectURL("https://react.dev/blog"))
	require.True(t, IsDirectURL("http://example.com"))
	require.False(t, IsDirectURL("react"))
	require.False(t, IsDirectURL("react.dev/blog"))
	require.False(t, IsDirectURL("https://"))
}

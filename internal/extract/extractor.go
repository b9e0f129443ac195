// Package extract turns candidate source URLs into cleaned markdown
// articles. Static pages are served from a plain probe fetch; pages that
// need client-side rendering are promoted to headless Chrome.
package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/maan2529/tomatoz-project/internal/archive"
	"github.com/maan2529/tomatoz-project/internal/pipeline"
)

const (
	defaultWindow = 2

	// One request per second per origin host.
	perDomainRate  = 1
	perDomainBurst = 1
)

// pageFetcher renders a page and returns its HTML. Satisfied by Renderer;
// swapped for a fake in tests.
type pageFetcher interface {
	Render(ctx context.Context, rawURL string) (string, error)
}

// staticFetcher issues plain GETs. Satisfied by Prober.
type staticFetcher interface {
	Fetch(rawURL string) (string, error)
}

// Service implements pipeline.Extractor.
type Service struct {
	prober   staticFetcher
	renderer pageFetcher
	cleaner  *Cleaner
	archive  archive.Store
	retry    RetryPolicy
	clock    pipeline.Clock
	window   int
	rps      rate.Limit
	logger   *zap.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewService wires an extraction service. store may be nil to disable
// snapshot archiving.
func NewService(store archive.Store, clock pipeline.Clock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		prober:   NewProber(),
		renderer: NewRenderer(logger),
		cleaner:  NewCleaner(),
		archive:  store,
		retry:    DefaultRetryPolicy(),
		clock:    clock,
		window:   defaultWindow,
		rps:      perDomainRate,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Tuning adjusts the concurrency window, retry policy, fetch timeouts and
// the per-domain request rate.
type Tuning struct {
	Window       int
	MaxRetries   int
	RetryDelay   time.Duration
	FetchTimeout time.Duration
	NavTimeout   time.Duration
	PerDomainRPS int
}

// Tune applies non-zero overrides from configuration.
func (s *Service) Tune(t Tuning) {
	if t.Window > 0 {
		s.window = t.Window
	}
	if t.MaxRetries > 0 {
		s.retry.MaxRetries = t.MaxRetries
	}
	if t.RetryDelay > 0 {
		s.retry.Delay = t.RetryDelay
	}
	if t.FetchTimeout > 0 {
		if p, ok := s.prober.(*Prober); ok {
			p.timeout = t.FetchTimeout
		}
	}
	if t.NavTimeout > 0 {
		if r, ok := s.renderer.(*Renderer); ok {
			r.navTimeout = t.NavTimeout
		}
	}
	if t.PerDomainRPS > 0 {
		s.rps = rate.Limit(t.PerDomainRPS)
	}
}

// ExtractAll processes sources with a bounded concurrency window and
// settle-all semantics: every source yields an outcome regardless of how
// its siblings fared.
func (s *Service) ExtractAll(ctx context.Context, sources []pipeline.SearchResult) []pipeline.ExtractionOutcome {
	sem := make(chan struct{}, s.window)
	outcomes := make([]pipeline.ExtractionOutcome, 0, len(sources))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for _, src := range sources {
		wg.Add(1)
		go func(src pipeline.SearchResult) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			article, err := s.extractOne(ctx, src)
			mu.Lock()
			outcomes = append(outcomes, pipeline.ExtractionOutcome{
				Source:  src,
				Article: article,
				Err:     err,
			})
			mu.Unlock()
		}(src)
	}

	wg.Wait()
	return outcomes
}

// extractOne returns (nil, nil) for deliberate skips, (nil, err) for
// failures, and a populated article otherwise.
func (s *Service) extractOne(ctx context.Context, src pipeline.SearchResult) (*pipeline.ExtractedArticle, error) {
	if reason := SkipReason(src.URL); reason != "" {
		s.logger.Info("skipping source", zap.String("url", src.URL), zap.String("reason", reason))
		return nil, nil
	}

	// Search results that already carry full raw content skip fetching
	// entirely.
	if md := postprocess(src.RawContent); len(md) >= minContentLen {
		return s.article(src, md, src.Title), nil
	}

	if err := s.waitDomain(ctx, src.URL); err != nil {
		return nil, err
	}

	var html string
	err := s.retry.Do(ctx, func() error {
		var fetchErr error
		html, fetchErr = s.fetch(ctx, src.URL)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	archiveURI := s.archiveSnapshot(ctx, src.URL, html)

	markdown, err := s.cleaner.Clean(html)
	if err != nil {
		return nil, fmt.Errorf("clean %q: %w", src.URL, err)
	}

	title := Title(html)
	if title == "" {
		title = src.Title
	}

	art := s.article(src, markdown, title)
	art.ArchiveURI = archiveURI
	return art, nil
}

// fetch probes statically first and promotes to the browser only when the
// static HTML shows signs of client-side rendering.
func (s *Service) fetch(ctx context.Context, rawURL string) (string, error) {
	static, err := s.prober.Fetch(rawURL)
	if err == nil && !NeedsRendering(static) {
		return static, nil
	}
	if err != nil {
		s.logger.Debug("static probe failed, rendering", zap.String("url", rawURL), zap.Error(err))
	}
	return s.renderer.Render(ctx, rawURL)
}

func (s *Service) article(src pipeline.SearchResult, markdown, title string) *pipeline.ExtractedArticle {
	return &pipeline.ExtractedArticle{
		Title:       strings.TrimSpace(title),
		OriginalURL: src.URL,
		Domain:      hostOf(src.URL),
		PublishedAt: src.PublishedAt,
		Markdown:    markdown,
	}
}

func (s *Service) archiveSnapshot(ctx context.Context, rawURL, html string) string {
	if s.archive == nil {
		return ""
	}
	key := fmt.Sprintf("%s/%d.html", hostOf(rawURL), s.clock.Now().UnixNano())
	uri, err := s.archive.Save(ctx, key, []byte(html), "text/html")
	if err != nil {
		s.logger.Warn("archive snapshot failed", zap.String("url", rawURL), zap.Error(err))
		return ""
	}
	return uri
}

// waitDomain throttles requests per origin host.
func (s *Service) waitDomain(ctx context.Context, rawURL string) error {
	host := hostOf(rawURL)

	s.mu.Lock()
	limiter, ok := s.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(s.rps, perDomainBurst)
		s.limiters[host] = limiter
	}
	s.mu.Unlock()

	return limiter.Wait(ctx)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}

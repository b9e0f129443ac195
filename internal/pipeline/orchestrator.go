package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/maan2529/tomatoz-project/internal/metrics"
)

const defaultMaxSources = 5

// Orchestrator sequences one ingestion run: search, extract, change-detect,
// generate, persist. Stages are strictly sequential; only extraction fans
// out internally with its own bounded window.
type Orchestrator struct {
	searcher  SearchClient
	extractor Extractor
	generator *Generator
	blogs     BlogStore
	detector  *ChangeDetector
	slugs     *SlugResolver
	hasher    Hasher
	clock     Clock
	ids       IDGenerator
	publisher Publisher
	topic     string
	logger    *zap.Logger

	// memory is the append-only context log for the current run. Runs are
	// sequential per Orchestrator; concurrent Execute calls need separate
	// instances.
	memory []MemoryEntry
}

// NewOrchestrator wires a pipeline from its collaborators. publisher may be
// nil; topic may be empty.
func NewOrchestrator(
	searcher SearchClient,
	extractor Extractor,
	llm LLM,
	blogs BlogStore,
	hasher Hasher,
	clock Clock,
	ids IDGenerator,
	publisher Publisher,
	topic string,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		searcher:  searcher,
		extractor: extractor,
		generator: NewGenerator(llm, logger),
		blogs:     blogs,
		detector:  NewChangeDetector(blogs, hasher),
		slugs:     NewSlugResolver(blogs, ids),
		hasher:    hasher,
		clock:     clock,
		ids:       ids,
		publisher: publisher,
		topic:     topic,
		logger:    logger,
	}
}

// Execute runs the full pipeline for a technology keyword or a direct URL.
// It always returns a structured Report; run-fatal conditions surface as
// Success=false with the error message, never as a returned error.
func (o *Orchestrator) Execute(ctx context.Context, techOrURL string, opts Options) Report {
	started := o.clock.Now()
	o.memory = nil

	report := Report{
		Technology:  techOrURL,
		ProcessedAt: started,
	}

	err := o.run(ctx, techOrURL, opts, &report)
	report.Duration = o.clock.Now().Sub(started)
	if err != nil {
		report.Success = false
		report.Error = err.Error()
		o.logger.Error("pipeline run failed",
			zap.String("input", techOrURL),
			zap.Duration("duration", report.Duration),
			zap.Error(err),
		)
		metrics.RecordPipelineRun("failed", report.Duration)
		return report
	}

	report.Success = true
	metrics.RecordPipelineRun("succeeded", report.Duration)
	o.logger.Info("pipeline run completed",
		zap.String("input", techOrURL),
		zap.Int("total_blogs", report.TotalBlogs),
		zap.Duration("duration", report.Duration),
	)
	o.publishReport(ctx, report)
	return report
}

func (o *Orchestrator) run(ctx context.Context, techOrURL string, opts Options, report *Report) error {
	if opts.MaxSources <= 0 {
		opts.MaxSources = defaultMaxSources
	}

	sources, err := o.collectSources(ctx, techOrURL, opts)
	if err != nil {
		return err
	}

	outcomes := o.extractor.ExtractAll(ctx, sources)
	articles := o.tallyExtraction(outcomes, report)
	if len(articles) == 0 {
		return ErrNoExtractableContent
	}

	saved := o.generateAndPersist(ctx, techOrURL, opts, articles, report)
	if report.Generation.Succeeded == 0 && report.Generation.Skipped == 0 {
		return ErrNoBlogsGenerated
	}

	report.Blogs = saved
	report.TotalBlogs = len(saved)
	return nil
}

// collectSources returns either the single direct URL wrapped as a source,
// or the search stage's prioritized list. Search failure and an empty
// result set are both fatal to the run.
func (o *Orchestrator) collectSources(ctx context.Context, techOrURL string, opts Options) ([]SearchResult, error) {
	if IsDirectURL(techOrURL) {
		o.logger.Info("direct url mode", zap.String("url", techOrURL))
		return []SearchResult{{
			Title:       "Manual Source",
			URL:         techOrURL,
			PublishedAt: o.clock.Now(),
		}}, nil
	}

	o.logger.Info("keyword search mode", zap.String("tech", techOrURL))
	results, err := o.searcher.Search(ctx, techOrURL, SearchOptions{
		MaxSources:  opts.MaxSources,
		RecencyDays: opts.RecencyDays,
	})
	if err != nil {
		return nil, fmt.Errorf("search failed for %q: %w", techOrURL, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w for %q", ErrNoSearchResults, techOrURL)
	}
	return results, nil
}

func (o *Orchestrator) tallyExtraction(outcomes []ExtractionOutcome, report *Report) []ExtractedArticle {
	var articles []ExtractedArticle
	for _, out := range outcomes {
		switch {
		case out.Err != nil:
			report.Extraction.Failed++
			metrics.RecordExtraction("failed")
			o.logger.Warn("source extraction failed",
				zap.String("url", out.Source.URL),
				zap.Error(out.Err),
			)
		case out.Article == nil:
			report.Extraction.Skipped++
			metrics.RecordExtraction("skipped")
		default:
			report.Extraction.Succeeded++
			metrics.RecordExtraction("succeeded")
			articles = append(articles, *out.Article)
		}
	}
	return articles
}

func (o *Orchestrator) generateAndPersist(
	ctx context.Context,
	tech string,
	opts Options,
	articles []ExtractedArticle,
	report *Report,
) []BlogOutcome {
	var saved []BlogOutcome
	for _, article := range articles {
		outcome, err := o.processArticle(ctx, tech, opts, article, report)
		if err != nil {
			report.Persistence.Failed++
			o.logger.Warn("article dropped",
				zap.String("url", article.OriginalURL),
				zap.Error(err),
			)
			continue
		}
		if outcome != nil {
			saved = append(saved, *outcome)
		}
	}
	return saved
}

// processArticle takes one article through change detection, generation and
// persistence. A nil outcome with nil error means an idempotent skip.
func (o *Orchestrator) processArticle(
	ctx context.Context,
	tech string,
	opts Options,
	article ExtractedArticle,
	report *Report,
) (*BlogOutcome, error) {
	article.ContentHash = o.hasher.HashText(article.Markdown)

	class, err := o.detector.Classify(ctx, article)
	if err != nil {
		return nil, err
	}
	if class.Kind == ChangeUnchanged {
		report.Generation.Skipped++
		o.logger.Info("source unchanged, skipping",
			zap.String("url", article.OriginalURL),
		)
		return nil, nil
	}

	result, err := o.generator.Generate(ctx, tech, article)
	if err != nil {
		report.Generation.Failed++
		return nil, err
	}
	if DraftTooShort(result.Draft) {
		report.Generation.Failed++
		return nil, fmt.Errorf("generated draft too short for %q", article.OriginalURL)
	}
	report.Generation.Succeeded++

	blog, err := o.persist(ctx, tech, opts, article, class, result)
	if err != nil {
		return nil, err
	}
	report.Persistence.Succeeded++
	metrics.RecordBlogWrite(string(class.Kind))

	o.memory = append(o.memory, MemoryEntry{
		Title:   blog.Title,
		Summary: blog.Summary,
		URL:     blog.OriginalURL,
	})

	return &BlogOutcome{
		ID:          blog.ID,
		Title:       blog.Title,
		Slug:        blog.Slug,
		Summary:     blog.Summary,
		Tags:        blog.Tags,
		ReadingTime: blog.ReadingTimeMinutes,
		URL:         blog.OriginalURL,
		Change:      class.Kind,
	}, nil
}

func (o *Orchestrator) persist(
	ctx context.Context,
	tech string,
	opts Options,
	article ExtractedArticle,
	class Classification,
	result GenerationResult,
) (*Blog, error) {
	now := o.clock.Now()

	if class.Kind == ChangeChanged {
		blog := class.Existing
		blog.Title = TitleFor(article)
		blog.Markdown = result.Draft
		blog.Summary = result.Summary
		blog.Highlights = ExtractHighlights(result.Summary)
		blog.Tags = DeriveTags(tech, result.Draft)
		blog.ReadingTimeMinutes = ReadingTime(result.Draft)
		// Hash and markdown move together in the same save so a re-crawl
		// always compares against the revision it actually stored.
		blog.ContentHash = class.Hash
		blog.ProcessingStatus = ProcessingReady
		blog.ArchiveURI = article.ArchiveURI
		blog.UpdatedAt = now
		if err := o.blogs.Update(ctx, blog); err != nil {
			return nil, fmt.Errorf("update blog %q: %w", blog.ID, err)
		}
		return blog, nil
	}

	id, err := o.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("blog id: %w", err)
	}
	title := TitleFor(article)
	uniqueSlug, err := o.slugs.Resolve(ctx, Slugify(title))
	if err != nil {
		return nil, err
	}

	blog := &Blog{
		ID:                 id,
		UserID:             opts.UserID,
		OriginalURL:        article.OriginalURL,
		Source:             article.Domain,
		Title:              title,
		Slug:               uniqueSlug,
		Markdown:           result.Draft,
		Summary:            result.Summary,
		Highlights:         ExtractHighlights(result.Summary),
		Tags:               DeriveTags(tech, result.Draft),
		Language:           "en",
		ProcessingStatus:   ProcessingReady,
		ContentHash:        article.ContentHash,
		ReadingTimeMinutes: ReadingTime(result.Draft),
		Published:          false,
		PublishedAt:        article.PublishedAt,
		ArchiveURI:         article.ArchiveURI,
		DiagramStatus:      DiagramPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := o.blogs.Create(ctx, blog); err != nil {
		return nil, fmt.Errorf("create blog %q: %w", blog.Slug, err)
	}
	return blog, nil
}

func (o *Orchestrator) publishReport(ctx context.Context, report Report) {
	if o.publisher == nil || o.topic == "" {
		return
	}
	payload := map[string]any{
		"technology":   report.Technology,
		"total_blogs":  report.TotalBlogs,
		"processed_at": report.ProcessedAt,
		"duration_ms":  report.Duration.Milliseconds(),
	}
	if _, err := o.publisher.Publish(ctx, o.topic, payload); err != nil {
		o.logger.Warn("publish pipeline report failed", zap.Error(err))
	}
}

// Memory returns the run's append-only context log.
func (o *Orchestrator) Memory() []MemoryEntry {
	return o.memory
}

// IsDirectURL reports whether the input should be treated as a URL to
// extract directly rather than a keyword to search.
func IsDirectURL(input string) bool {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		return false
	}
	u, err := url.Parse(input)
	return err == nil && u.Host != ""
}

// Package search finds candidate release-note and changelog pages for a
// technology via the Tavily search API and ranks official sources first.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/maan2529/tomatoz-project/internal/pipeline"
)

const (
	defaultEndpoint = "https://api.tavily.com/search"
	defaultTimeout  = 30 * time.Second

	queryTemplate = `latest %s updates OR "%s changelog" OR "%s release notes" OR "%s roadmap"`
)

// Config holds the Tavily client settings.
type Config struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// Client queries Tavily. Implements pipeline.SearchClient.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewClient builds a Tavily client. Endpoint and Timeout fall back to
// defaults when zero.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type searchRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	MaxResults     int      `json:"max_results"`
	TimeRange      string   `json:"time_range,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	IncludeRaw     bool     `json:"include_raw_content"`
}

type searchResponse struct {
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       string  `json:"content"`
		RawContent    string  `json:"raw_content"`
		Score         float64 `json:"score"`
		PublishedDate string  `json:"published_date"`
	} `json:"results"`
}

// Search runs one Tavily query for the technology and returns the
// prioritized, deduplicated top results. Over-fetches at twice the source
// budget so official domains survive the cut.
func (c *Client) Search(ctx context.Context, tech string, opts pipeline.SearchOptions) ([]pipeline.SearchResult, error) {
	if opts.MaxSources <= 0 {
		opts.MaxSources = 5
	}

	req := searchRequest{
		APIKey:         c.cfg.APIKey,
		Query:          fmt.Sprintf(queryTemplate, tech, tech, tech, tech),
		SearchDepth:    "advanced",
		MaxResults:     opts.MaxSources * 2,
		TimeRange:      timeRange(opts.RecencyDays),
		IncludeDomains: OfficialDomainsFor(tech),
		IncludeRaw:     true,
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	results := make([]pipeline.SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, pipeline.SearchResult{
			Title:       r.Title,
			URL:         r.URL,
			Content:     r.Content,
			RawContent:  r.RawContent,
			Score:       r.Score,
			PublishedAt: parsePublished(r.PublishedDate),
		})
	}

	prioritized := Prioritize(tech, results, opts.MaxSources)
	c.logger.Info("search completed",
		zap.String("tech", tech),
		zap.Int("raw_results", len(results)),
		zap.Int("selected", len(prioritized)),
	)
	return prioritized, nil
}

func (c *Client) do(ctx context.Context, req searchRequest) (*searchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, fmt.Errorf("search returned status %d: %s", httpResp.StatusCode, snippet)
	}

	var resp searchResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &resp, nil
}

// timeRange converts a recency window in days to Tavily's coarse buckets.
func timeRange(days int) string {
	switch {
	case days <= 0:
		return ""
	case days <= 1:
		return "day"
	case days <= 7:
		return "week"
	case days <= 31:
		return "month"
	default:
		return "year"
	}
}

func parsePublished(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "Mon, 02 Jan 2006 15:04:05 MST"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

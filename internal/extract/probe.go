package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

const (
	probeUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	probeTimeout   = 15 * time.Second

	// Below this visible-text length a page is assumed to render its
	// content client side.
	probeMinText = 500
)

var spaRootMarkers = regexp.MustCompile(
	`<div[^>]+id=["'](?:root|app|__next|___gatsby)["'][^>]*>\s*</div>`,
)

var jsRequiredPhrases = []string{
	"enable javascript",
	"javascript is required",
	"javascript is disabled",
	"please turn on javascript",
}

// Prober fetches a page statically and decides whether it needs a browser.
type Prober struct {
	timeout time.Duration
}

// NewProber builds a Prober with the default timeout.
func NewProber() *Prober {
	return &Prober{timeout: probeTimeout}
}

// Fetch issues one plain GET and returns the response body.
func (p *Prober) Fetch(rawURL string) (string, error) {
	c := colly.NewCollector(
		colly.UserAgent(probeUserAgent),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(p.timeout)

	var body string
	c.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
	})

	if err := c.Visit(rawURL); err != nil {
		return "", fmt.Errorf("probe fetch %q: %w", rawURL, err)
	}
	if body == "" {
		return "", fmt.Errorf("probe fetch %q: empty response", rawURL)
	}
	return body, nil
}

// NeedsRendering inspects static HTML for signs the real content only
// exists after client-side rendering.
func NeedsRendering(html string) bool {
	if spaRootMarkers.MatchString(html) {
		return true
	}

	lower := strings.ToLower(html)
	for _, phrase := range jsRequiredPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return true
	}
	doc.Find("script, style, noscript").Remove()
	text := strings.Join(strings.Fields(doc.Text()), " ")
	return len(text) < probeMinText
}

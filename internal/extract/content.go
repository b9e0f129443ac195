package extract

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

const (
	// minContentLen gates raw page regions; minMarkdownLen gates the final
	// converted markdown, which is denser than the HTML text it came from.
	minContentLen   = 200
	minMarkdownLen  = 100
	maxMarkdownLen  = 15000
	truncatedMarker = "\n\n[Content truncated...]"
)

// contentSelectors is the priority order for locating the main article body.
// The first selector with a non-trivial match wins.
var contentSelectors = []string{
	"main article",
	"main",
	"article",
	`[role="main"]`,
	".content",
	".post-content",
	".article-content",
	"#content",
	"body",
}

// boilerplateSelector matches chrome and noise stripped before conversion.
const boilerplateSelector = `script, style, noscript, iframe, nav, header, footer, aside, ` +
	`.sidebar, .advertisement, .ad, .ads, .social-share, .comments, ` +
	`[role="banner"], [role="navigation"], [role="complementary"], ` +
	`.cookie-banner, .newsletter, #comments`

var multiNewline = regexp.MustCompile(`\n{3,}`)

// Cleaner turns rendered HTML into trimmed article markdown.
type Cleaner struct {
	converter *md.Converter
}

// NewCleaner builds a Cleaner with a shared markdown converter.
func NewCleaner() *Cleaner {
	return &Cleaner{converter: md.NewConverter("", true, nil)}
}

// Clean selects the main content region, strips boilerplate, and converts
// the remainder to markdown. Returns an error when the page yields less
// than the minimum useful content.
func (c *Cleaner) Clean(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find(boilerplateSelector).Remove()

	sel := pickContent(doc)
	if sel == nil {
		return "", fmt.Errorf("no content region found")
	}

	markdown := strings.TrimSpace(c.converter.Convert(sel))
	if markdown == "" {
		// Conversion can come up empty on heavily scripted pages; fall back
		// to the region's plain text.
		markdown = strings.TrimSpace(sel.Text())
	}
	markdown = postprocess(markdown)

	if len(markdown) < minMarkdownLen {
		return "", fmt.Errorf("content too short: %d chars", len(markdown))
	}
	return markdown, nil
}

// Title returns the page title, preferring og:title over <title>.
func Title(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if t := strings.TrimSpace(og); t != "" {
			return t
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func pickContent(doc *goquery.Document) *goquery.Selection {
	for _, selector := range contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if len(strings.TrimSpace(sel.Text())) >= minContentLen {
			return sel
		}
	}
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return nil
	}
	return body
}

func postprocess(markdown string) string {
	markdown = strings.ReplaceAll(markdown, "[object Object]", "")
	markdown = multiNewline.ReplaceAllString(markdown, "\n\n")
	markdown = strings.TrimSpace(markdown)
	if len(markdown) > maxMarkdownLen {
		markdown = markdown[:maxMarkdownLen] + truncatedMarker
	}
	return markdown
}

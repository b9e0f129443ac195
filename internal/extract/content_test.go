package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const articleBody = `React 20 ships a new compiler that removes the need for manual memoization.
The release also stabilizes server actions and trims the client bundle size.
Upgrade guides cover codemods for deprecated lifecycle APIs and the new JSX transform.
Teams on React 18 or 19 can adopt the compiler incrementally behind a build flag.`

func page(inner string) string {
	return `<html><head><title>React 20 Release</title></head><body>
<nav>Home | Docs</nav>
<div class="cookie-banner">We use cookies</div>
` + inner + `
<footer>Copyright</footer>
</body></html>`
}

func TestCleanerPicksArticle(t *testing.T) {
	t.Parallel()

	html := page(`<main><article><h1>React 20</h1><p>` + articleBody + `</p></article></main>`)
	md, err := NewCleaner().Clean(html)
	require.NoError(t, err)
	require.Contains(t, md, "React 20")
	require.Contains(t, md, "manual memoization")
	require.NotContains(t, md, "We use cookies")
	require.NotContains(t, md, "Copyright")
}

func TestCleanerTooShort(t *testing.T) {
	t.Parallel()

	_, err := NewCleaner().Clean(page(`<main><p>tiny</p></main>`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "too short")
}

func TestCleanerAcceptsBriefMarkdown(t *testing.T) {
	t.Parallel()

	// Converted markdown between 100 and 200 chars is still useful content.
	brief := strings.Repeat("React 20 release candidate is out. ", 4)
	md, err := NewCleaner().Clean(page(`<main><p>` + brief + `</p></main>`))
	require.NoError(t, err)
	require.Contains(t, md, "release candidate")
}

func TestPostprocess(t *testing.T) {
	t.Parallel()

	in := "a[object Object]b\n\n\n\n\nc"
	require.Equal(t, "ab\n\nc", postprocess(in))

	long := strings.Repeat("x", maxMarkdownLen+50)
	out := postprocess(long)
	require.Len(t, out, maxMarkdownLen+len(truncatedMarker))
	require.True(t, strings.HasSuffix(out, "[Content truncated...]"))
}

func TestTitle(t *testing.T) {
	t.Parallel()

	html := `<html><head><title>Fallback</title><meta property="og:title" content="OG Title"></head></html>`
	require.Equal(t, "OG Title", Title(html))
	require.Equal(t, "Fallback", Title(`<html><head><title>Fallback</title></head></html>`))
}

func TestSkipReason(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, SkipReason("https://x.com/react/status/1"))
	require.NotEmpty(t, SkipReason("https://www.facebook.com/react"))
	require.NotEmpty(t, SkipReason("::bad::"))
	require.Empty(t, SkipReason("https://react.dev/blog"))
}

func TestNeedsRendering(t *testing.T) {
	t.Parallel()

	require.True(t, NeedsRendering(`<html><body><div id="root"></div></body></html>`))
	require.True(t, NeedsRendering(`<html><body>Please enable JavaScript to continue.</body></html>`))

	rich := page(`<main>` + strings.Repeat("<p>"+articleBody+"</p>", 3) + `</main>`)
	require.False(t, NeedsRendering(rich))
}

package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	defaultNavTimeout = 30 * time.Second
	settleDelay       = 3 * time.Second
)

// Renderer loads a page in headless Chrome and returns the settled DOM.
// Each Render call launches and tears down its own browser so one crashed
// page cannot poison a long-lived instance.
type Renderer struct {
	navTimeout time.Duration
	logger     *zap.Logger
}

// NewRenderer builds a Renderer with the default navigation timeout.
func NewRenderer(logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{navTimeout: defaultNavTimeout, logger: logger}
}

// Render navigates to the URL, waits for the body plus a settle delay, and
// returns the outer HTML. When the body-ready wait times out it falls back
// to a plain navigate-and-sleep pass before giving up.
func (r *Renderer) Render(ctx context.Context, rawURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(probeUserAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	html, err := r.render(browserCtx, rawURL, true)
	if err == nil {
		return html, nil
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		return "", err
	}

	r.logger.Debug("body wait timed out, retrying without readiness check",
		zap.String("url", rawURL),
	)
	return r.render(browserCtx, rawURL, false)
}

func (r *Renderer) render(ctx context.Context, rawURL string, waitBody bool) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.navTimeout+settleDelay+10*time.Second)
	defer cancel()

	var html string
	actions := []chromedp.Action{
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": "en-US,en;q=0.9"}),
		chromedp.Navigate(rawURL),
	}
	if waitBody {
		actions = append(actions, chromedp.WaitReady("body", chromedp.ByQuery))
	}
	actions = append(actions,
		chromedp.Sleep(settleDelay),
		chromedp.OuterHTML("html", &html),
	)

	if err := chromedp.Run(runCtx, actions...); err != nil {
		return "", fmt.Errorf("render %q: %w", rawURL, err)
	}
	return html, nil
}

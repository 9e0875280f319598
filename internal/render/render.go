// Package render obtains the fully rendered HTML of an NFC-e detail page.
// The government page fills the item table with JavaScript, so the default
// renderer drives a headless Chrome and waits for the table to appear; a
// plain HTTP fetcher is available for mirrors that render server-side.
package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-resty/resty/v2"
)

// ErrRenderTimeout signals that the results table never became visible
// within the render timeout.
var ErrRenderTimeout = errors.New("render: timed out waiting for results table")

// resultsTableSelector matches the element whose visibility marks the
// page as fully rendered.
const resultsTableSelector = "#tabResult"

const DefaultTimeout = 20 * time.Second

// Chrome renders pages with a headless Chrome session. Each Render call
// owns one short-lived browser context; every context is cancelled on all
// exit paths so no browser process outlives its request.
type Chrome struct {
	timeout time.Duration
}

func NewChrome(timeout time.Duration) *Chrome {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Chrome{timeout: timeout}
}

func (c *Chrome) Render(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, c.timeout)
	defer cancelRun()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(resultsTableSelector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", ErrRenderTimeout
		}
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return html, nil
}

// HTTPFetcher fetches a page over plain HTTP, without executing scripts.
type HTTPFetcher struct {
	client *resty.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPFetcher{client: resty.New().SetTimeout(timeout)}
}

func (f *HTTPFetcher) Render(ctx context.Context, url string) (string, error) {
	res, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", ErrRenderTimeout
		}
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	if res.IsError() {
		return "", fmt.Errorf("fetch %s: status %s", url, res.Status())
	}
	return res.String(), nil
}

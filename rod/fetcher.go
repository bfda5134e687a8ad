package rod

import (
	"context"
	"errors"
	"time"

	"github.com/fwojciec/locxpath"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultFetchTimeout bounds navigation plus load of one page.
const DefaultFetchTimeout = 30 * time.Second

var errClosed = locxpath.Errorf(locxpath.EINVALID, "fetcher closed")

// Ensure Fetcher implements locxpath.Fetcher at compile time.
var _ locxpath.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML using Chrome browser automation, so
// locators are inferred against the DOM after scripts ran.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	manager   *BrowserManager
	timeout   time.Duration
	userAgent string
	maxPages  int
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFetchTimeout sets the per-page timeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent overrides the browser's User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithRecycleAfter sets how many pages a browser renders before it is
// replaced.
func WithRecycleAfter(pages int) Option {
	return func(f *Fetcher) {
		f.maxPages = pages
	}
}

// NewFetcher creates a new Fetcher that launches a headless Chrome browser.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		timeout:  DefaultFetchTimeout,
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(f)
	}

	manager, err := NewBrowserManager(WithMaxPages(f.maxPages))
	if err != nil {
		return nil, err
	}
	f.manager = manager
	return f, nil
}

// Fetch navigates to the URL and returns the rendered HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	browser, release, err := f.manager.Acquire()
	if err != nil {
		return "", err
	}
	defer release()

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", f.renderError(ctx, url, err)
	}
	defer page.Close()

	page = page.Context(fetchCtx)

	if f.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.userAgent}); err != nil {
			return "", f.renderError(ctx, url, err)
		}
	}
	if err := page.Navigate(url); err != nil {
		return "", f.renderError(ctx, url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", f.renderError(ctx, url, err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", f.renderError(ctx, url, err)
	}
	return html, nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	return f.manager.Close()
}

// LauncherPID returns the process ID of the current browser launcher.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}

// renderError keeps caller cancellation as is and reports everything else
// as a fetch failure.
func (f *Fetcher) renderError(ctx context.Context, url string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return locxpath.Errorf(locxpath.EFETCH, "render timeout after %s for %s", f.timeout, url)
	}
	return locxpath.Errorf(locxpath.EFETCH, "render %s: %v", url, err)
}

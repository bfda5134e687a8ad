// Package http provides the HTTP implementations of locxpath.Fetcher and
// locxpath.SitemapService for pages that don't require JavaScript rendering.
package http

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/fwojciec/locxpath"
	"golang.org/x/net/html/charset"
)

// Fetcher defaults.
const (
	DefaultFetchTimeout    = 30 * time.Second
	DefaultPoolSize        = 100
	DefaultMaxConnsPerHost = 5
	DefaultMaxBodySize     = 10 << 20
)

// UserAgent is sent with every request.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

// Ensure Fetcher implements locxpath.Fetcher at compile time.
var _ locxpath.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves HTML over HTTP with browser-like headers. It shares one
// connection pool across all fetches. Unlike rod.Fetcher, it does not
// execute JavaScript.
type Fetcher struct {
	client          *http.Client
	ownTransport    *http.Transport
	timeout         time.Duration
	poolSize        int
	maxConnsPerHost int
	maxBodySize     int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for a whole request, body included.
// Defaults to DefaultFetchTimeout (30s).
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithPoolSize sets the number of idle connections kept for reuse.
func WithPoolSize(n int) Option {
	return func(f *Fetcher) {
		f.poolSize = n
	}
}

// WithMaxConnsPerHost limits the connections opened to a single host.
func WithMaxConnsPerHost(n int) Option {
	return func(f *Fetcher) {
		f.maxConnsPerHost = n
	}
}

// WithMaxBodySize caps how many bytes of a response body are read.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// WithClient replaces the HTTP client. Pool options are then ignored.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:         DefaultFetchTimeout,
		poolSize:        DefaultPoolSize,
		maxConnsPerHost: DefaultMaxConnsPerHost,
		maxBodySize:     DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.MaxIdleConns = f.poolSize
		transport.MaxIdleConnsPerHost = f.maxConnsPerHost
		transport.MaxConnsPerHost = f.maxConnsPerHost
		f.ownTransport = transport
		f.client = &http.Client{
			Transport: transport,
			Timeout:   f.timeout,
		}
	}

	return f
}

// Fetch retrieves the HTML content from the given URL, decoded to UTF-8.
// Transport failures are EFETCH errors; timeouts say so in the message.
// A cancelled ctx is returned as is.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", locxpath.Errorf(locxpath.EINVALID, "invalid URL: %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", locxpath.Errorf(locxpath.EINVALID, "build request: %v", err)
	}
	setBrowserHeaders(req, u)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", f.transportError(ctx, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", locxpath.Errorf(locxpath.EFETCH, "HTTP %d for %s", resp.StatusCode, rawURL)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, f.maxBodySize), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", locxpath.Errorf(locxpath.EFETCH, "decode body of %s: %v", rawURL, err)
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", f.transportError(ctx, rawURL, err)
	}

	return string(b), nil
}

// Close releases idle connections.
func (f *Fetcher) Close() error {
	if f.ownTransport != nil {
		f.ownTransport.CloseIdleConnections()
	}
	return nil
}

func (f *Fetcher) transportError(ctx context.Context, rawURL string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return locxpath.Errorf(locxpath.EFETCH, "request timeout after %s for %s", f.timeout, rawURL)
	}
	return locxpath.Errorf(locxpath.EFETCH, "fetch %s: %v", rawURL, err)
}

func setBrowserHeaders(req *http.Request, u *url.URL) {
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Referer", u.Scheme+"://"+u.Host+"/")
}

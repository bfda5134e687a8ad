package http

import (
	"bufio"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/locxpath"
)

// DefaultMaxSitemapURLs bounds how many page URLs one discovery returns.
const DefaultMaxSitemapURLs = 50000

// Ensure SitemapService implements locxpath.SitemapService.
var _ locxpath.SitemapService = (*SitemapService)(nil)

// SitemapService discovers page URLs to process from a site's sitemaps:
// the Sitemap directives of robots.txt, else /sitemap.xml. Sitemap indexes
// are followed and gzip-compressed sitemaps are accepted.
type SitemapService struct {
	client  *http.Client
	maxURLs int
}

// SitemapOption configures a SitemapService.
type SitemapOption func(*SitemapService)

// WithMaxURLs caps the number of URLs returned by DiscoverURLs.
func WithMaxURLs(n int) SitemapOption {
	return func(s *SitemapService) {
		s.maxURLs = n
	}
}

// NewSitemapService creates a new SitemapService with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewSitemapService(client *http.Client, opts ...SitemapOption) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	s := &SitemapService{client: client, maxURLs: DefaultMaxSitemapURLs}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DiscoverURLs returns the page URLs listed in the sitemaps of baseURL's
// site, in sitemap order and without duplicates. Returns an empty slice
// (not nil) if the site has no sitemap.
//
// When baseURL has a non-root path (e.g., https://example.com/blog/),
// only URLs below that path are returned.
func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *locxpath.URLFilter) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, locxpath.Errorf(locxpath.EINVALID, "invalid sitemap base URL: %q", baseURL)
	}

	root := &url.URL{Scheme: base.Scheme, Host: base.Host}
	sitemaps, err := s.locateSitemaps(ctx, root)
	if err != nil {
		return nil, err
	}

	w := &sitemapWalk{
		service:  s,
		prefix:   pathPrefix(base.Path),
		filter:   filter,
		visited:  make(map[string]bool),
		seenURLs: make(map[string]bool),
		urls:     []string{},
	}
	for _, sm := range sitemaps {
		if err := w.visit(ctx, sm); err != nil {
			return nil, err
		}
		if w.full() {
			break
		}
	}
	return w.urls, nil
}

// sitemapWalk accumulates URLs across one discovery.
type sitemapWalk struct {
	service  *SitemapService
	prefix   string
	filter   *locxpath.URLFilter
	visited  map[string]bool
	seenURLs map[string]bool
	urls     []string
}

func (w *sitemapWalk) full() bool {
	return w.service.maxURLs > 0 && len(w.urls) >= w.service.maxURLs
}

func (w *sitemapWalk) visit(ctx context.Context, sitemapURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.visited[sitemapURL] || w.full() {
		return nil
	}
	w.visited[sitemapURL] = true

	doc, err := w.service.readSitemap(ctx, sitemapURL)
	if err != nil {
		return err
	}
	root := doc.Root()
	if root == nil {
		return locxpath.Errorf(locxpath.EFETCH, "empty sitemap XML at %s", sitemapURL)
	}

	if root.Tag == "sitemapindex" {
		for _, child := range locs(root, "sitemap") {
			if err := w.visit(ctx, child); err != nil {
				return err
			}
		}
		return nil
	}

	for _, u := range locs(root, "url") {
		w.add(u)
	}
	return nil
}

func (w *sitemapWalk) add(u string) {
	if w.seenURLs[u] || w.full() {
		return
	}
	if w.prefix != "" && !underPrefix(u, w.prefix) {
		return
	}
	if w.filter != nil && !w.filter.Match(u) {
		return
	}
	w.seenURLs[u] = true
	w.urls = append(w.urls, u)
}

// locs returns the <loc> texts of the given child elements of root.
func locs(root *etree.Element, tag string) []string {
	var out []string
	for _, el := range root.SelectElements(tag) {
		loc := el.SelectElement("loc")
		if loc == nil {
			continue
		}
		if u := strings.TrimSpace(loc.Text()); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// pathPrefix normalizes a base path into a directory prefix.
// "" and "/" mean no prefix; "/blog" becomes "/blog/".
func pathPrefix(p string) string {
	if p == "" || p == "/" {
		return ""
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

func underPrefix(rawURL, prefix string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasPrefix(u.Path, prefix) || u.Path+"/" == prefix
}

// locateSitemaps reads Sitemap directives from robots.txt and falls back
// to /sitemap.xml when there are none.
func (s *SitemapService) locateSitemaps(ctx context.Context, root *url.URL) ([]string, error) {
	robots := root.ResolveReference(&url.URL{Path: "/robots.txt"}).String()
	if sitemaps, err := s.robotsSitemaps(ctx, robots); err == nil && len(sitemaps) > 0 {
		return sitemaps, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fallback := root.ResolveReference(&url.URL{Path: "/sitemap.xml"}).String()
	ok, err := s.exists(ctx, fallback)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	if !ok {
		return nil, nil
	}
	return []string{fallback}, nil
}

func (s *SitemapService) robotsSitemaps(ctx context.Context, robotsURL string) ([]string, error) {
	body, err := s.get(ctx, robotsURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var sitemaps []string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "sitemap") {
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			sitemaps = append(sitemaps, value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, locxpath.Errorf(locxpath.EFETCH, "read robots.txt: %v", err)
	}
	return sitemaps, nil
}

// readSitemap fetches and parses one sitemap, gunzipping it when needed.
func (s *SitemapService) readSitemap(ctx context.Context, sitemapURL string) (*etree.Document, error) {
	body, err := s.get(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	br := bufio.NewReader(io.LimitReader(body, DefaultMaxBodySize))
	var r io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, locxpath.Errorf(locxpath.EFETCH, "decompress sitemap %s: %v", sitemapURL, err)
		}
		defer gz.Close()
		r = io.LimitReader(gz, DefaultMaxBodySize)
	}

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, locxpath.Errorf(locxpath.EFETCH, "parse sitemap %s: %v", sitemapURL, err)
	}
	return doc, nil
}

func (s *SitemapService) get(ctx context.Context, target string) (io.ReadCloser, error) {
	resp, err := s.do(ctx, http.MethodGet, target)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, locxpath.Errorf(locxpath.EFETCH, "HTTP %d for %s", resp.StatusCode, target)
	}
	return resp.Body, nil
}

func (s *SitemapService) exists(ctx context.Context, target string) (bool, error) {
	resp, err := s.do(ctx, http.MethodHead, target)
	if err != nil {
		return false, err
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}

func (s *SitemapService) do(ctx context.Context, method, target string) (*http.Response, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, locxpath.Errorf(locxpath.EINVALID, "invalid URL: %q", target)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, locxpath.Errorf(locxpath.EINVALID, "build request: %v", err)
	}
	setBrowserHeaders(req, u)

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, locxpath.Errorf(locxpath.EFETCH, "fetch %s: %v", target, err)
	}
	return resp, nil
}

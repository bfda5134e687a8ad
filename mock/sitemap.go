package mock

import (
	"context"

	"github.com/fwojciec/locxpath"
)

var _ locxpath.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of locxpath.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, baseURL string, filter *locxpath.URLFilter) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *locxpath.URLFilter) ([]string, error) {
	return s.DiscoverURLsFn(ctx, baseURL, filter)
}

package mock

import (
	"context"

	"github.com/fwojciec/locxpath"
)

var _ locxpath.PageStore = (*PageStore)(nil)

// PageStore is a mock implementation of locxpath.PageStore.
type PageStore struct {
	SaveFn func(ctx context.Context, url, html string) (string, error)
}

func (s *PageStore) Save(ctx context.Context, url, html string) (string, error) {
	return s.SaveFn(ctx, url, html)
}

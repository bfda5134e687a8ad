package extract

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/locxpath"
	"golang.org/x/sync/errgroup"
)

// PageCleaner fetches pages, cleans them and stores the cleaned markup.
// It holds the same gates as Pipeline: the global gate for a whole page
// and the fetch gate for the download only.
type PageCleaner struct {
	Fetcher  locxpath.Fetcher
	Cleaner  locxpath.Cleaner
	Store    locxpath.PageStore
	Governor *Governor

	// DomainLimiter, if set, is waited on before the fetch gate is taken.
	DomainLimiter locxpath.DomainLimiter

	// Progress, if set, is called after every completed page.
	// Calls are serialized.
	Progress ProgressFunc

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// CleanAll cleans urls and returns one result per URL, in input order,
// along with the final progress.
func (c *PageCleaner) CleanAll(ctx context.Context, urls []string) ([]*locxpath.CleanResult, Progress) {
	state := newBatchRunState(len(urls), 1, c.now)
	state.beginRound()
	results := make([]*locxpath.CleanResult, len(urls))

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(c.Governor.Limits().Global)
	for i, url := range urls {
		g.Go(func() error {
			r := c.Clean(ctx, url)
			results[i] = r

			mu.Lock()
			defer mu.Unlock()
			p := state.record(r.URL, r.Succeeded())
			if c.Progress != nil {
				c.Progress(p)
			}
			return nil
		})
	}
	_ = g.Wait()

	return results, state.Snapshot()
}

// Clean fetches, cleans and stores one page. Failures are recorded in the
// result; Clean never returns nil.
func (c *PageCleaner) Clean(ctx context.Context, url string) (result *locxpath.CleanResult) {
	begin := c.now()
	defer func() {
		if r := recover(); r != nil {
			err := locxpath.Errorf(locxpath.EINTERNAL, "processing exception: %v", r)
			result = cleanFailure(url, err)
		}
		result.Duration = max(c.now().Sub(begin), 0)
	}()

	var path string
	err := c.Governor.Global(ctx, func() error {
		html, err := fetchCleaned(ctx, c.Governor, c.DomainLimiter, c.Fetcher, c.Cleaner, url)
		if err != nil {
			return err
		}
		path, err = c.Store.Save(ctx, url, html)
		return err
	})
	if err != nil {
		if locxpath.ErrorCode(err) == locxpath.EINTERNAL && ctx.Err() != nil {
			err = canceled(err)
		}
		return cleanFailure(url, err)
	}
	return &locxpath.CleanResult{URL: url, Path: path}
}

func (c *PageCleaner) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func cleanFailure(url string, err error) *locxpath.CleanResult {
	return &locxpath.CleanResult{
		URL:       url,
		Error:     locxpath.ErrorMessage(err),
		ErrorCode: locxpath.ErrorCode(err),
	}
}

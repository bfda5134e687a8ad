package extract

import (
	"context"
	"time"

	"github.com/fwojciec/locxpath"
	"golang.org/x/sync/errgroup"
)

// Batch defaults.
const (
	DefaultBatchSize    = 10
	DefaultRestInterval = 100 * time.Millisecond
)

// UnknownURL is the URL recorded for results that could not be attributed
// to an input URL.
const UnknownURL = "unknown"

// BatchDriver runs a Runner over a URL list in sequential chunks.
// All URLs of a chunk are started at once; how many actually run is up
// to the Runner's concurrency gates. The driver waits for the whole chunk
// and rests before the next one.
type BatchDriver struct {
	Runner Runner

	// BatchSize is the number of URLs per chunk. Defaults to 10.
	BatchSize int

	// RestInterval is the pause between chunks. Defaults to 100ms;
	// a negative value disables the pause.
	RestInterval time.Duration

	// Progress, if set, is called after every completed URL.
	// Calls are serialized.
	Progress ProgressFunc

	// Sleep pauses between chunks. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration)

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Run processes urls and returns exactly one result per URL, chunk by
// chunk, in completion order within each chunk. The returned Progress is
// the final state of the run.
//
// Cancelling ctx does not drop URLs: pipelines that have not started yet
// complete immediately with a canceled error result.
func (d *BatchDriver) Run(ctx context.Context, urls []string, targets locxpath.TargetSet) ([]*locxpath.URLResult, Progress) {
	chunks := Chunk(urls, d.batchSize())
	state := newBatchRunState(len(urls), len(chunks), d.now)
	results := make([]*locxpath.URLResult, 0, len(urls))

	for i, chunk := range chunks {
		state.beginRound()

		resultCh := make(chan *locxpath.URLResult, len(chunk))
		var g errgroup.Group
		for _, url := range chunk {
			g.Go(func() error {
				resultCh <- d.runOne(ctx, url, targets)
				return nil
			})
		}
		go func() {
			_ = g.Wait()
			close(resultCh)
		}()

		for result := range resultCh {
			results = append(results, result)
			p := state.record(result.URL, result.Succeeded())
			if d.Progress != nil {
				d.Progress(p)
			}
		}

		if i < len(chunks)-1 && d.RestInterval >= 0 {
			d.sleep(ctx, d.restInterval())
		}
	}

	return results, state.Snapshot()
}

// runOne shields the driver from a misbehaving Runner.
func (d *BatchDriver) runOne(ctx context.Context, url string, targets locxpath.TargetSet) (result *locxpath.URLResult) {
	defer func() {
		if r := recover(); r != nil {
			err := locxpath.Errorf(locxpath.EINTERNAL, "processing exception: %v", r)
			result = locxpath.NewErrorResult(UnknownURL, targets, err, 0)
		}
	}()

	result = d.Runner.Run(ctx, url, targets)
	if result == nil {
		err := locxpath.Errorf(locxpath.EINTERNAL, "processing exception: no result for %s", url)
		result = locxpath.NewErrorResult(UnknownURL, targets, err, 0)
	}
	return result
}

func (d *BatchDriver) batchSize() int {
	if d.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return d.BatchSize
}

func (d *BatchDriver) restInterval() time.Duration {
	if d.RestInterval == 0 {
		return DefaultRestInterval
	}
	return d.RestInterval
}

func (d *BatchDriver) sleep(ctx context.Context, dur time.Duration) {
	if d.Sleep != nil {
		d.Sleep(ctx, dur)
		return
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (d *BatchDriver) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Chunk splits urls into consecutive chunks of at most size URLs,
// preserving order. A non-positive size yields a single chunk.
func Chunk(urls []string, size int) [][]string {
	if len(urls) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(urls)
	}
	chunks := make([][]string, 0, (len(urls)+size-1)/size)
	for start := 0; start < len(urls); start += size {
		end := min(start+size, len(urls))
		chunks = append(chunks, urls[start:end])
	}
	return chunks
}

// Package extract runs the locator extraction pipeline. It coordinates
// fetching, DOM summarization, LLM inference and locator validation for
// single URLs and for batches of URLs under bounded concurrency.
package extract

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/locxpath"
)

// Runner runs the pipeline for one URL. Implementations never return nil.
type Runner interface {
	Run(ctx context.Context, url string, targets locxpath.TargetSet) *locxpath.URLResult
}

// Ensure Pipeline implements Runner at compile time.
var _ Runner = (*Pipeline)(nil)

// Pipeline runs fetch → summarize → infer → validate for a single URL.
// Every failure is folded into an error result; Run never panics.
type Pipeline struct {
	Fetcher    locxpath.Fetcher
	Cleaner    locxpath.Cleaner
	Summarizer locxpath.Summarizer
	Inferrer   locxpath.Inferrer
	Validator  locxpath.Validator
	Governor   *Governor

	// DomainLimiter, if set, is waited on before the fetch gate is taken,
	// so URLs queued behind a rate-limited host hold no fetch slot.
	DomainLimiter locxpath.DomainLimiter

	// TokenCounter, if set, counts the tokens of each digest.
	TokenCounter locxpath.TokenCounter

	// LLMTimeout bounds a single inference call. Zero means no extra bound.
	LLMTimeout time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Run executes the pipeline for url. The global gate is held for the
// whole run; the fetch and LLM gates only for their stage.
func (p *Pipeline) Run(ctx context.Context, url string, targets locxpath.TargetSet) (result *locxpath.URLResult) {
	begin := p.now()
	defer func() {
		if r := recover(); r != nil {
			err := locxpath.Errorf(locxpath.EINTERNAL, "pipeline panic: %v", r)
			result = locxpath.NewErrorResult(url, targets, err, p.now().Sub(begin))
		}
	}()

	err := p.Governor.Global(ctx, func() error {
		result = p.run(ctx, url, targets, begin)
		return nil
	})
	if err != nil {
		return locxpath.NewErrorResult(url, targets, canceled(err), p.now().Sub(begin))
	}
	return result
}

func (p *Pipeline) run(ctx context.Context, url string, targets locxpath.TargetSet, begin time.Time) *locxpath.URLResult {
	fail := func(err error) *locxpath.URLResult {
		return locxpath.NewErrorResult(url, targets, err, p.now().Sub(begin))
	}

	doc, err := p.fetch(ctx, url)
	if err != nil {
		return fail(err)
	}

	digest, err := p.Summarizer.Summarize(doc)
	if err != nil {
		return fail(locxpath.Errorf(locxpath.EINTERNAL, "summarize document: %v", err))
	}
	tokens := p.countTokens(ctx, digest)

	locators, err := p.infer(ctx, digest, targets)
	if err != nil {
		return fail(err)
	}

	elements, err := p.Validator.Validate(doc, onlyTargets(locators, targets))
	if err != nil {
		return fail(locxpath.Errorf(locxpath.ELOCATOR, "validate locators: %s", locxpath.ErrorMessage(err)))
	}

	result := locxpath.NewSuccessResult(url, targets, elements, p.now().Sub(begin))
	result.DocumentHash = computeHash(doc)
	result.PromptTokens = tokens
	return result
}

// fetch retrieves rawURL under the fetch gate and returns the cleaned
// document.
func (p *Pipeline) fetch(ctx context.Context, rawURL string) (string, error) {
	return fetchCleaned(ctx, p.Governor, p.DomainLimiter, p.Fetcher, p.Cleaner, rawURL)
}

// fetchCleaned waits on the host's limiter, downloads rawURL under the
// fetch gate and cleans it. Errors carry EFETCH, EINVALID or ECANCELED.
func fetchCleaned(ctx context.Context, g *Governor, limiter locxpath.DomainLimiter, f locxpath.Fetcher, c locxpath.Cleaner, rawURL string) (string, error) {
	if err := waitHost(ctx, limiter, rawURL); err != nil {
		return "", fetchError(err)
	}

	var html string
	err := g.Fetch(ctx, func() error {
		var err error
		html, err = f.Fetch(ctx, rawURL)
		return err
	})
	if err != nil {
		return "", fetchError(err)
	}

	cleaned, err := c.Clean(html)
	if err != nil {
		return "", locxpath.Errorf(locxpath.EFETCH, "clean document: %v", err)
	}
	return cleaned, nil
}

// waitHost blocks on the per-host limiter, if any.
func waitHost(ctx context.Context, limiter locxpath.DomainLimiter, rawURL string) error {
	if limiter == nil {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return locxpath.Errorf(locxpath.EINVALID, "invalid URL: %q", rawURL)
	}
	return limiter.Wait(ctx, u.Hostname())
}

// infer asks the LLM for locators under the LLM gate.
func (p *Pipeline) infer(ctx context.Context, digest string, targets locxpath.TargetSet) (locxpath.LocatorMap, error) {
	var locators locxpath.LocatorMap
	err := p.Governor.LLM(ctx, func() error {
		callCtx := ctx
		if p.LLMTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, p.LLMTimeout)
			defer cancel()
		}
		var err error
		locators, err = p.Inferrer.Infer(callCtx, digest, targets)
		return err
	})
	switch {
	case err == nil:
		return locators, nil
	case ctx.Err() != nil:
		return nil, canceled(err)
	case errors.Is(err, context.DeadlineExceeded):
		return nil, locxpath.Errorf(locxpath.ELLM, "LLM request timeout: %v", err)
	case locxpath.ErrorCode(err) != locxpath.EINTERNAL:
		return nil, err
	default:
		return nil, locxpath.Errorf(locxpath.ELLM, "LLM analysis failed: %s", locxpath.ErrorMessage(err))
	}
}

func (p *Pipeline) countTokens(ctx context.Context, digest string) int {
	if p.TokenCounter == nil {
		return 0
	}
	n, err := p.TokenCounter.CountTokens(ctx, digest)
	if err != nil {
		return 0
	}
	return n
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// onlyTargets drops locators for names outside the target set.
func onlyTargets(locators locxpath.LocatorMap, targets locxpath.TargetSet) locxpath.LocatorMap {
	out := make(locxpath.LocatorMap, targets.Len())
	for name, locator := range locators {
		if targets.Contains(name) {
			out[name] = locator
		}
	}
	return out
}

// fetchError classifies a fetch failure. Application errors pass through.
func fetchError(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return canceled(err)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return locxpath.Errorf(locxpath.EFETCH, "fetch timeout: %v", err)
	case locxpath.ErrorCode(err) != locxpath.EINTERNAL:
		return err
	default:
		return locxpath.Errorf(locxpath.EFETCH, "fetch failed: %s", locxpath.ErrorMessage(err))
	}
}

func canceled(err error) error {
	return locxpath.Errorf(locxpath.ECANCELED, "canceled: %v", err)
}

// computeHash computes a hash of the content using xxhash.
func computeHash(content string) string {
	return fmt.Sprintf("%x", xxhash.Sum64String(content))
}

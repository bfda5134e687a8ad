package mock

import (
	"context"

	"github.com/fwojciec/locxpath"
)

var (
	_ locxpath.Cleaner    = (*Cleaner)(nil)
	_ locxpath.Summarizer = (*Summarizer)(nil)
	_ locxpath.Inferrer   = (*Inferrer)(nil)
	_ locxpath.Validator  = (*Validator)(nil)
)

// Cleaner is a mock implementation of locxpath.Cleaner.
type Cleaner struct {
	CleanFn func(html string) (string, error)
}

func (c *Cleaner) Clean(html string) (string, error) {
	return c.CleanFn(html)
}

// Summarizer is a mock implementation of locxpath.Summarizer.
type Summarizer struct {
	SummarizeFn func(html string) (string, error)
}

func (s *Summarizer) Summarize(html string) (string, error) {
	return s.SummarizeFn(html)
}

// Inferrer is a mock implementation of locxpath.Inferrer.
type Inferrer struct {
	InferFn func(ctx context.Context, digest string, targets locxpath.TargetSet) (locxpath.LocatorMap, error)
}

func (i *Inferrer) Infer(ctx context.Context, digest string, targets locxpath.TargetSet) (locxpath.LocatorMap, error) {
	return i.InferFn(ctx, digest, targets)
}

// Validator is a mock implementation of locxpath.Validator.
type Validator struct {
	ValidateFn func(html string, locators locxpath.LocatorMap) (map[string]locxpath.ElementResult, error)
}

func (v *Validator) Validate(html string, locators locxpath.LocatorMap) (map[string]locxpath.ElementResult, error) {
	return v.ValidateFn(html, locators)
}

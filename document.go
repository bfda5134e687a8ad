package locxpath

import "context"

// Cleaner reduces fetched markup before it is summarized and validated.
type Cleaner interface {
	// Clean removes script and style content (and comments) from html
	// and returns the reduced document.
	Clean(html string) (string, error)
}

// Summarizer builds the bounded DOM digest that is sent to the LLM
// in place of the full document.
type Summarizer interface {
	Summarize(html string) (string, error)
}

// Inferrer asks an LLM for locators of the target elements.
type Inferrer interface {
	// Infer returns a locator map for the targets given a DOM digest.
	// Returns ELLM if the model output cannot be parsed.
	Infer(ctx context.Context, digest string, targets TargetSet) (LocatorMap, error)
}

// Validator evaluates locators against a document.
type Validator interface {
	// Validate evaluates every locator in locators against html.
	// A locator that fails to evaluate yields a FailedElement entry and
	// does not affect the others. An error is only returned when the
	// document itself cannot be parsed.
	Validate(html string, locators LocatorMap) (map[string]ElementResult, error)
}

// TokenCounter counts tokens in text for a specific model.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}

// Package htmlquery evaluates XPath locators against HTML documents using
// antchfx/htmlquery.
package htmlquery

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/fwojciec/locxpath"
	"golang.org/x/net/html"
)

// Ensure Validator implements locxpath.Validator at compile time.
var _ locxpath.Validator = (*Validator)(nil)

// DefaultMaxPreview is the default length of a content preview.
const DefaultMaxPreview = 200

// Validator checks which locators match a document. It never modifies the
// document and returns the same results for the same input.
type Validator struct {
	maxPreview int
}

// Option configures a Validator.
type Option func(*Validator)

// WithMaxPreview sets the preview length in characters.
func WithMaxPreview(n int) Option {
	return func(v *Validator) {
		v.maxPreview = n
	}
}

// NewValidator creates a new Validator.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{maxPreview: DefaultMaxPreview}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate evaluates every locator against doc. A locator that fails to
// compile or evaluate yields a failed element result; only an unparseable
// document is returned as an error.
func (v *Validator) Validate(doc string, locators locxpath.LocatorMap) (map[string]locxpath.ElementResult, error) {
	root, err := htmlquery.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, locxpath.Errorf(locxpath.EINVALID, "failed to parse HTML: %v", err)
	}

	results := make(map[string]locxpath.ElementResult, len(locators))
	for name, locator := range locators {
		results[name] = v.evaluate(root, locator)
	}
	return results, nil
}

func (v *Validator) evaluate(root *html.Node, locator string) (result locxpath.ElementResult) {
	if strings.TrimSpace(locator) == "" {
		return locxpath.FailedElement(locator, locxpath.Errorf(locxpath.ELOCATOR, "empty locator"))
	}

	// The xpath engine panics on some expressions that compile but do not
	// select nodes.
	defer func() {
		if r := recover(); r != nil {
			result = locxpath.FailedElement(locator, locxpath.Errorf(locxpath.ELOCATOR, "evaluate locator: %v", r))
		}
	}()

	nodes, err := htmlquery.QueryAll(root, locator)
	if err != nil {
		return locxpath.FailedElement(locator, locxpath.Errorf(locxpath.ELOCATOR, "invalid locator: %v", err))
	}
	if len(nodes) == 0 {
		return locxpath.MissingElement(locator)
	}

	preview := locxpath.TruncatePreview(text(nodes[0]), v.maxPreview)
	return locxpath.FoundElement(locator, preview, len(nodes))
}

// text returns the whitespace-collapsed text content of n.
func text(n *html.Node) string {
	return strings.Join(strings.Fields(htmlquery.InnerText(n)), " ")
}

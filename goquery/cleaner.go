// Package goquery implements document reduction on top of goquery: the
// Cleaner that strips non-content markup before validation and the
// Summarizer that builds the compact DOM digest sent to the LLM.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/locxpath"
)

// Ensure Cleaner implements locxpath.Cleaner at compile time.
var _ locxpath.Cleaner = (*Cleaner)(nil)

// removedTags are dropped together with their content.
var removedTags = "script, style, noscript"

// keptAttrs survive attribute filtering. data-* attributes are kept too.
var keptAttrs = map[string]bool{
	"id":    true,
	"class": true,
	"href":  true,
	"src":   true,
	"alt":   true,
	"title": true,
	"name":  true,
	"type":  true,
	"value": true,
}

// Cleaner removes script and style elements and comments from HTML.
// Locators are evaluated against its output, so it never renames or
// reorders elements.
type Cleaner struct {
	filterAttrs bool
}

// CleanerOption configures a Cleaner.
type CleanerOption func(*Cleaner)

// WithAttributeFilter drops every attribute except identity, link and
// data-* attributes. Locators relying on other attributes will not match
// the cleaned document.
func WithAttributeFilter() CleanerOption {
	return func(c *Cleaner) {
		c.filterAttrs = true
	}
}

// NewCleaner creates a new Cleaner.
func NewCleaner(opts ...CleanerOption) *Cleaner {
	c := &Cleaner{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clean returns html without scripts, styles and comments.
func (c *Cleaner) Clean(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", locxpath.Errorf(locxpath.EINVALID, "failed to parse HTML: %v", err)
	}

	doc.Find(removedTags).Remove()
	removeComments(doc.Selection)

	if c.filterAttrs {
		doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
			filterAttrs(sel)
		})
	}

	out, err := goquery.OuterHtml(doc.Selection)
	if err != nil {
		return "", locxpath.Errorf(locxpath.EINTERNAL, "failed to render HTML: %v", err)
	}
	return out, nil
}

func removeComments(sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		if goquery.NodeName(child) == "#comment" {
			child.Remove()
			return
		}
		removeComments(child)
	})
}

func filterAttrs(sel *goquery.Selection) {
	node := sel.Get(0)
	kept := node.Attr[:0]
	for _, attr := range node.Attr {
		if keptAttrs[attr.Key] || strings.HasPrefix(attr.Key, "data-") {
			kept = append(kept, attr)
		}
	}
	node.Attr = kept
}

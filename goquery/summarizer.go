package goquery

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/locxpath"
)

// Ensure Summarizer implements locxpath.Summarizer at compile time.
var _ locxpath.Summarizer = (*Summarizer)(nil)

// Digest limits.
const (
	DefaultMaxElements = 50
	DefaultMaxText     = 100
)

// digestTags are the structural elements listed in a digest.
const digestTags = "h1, h2, h3, article, main, div"

// Summarizer builds a DOM digest: the page title followed by one line per
// structural element with its identifying attributes and a snippet of its
// text. The digest is what the LLM sees instead of the full page.
type Summarizer struct {
	maxElements int
	maxText     int
}

// SummarizerOption configures a Summarizer.
type SummarizerOption func(*Summarizer)

// WithMaxElements sets how many structural elements are listed.
func WithMaxElements(n int) SummarizerOption {
	return func(s *Summarizer) {
		s.maxElements = n
	}
}

// WithMaxText sets how many characters of element text are kept.
func WithMaxText(n int) SummarizerOption {
	return func(s *Summarizer) {
		s.maxText = n
	}
}

// NewSummarizer creates a new Summarizer.
func NewSummarizer(opts ...SummarizerOption) *Summarizer {
	s := &Summarizer{
		maxElements: DefaultMaxElements,
		maxText:     DefaultMaxText,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize returns the digest of html.
func (s *Summarizer) Summarize(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", locxpath.Errorf(locxpath.EINVALID, "failed to parse HTML: %v", err)
	}

	var lines []string
	if title := doc.Find("title").First(); title.Length() > 0 {
		lines = append(lines, fmt.Sprintf("<title>%s</title>", strings.TrimSpace(title.Text())))
	}

	doc.Find(digestTags).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= s.maxElements {
			return false
		}
		lines = append(lines, s.describe(sel))
		return true
	})

	return strings.Join(lines, "\n"), nil
}

// describe renders one element as <tag attrs>text</tag>.
func (s *Summarizer) describe(sel *goquery.Selection) string {
	node := sel.Get(0)

	var sb strings.Builder
	sb.WriteString("<")
	sb.WriteString(node.Data)
	for _, attr := range node.Attr {
		if attr.Key == "id" || attr.Key == "class" || strings.HasPrefix(attr.Key, "data-") {
			fmt.Fprintf(&sb, " %s=%q", attr.Key, collapseSpace(attr.Val))
		}
	}
	sb.WriteString(">")
	sb.WriteString(truncate(collapseSpace(sel.Text()), s.maxText))
	fmt.Fprintf(&sb, "</%s>", node.Data)
	return sb.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

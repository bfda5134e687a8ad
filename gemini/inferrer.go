package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fwojciec/locxpath"
	"google.golang.org/genai"
)

// Inference defaults.
const (
	DefaultModel           = "gemini-2.5-flash"
	DefaultTemperature     = 0.1
	DefaultMaxOutputTokens = 1000
)

// Ensure Inferrer implements locxpath.Inferrer at compile time.
var _ locxpath.Inferrer = (*Inferrer)(nil)

// Inferrer implements locxpath.Inferrer using Google Gemini.
type Inferrer struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

// Option configures an Inferrer.
type Option func(*Inferrer)

// WithModel sets the Gemini model name.
func WithModel(model string) Option {
	return func(i *Inferrer) {
		if model != "" {
			i.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(i *Inferrer) {
		i.temperature = t
	}
}

// WithMaxOutputTokens bounds the length of the response.
func WithMaxOutputTokens(n int32) Option {
	return func(i *Inferrer) {
		i.maxTokens = n
	}
}

// NewInferrer creates a new Inferrer.
func NewInferrer(client *genai.Client, opts ...Option) *Inferrer {
	i := &Inferrer{
		client:      client,
		model:       DefaultModel,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxOutputTokens,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Model returns the model the Inferrer queries.
func (i *Inferrer) Model() string {
	return i.model
}

// Infer asks the model for one XPath locator per target element.
func (i *Inferrer) Infer(ctx context.Context, digest string, targets locxpath.TargetSet) (locxpath.LocatorMap, error) {
	if targets.Len() == 0 {
		return nil, locxpath.Errorf(locxpath.EINVALID, "target elements required")
	}
	if i.client == nil {
		return nil, locxpath.Errorf(locxpath.ELLM, "LLM client not initialized, check the API key")
	}

	result, err := i.client.Models.GenerateContent(ctx, i.model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: BuildUserPrompt(digest, targets)}},
		}},
		BuildConfig(i.temperature, i.maxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if result == nil {
		return nil, locxpath.Errorf(locxpath.ELLM, "gemini returned nil result")
	}

	return ParseLocatorMap(result.Text())
}

// BuildConfig returns the GenerateContentConfig for Gemini API calls.
func BuildConfig(temperature float32, maxTokens int32) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You are a web page analysis expert. You write precise, stable XPath locators for DOM elements.",
			}},
		},
		Temperature:     &temperature,
		MaxOutputTokens: maxTokens,
	}
}

// BuildUserPrompt builds the prompt containing the DOM digest and the
// elements to locate.
func BuildUserPrompt(digest string, targets locxpath.TargetSet) string {
	var sb strings.Builder
	sb.WriteString("Analyze the following HTML structure and write an accurate XPath locator for each requested element.\n\n")
	sb.WriteString("<structure>\n")
	sb.WriteString(digest)
	sb.WriteString("\n</structure>\n\n")
	fmt.Fprintf(&sb, "Elements to locate: %s\n\n", targets)
	sb.WriteString("Return a JSON object mapping each element name to its XPath:\n")
	sb.WriteString("{\n    \"element name\": \"xpath expression\",\n    ...\n}\n\n")
	sb.WriteString("Requirements:\n")
	sb.WriteString("1. Locators must be precise and stable.\n")
	sb.WriteString("2. Prefer stable attributes such as id and class.\n")
	sb.WriteString("3. Avoid absolute positional paths.\n")
	sb.WriteString("4. Consider the semantics and context of each element.\n\n")
	sb.WriteString("Return only the JSON object, with no other text.")
	return sb.String()
}

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// ParseLocatorMap decodes a model response into a LocatorMap. It accepts a
// bare JSON object or the first {...} span embedded in prose or code
// fences. Non-string values are rendered as strings; nulls are dropped.
func ParseLocatorMap(text string) (locxpath.LocatorMap, error) {
	text = strings.TrimSpace(text)

	raw, err := decodeObject(text)
	if err != nil {
		span := jsonObject.FindString(text)
		if span == "" {
			return nil, locxpath.Errorf(locxpath.ELLM, "LLM returned non-JSON response")
		}
		if raw, err = decodeObject(span); err != nil {
			return nil, locxpath.Errorf(locxpath.ELLM, "LLM returned non-JSON response: %v", err)
		}
	}

	locators := make(locxpath.LocatorMap, len(raw))
	for name, value := range raw {
		switch v := value.(type) {
		case nil:
		case string:
			locators[name] = v
		case float64:
			locators[name] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			locators[name] = strconv.FormatBool(v)
		default:
			b, _ := json.Marshal(v)
			locators[name] = string(b)
		}
	}
	return locators, nil
}

func decodeObject(text string) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("not a JSON object")
	}
	return raw, nil
}

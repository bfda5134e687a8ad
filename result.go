package locxpath

import (
	"encoding/json"
	"time"
	"unicode/utf8"
)

// ElementResult is the validation outcome of one locator on one document.
//
// A result is never both found and failed: Error is only set when Found is
// false, and ContentPreview is only set when Found is true. Use the
// FoundElement, MissingElement and FailedElement constructors to keep it so.
type ElementResult struct {
	Locator        string `json:"locator"`
	Found          bool   `json:"found"`
	ContentPreview string `json:"contentPreview,omitempty"`
	MatchCount     int    `json:"matchCount"`
	Error          string `json:"error,omitempty"`
}

// FoundElement returns a result for a locator that matched count nodes.
func FoundElement(locator, preview string, count int) ElementResult {
	if count <= 0 {
		return MissingElement(locator)
	}
	return ElementResult{
		Locator:        locator,
		Found:          true,
		ContentPreview: preview,
		MatchCount:     count,
	}
}

// MissingElement returns a result for a locator that matched nothing,
// or for an element the LLM did not propose a locator for.
func MissingElement(locator string) ElementResult {
	return ElementResult{Locator: locator}
}

// FailedElement returns a result for a locator that could not be evaluated.
func FailedElement(locator string, err error) ElementResult {
	return ElementResult{
		Locator: locator,
		Error:   ErrorMessage(err),
	}
}

// Status is the outcome of a single-target pipeline run.
type Status string

// Status values.
const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Summary counts element outcomes for one URL.
// SuccessfulExtractions + FailedExtractions always equals TotalElements.
type Summary struct {
	TotalElements         int `json:"totalElements"`
	SuccessfulExtractions int `json:"successfulExtractions"`
	FailedExtractions     int `json:"failedExtractions"`
}

// URLResult is the uniform record produced for every URL of a run,
// whether the pipeline succeeded or not.
type URLResult struct {
	URL       string                   `json:"url"`
	Status    Status                   `json:"status"`
	Elements  map[string]ElementResult `json:"elements,omitempty"`
	Error     string                   `json:"error,omitempty"`
	ErrorCode string                   `json:"errorCode,omitempty"`
	Duration  time.Duration            `json:"-"`
	Summary   Summary                  `json:"summary"`

	// DocumentHash identifies the reduced document the locators were
	// validated against. Empty when the fetch stage failed.
	DocumentHash string `json:"documentHash,omitempty"`

	// PromptTokens is the token count of the DOM digest sent to the LLM.
	// Zero when no token counter is configured.
	PromptTokens int `json:"promptTokens,omitempty"`
}

// NewSuccessResult builds a success record holding exactly one element
// result per TargetSet member. Members missing from elements are recorded
// as not found; entries for names outside the TargetSet are dropped.
func NewSuccessResult(url string, targets TargetSet, elements map[string]ElementResult, d time.Duration) *URLResult {
	r := &URLResult{
		URL:      url,
		Status:   StatusSuccess,
		Elements: make(map[string]ElementResult, targets.Len()),
		Duration: max(d, 0),
		Summary:  Summary{TotalElements: targets.Len()},
	}
	for _, name := range targets.names {
		er, ok := elements[name]
		if !ok {
			er = MissingElement("")
		}
		r.Elements[name] = er
		if er.Found {
			r.Summary.SuccessfulExtractions++
		} else {
			r.Summary.FailedExtractions++
		}
	}
	return r
}

// NewErrorResult builds an error record in which every TargetSet member
// counts as a failed extraction.
func NewErrorResult(url string, targets TargetSet, err error, d time.Duration) *URLResult {
	return &URLResult{
		URL:       url,
		Status:    StatusError,
		Error:     ErrorMessage(err),
		ErrorCode: ErrorCode(err),
		Duration:  max(d, 0),
		Summary: Summary{
			TotalElements:     targets.Len(),
			FailedExtractions: targets.Len(),
		},
	}
}

// Succeeded reports whether the pipeline completed all stages.
func (r *URLResult) Succeeded() bool {
	return r.Status == StatusSuccess
}

// urlResultJSON is the wire form of URLResult, with the duration in
// fractional seconds.
type urlResultJSON struct {
	*urlResultAlias
	ProcessingTimeSeconds float64 `json:"processingTimeSeconds"`
}

type urlResultAlias URLResult

// MarshalJSON encodes r with its duration as processingTimeSeconds.
func (r *URLResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(urlResultJSON{
		urlResultAlias:        (*urlResultAlias)(r),
		ProcessingTimeSeconds: r.ProcessingSeconds(),
	})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (r *URLResult) UnmarshalJSON(data []byte) error {
	v := urlResultJSON{urlResultAlias: (*urlResultAlias)(r)}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	r.Duration = time.Duration(v.ProcessingTimeSeconds * float64(time.Second))
	return nil
}

// ProcessingSeconds returns the pipeline duration in seconds.
func (r *URLResult) ProcessingSeconds() float64 {
	return r.Duration.Seconds()
}

// TruncatePreview shortens s to at most maxLen runes, appending "..."
// when anything was cut. A non-positive maxLen disables truncation.
func TruncatePreview(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen]) + "..."
}

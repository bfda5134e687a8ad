package slog

import (
	"log/slog"
	"time"

	"github.com/fwojciec/locxpath"
)

// Ensure LoggingValidator implements locxpath.Validator.
var _ locxpath.Validator = (*LoggingValidator)(nil)

// LoggingValidator wraps a Validator with logging.
type LoggingValidator struct {
	next   locxpath.Validator
	logger *slog.Logger
}

// NewLoggingValidator creates a new LoggingValidator.
func NewLoggingValidator(next locxpath.Validator, logger *slog.Logger) *LoggingValidator {
	return &LoggingValidator{next: next, logger: logger}
}

// Validate delegates to the wrapped validator and logs how many locators
// matched.
func (v *LoggingValidator) Validate(html string, locators locxpath.LocatorMap) (results map[string]locxpath.ElementResult, err error) {
	defer func(begin time.Time) {
		found, failed := 0, 0
		for _, r := range results {
			switch {
			case r.Found:
				found++
			case r.Error != "":
				failed++
			}
		}
		v.logger.Debug("validate locators",
			"locators", len(locators),
			"found", found,
			"failed", failed,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return v.next.Validate(html, locators)
}

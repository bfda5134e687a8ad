package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/locxpath"
)

// Ensure LoggingInferrer implements locxpath.Inferrer.
var _ locxpath.Inferrer = (*LoggingInferrer)(nil)

// LoggingInferrer wraps an Inferrer with logging.
type LoggingInferrer struct {
	next   locxpath.Inferrer
	logger *slog.Logger
}

// NewLoggingInferrer creates a new LoggingInferrer.
func NewLoggingInferrer(next locxpath.Inferrer, logger *slog.Logger) *LoggingInferrer {
	return &LoggingInferrer{next: next, logger: logger}
}

// Infer delegates to the wrapped inferrer and logs the operation.
func (i *LoggingInferrer) Infer(ctx context.Context, digest string, targets locxpath.TargetSet) (locators locxpath.LocatorMap, err error) {
	defer func(begin time.Time) {
		level := slog.LevelDebug
		if err != nil {
			level = slog.LevelWarn
		}
		i.logger.Log(ctx, level, "infer locators",
			"digest_bytes", len(digest),
			"targets", targets.Len(),
			"locators", len(locators),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return i.next.Infer(ctx, digest, targets)
}

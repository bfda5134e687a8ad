package slog_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fwojciec/locxpath"
	"github.com/fwojciec/locxpath/mock"
	locslog "github.com/fwojciec/locxpath/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingValidator_Validate(t *testing.T) {
	t.Parallel()

	t.Run("logs found and failed counts", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Validator{
			ValidateFn: func(html string, locators locxpath.LocatorMap) (map[string]locxpath.ElementResult, error) {
				return map[string]locxpath.ElementResult{
					"title":  locxpath.FoundElement("//h1", "Hello", 1),
					"author": locxpath.MissingElement("//span[@class='author']"),
					"body":   locxpath.FailedElement("//div[", errors.New("invalid locator")),
				}, nil
			},
		}

		validator := locslog.NewLoggingValidator(inner, debugLogger(&buf))
		results, err := validator.Validate("<html></html>", locxpath.LocatorMap{
			"title":  "//h1",
			"author": "//span[@class='author']",
			"body":   "//div[",
		})

		require.NoError(t, err)
		assert.Len(t, results, 3)
		output := buf.String()
		assert.Contains(t, output, "msg=\"validate locators\"")
		assert.Contains(t, output, "locators=3")
		assert.Contains(t, output, "found=1")
		assert.Contains(t, output, "failed=1")
	})

	t.Run("logs parse error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Validator{
			ValidateFn: func(html string, locators locxpath.LocatorMap) (map[string]locxpath.ElementResult, error) {
				return nil, errors.New("bad document")
			},
		}

		validator := locslog.NewLoggingValidator(inner, debugLogger(&buf))
		_, err := validator.Validate("", nil)

		require.Error(t, err)
		assert.Contains(t, buf.String(), "err=\"bad document\"")
	})
}

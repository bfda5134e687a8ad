package gemini_test

import (
	"context"
	"testing"

	"github.com/fwojciec/locxpath"
	"github.com/fwojciec/locxpath/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCounter_CountTokens(t *testing.T) {
	t.Parallel()

	tc, err := gemini.NewTokenCounter("gemini-2.0-flash")
	require.NoError(t, err)

	var _ locxpath.TokenCounter = tc

	t.Run("counts tokens in a digest", func(t *testing.T) {
		t.Parallel()

		count, err := tc.CountTokens(context.Background(), `<title>Hello</title>`+"\n"+`<h1 id="t">Hello</h1>`)

		require.NoError(t, err)
		assert.Positive(t, count)
	})

	t.Run("empty string returns zero", func(t *testing.T) {
		t.Parallel()

		count, err := tc.CountTokens(context.Background(), "")

		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("longer digest returns more tokens", func(t *testing.T) {
		t.Parallel()

		short, err := tc.CountTokens(context.Background(), "<h1>Hello</h1>")
		require.NoError(t, err)

		long, err := tc.CountTokens(context.Background(), `<h1>Hello</h1>
<article class="post">A much longer piece of article text that should need more tokens.</article>
<div id="sidebar">Related links and other navigation</div>`)
		require.NoError(t, err)

		assert.Greater(t, long, short)
	})
}

func TestNewTokenCounter_RejectsUnknownModel(t *testing.T) {
	t.Parallel()

	_, err := gemini.NewTokenCounter("no-such-model")

	require.Error(t, err)
	assert.Equal(t, locxpath.EINVALID, locxpath.ErrorCode(err))
}

package rod

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestManager returns a manager whose browsers are empty generations,
// so recycling can be checked without launching Chrome.
func newTestManager(t *testing.T, maxPages int) (*BrowserManager, *int) {
	t.Helper()
	launches := 0
	bm := &BrowserManager{
		maxPages: maxPages,
		launch: func() (*generation, error) {
			launches++
			return &generation{}, nil
		},
	}
	g, err := bm.launch()
	require.NoError(t, err)
	bm.current = g
	return bm, &launches
}

func TestBrowserManager_Acquire(t *testing.T) {
	t.Parallel()

	t.Run("recycles after max pages", func(t *testing.T) {
		t.Parallel()

		bm, launches := newTestManager(t, 2)
		first := bm.current

		for range 2 {
			_, release, err := bm.Acquire()
			require.NoError(t, err)
			release()
		}
		assert.Equal(t, 1, *launches)

		_, release, err := bm.Acquire()
		require.NoError(t, err)
		defer release()

		assert.Equal(t, 2, *launches)
		assert.NotSame(t, first, bm.current)
		assert.True(t, first.retired)
	})

	t.Run("keeps a retired browser until its pages finish", func(t *testing.T) {
		t.Parallel()

		bm, _ := newTestManager(t, 1)
		first := bm.current

		_, releaseFirst, err := bm.Acquire()
		require.NoError(t, err)

		_, releaseSecond, err := bm.Acquire()
		require.NoError(t, err)
		defer releaseSecond()

		assert.True(t, first.retired)
		assert.Equal(t, 1, first.inFlight)

		releaseFirst()
		assert.Equal(t, 0, first.inFlight)
	})

	t.Run("release is idempotent", func(t *testing.T) {
		t.Parallel()

		bm, _ := newTestManager(t, 10)

		_, release, err := bm.Acquire()
		require.NoError(t, err)
		release()
		release()

		assert.Equal(t, 0, bm.current.inFlight)
	})

	t.Run("keeps serving when relaunch fails", func(t *testing.T) {
		t.Parallel()

		bm, _ := newTestManager(t, 1)
		first := bm.current
		bm.launch = func() (*generation, error) { return nil, errors.New("no chrome") }

		for range 3 {
			_, release, err := bm.Acquire()
			require.NoError(t, err)
			release()
		}

		assert.Same(t, first, bm.current)
		assert.False(t, first.retired)
	})

	t.Run("fails after close", func(t *testing.T) {
		t.Parallel()

		bm, _ := newTestManager(t, 10)
		require.NoError(t, bm.Close())
		require.NoError(t, bm.Close())

		_, _, err := bm.Acquire()
		require.ErrorIs(t, err, errClosed)
	})
}

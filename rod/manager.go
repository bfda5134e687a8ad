// Package rod renders JavaScript-heavy pages with headless Chrome for the
// --render fetch mode.
package rod

import (
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// DefaultMaxPages is the default number of pages before browser recycling.
const DefaultMaxPages = 75

// BrowserManager hands out a shared headless browser and replaces it after
// maxPages pages. Chrome's memory baseline keeps growing under load even
// with pages closed, so long batches need a fresh process now and then.
// A replaced browser stays alive until the pages rendering on it finish.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	mu       sync.Mutex
	current  *generation
	maxPages int
	closed   bool
	launch   func() (*generation, error)
}

// generation is one browser process and its usage counters.
type generation struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	pages    int
	inFlight int
	retired  bool
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets the maximum number of pages before the browser is recycled.
// Defaults to 75 if not specified.
func WithMaxPages(n int) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxPages = n
	}
}

// NewBrowserManager launches a headless Chrome browser.
// Close must be called when the BrowserManager is no longer needed.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{
		maxPages: DefaultMaxPages,
		launch:   launchBrowser,
	}
	for _, opt := range opts {
		opt(bm)
	}

	g, err := bm.launch()
	if err != nil {
		return nil, err
	}
	bm.current = g
	return bm, nil
}

// Acquire returns the browser to render the next page on and a release
// function that must be called once the page is closed. When the current
// browser has served maxPages pages a new one is launched first; if that
// launch fails the old browser keeps serving.
func (bm *BrowserManager) Acquire() (*rod.Browser, func(), error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil, nil, errClosed
	}

	if bm.maxPages > 0 && bm.current.pages >= bm.maxPages {
		if next, err := bm.launch(); err == nil {
			old := bm.current
			old.retired = true
			if old.inFlight == 0 {
				old.close()
			}
			bm.current = next
		}
	}

	g := bm.current
	g.pages++
	g.inFlight++

	var once sync.Once
	release := func() {
		once.Do(func() { bm.release(g) })
	}
	return g.browser, release, nil
}

func (bm *BrowserManager) release(g *generation) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	g.inFlight--
	if g.retired && g.inFlight == 0 {
		g.close()
	}
}

// Close releases browser resources. Close is safe to call multiple times.
// Pages still rendering are aborted.
func (bm *BrowserManager) Close() error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil
	}
	bm.closed = true
	return bm.current.close()
}

// LauncherPID returns the process ID of the current browser launcher.
// This method exists for testing purposes to verify proper cleanup.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.current == nil || bm.current.launcher == nil {
		return 0
	}
	return bm.current.launcher.PID()
}

// launchBrowser starts a new browser instance with stability flags.
func launchBrowser() (*generation, error) {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(true)

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	return &generation{browser: browser, launcher: l}, nil
}

// close shuts down the browser and its launcher. Safe to call twice.
func (g *generation) close() error {
	var err error
	if g.browser != nil {
		err = g.browser.Close()
		g.browser = nil
	}
	if g.launcher != nil {
		g.launcher.Kill()
		g.launcher = nil
	}
	return err
}

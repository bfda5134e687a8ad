package extract

import (
	"context"
	"sync/atomic"

	"github.com/fwojciec/locxpath"
	"golang.org/x/sync/semaphore"
)

// Default gate capacities.
const (
	DefaultFetchLimit  = 20
	DefaultLLMLimit    = 5
	DefaultGlobalLimit = 50
)

// Limits holds the capacities of the three concurrency gates.
// Zero values fall back to the defaults.
type Limits struct {
	Fetch  int
	LLM    int
	Global int
}

// DefaultLimits returns the default gate capacities: 20 fetches, 5 LLM
// calls and 50 in-flight pipelines.
func DefaultLimits() Limits {
	return Limits{Fetch: DefaultFetchLimit, LLM: DefaultLLMLimit, Global: DefaultGlobalLimit}
}

// Usage reports how many slots of each gate are currently held.
type Usage struct {
	Fetch  int
	LLM    int
	Global int
}

// Governor bounds how many pipeline stages of each class run at once.
// The fetch and LLM gates are held only for their stage; the global gate
// spans a whole pipeline. Waiters are admitted in FIFO order.
//
// Governor is safe for concurrent use.
type Governor struct {
	limits Limits
	fetch  *gate
	llm    *gate
	global *gate
}

// NewGovernor creates a Governor. Returns EINVALID for negative limits.
func NewGovernor(limits Limits) (*Governor, error) {
	if limits.Fetch < 0 || limits.LLM < 0 || limits.Global < 0 {
		return nil, locxpath.Errorf(locxpath.EINVALID, "concurrency limits must be positive")
	}
	if limits.Fetch == 0 {
		limits.Fetch = DefaultFetchLimit
	}
	if limits.LLM == 0 {
		limits.LLM = DefaultLLMLimit
	}
	if limits.Global == 0 {
		limits.Global = DefaultGlobalLimit
	}
	return &Governor{
		limits: limits,
		fetch:  newGate(limits.Fetch),
		llm:    newGate(limits.LLM),
		global: newGate(limits.Global),
	}, nil
}

// Limits returns the effective gate capacities.
func (g *Governor) Limits() Limits {
	return g.limits
}

// Fetch runs fn while holding a fetch slot.
func (g *Governor) Fetch(ctx context.Context, fn func() error) error {
	return g.fetch.do(ctx, fn)
}

// LLM runs fn while holding an LLM slot.
func (g *Governor) LLM(ctx context.Context, fn func() error) error {
	return g.llm.do(ctx, fn)
}

// Global runs fn while holding a pipeline slot.
func (g *Governor) Global(ctx context.Context, fn func() error) error {
	return g.global.do(ctx, fn)
}

// Active returns the number of slots currently held per gate.
func (g *Governor) Active() Usage {
	return Usage{
		Fetch:  int(g.fetch.active.Load()),
		LLM:    int(g.llm.active.Load()),
		Global: int(g.global.active.Load()),
	}
}

// gate is a counting admission gate.
type gate struct {
	sem    *semaphore.Weighted
	active atomic.Int64
}

func newGate(n int) *gate {
	return &gate{sem: semaphore.NewWeighted(int64(n))}
}

// do acquires a slot, runs fn and releases the slot on every exit path,
// panics included. fn is not run if ctx is done before a slot is granted.
func (g *gate) do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	g.active.Add(1)
	defer func() {
		g.active.Add(-1)
		g.sem.Release(1)
	}()
	return fn()
}

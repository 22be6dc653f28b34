// ABOUTME: Deferred asset loader: fetches an optional capability once, off the caller's goroutine.
// ABOUTME: Tracks the forward-only Pending -> Loaded|Fallback lifecycle and discards results after unmount.
package loader

import (
	"context"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// State is the lifecycle tag of a loader.
type State int

const (
	// StatePending means the fetch has not resolved yet.
	StatePending State = iota
	// StateLoaded means the fetch succeeded and the capability is available.
	StateLoaded
	// StateFallback means the fetch failed and only plain rendering is available.
	StateFallback
)

// String returns the lowercase name used in templates, logs and websocket messages.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateLoaded:
		return "loaded"
	case StateFallback:
		return "fallback"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// FetchFunc acquires the capability. It should return promptly once ctx is cancelled.
type FetchFunc[C any] func(ctx context.Context) (C, error)

// Result is the tagged outcome of one fetch.
type Result[C any] struct {
	Value C
	Err   error
}

// OK reports whether the fetch succeeded.
func (r Result[C]) OK() bool { return r.Err == nil }

// Option configures a Loader.
type Option func(*options)

type options struct {
	logger *zap.Logger
	name   string
}

// WithLogger sets the logger that receives fetch outcomes.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName labels log lines with the capability being loaded.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// Loader owns the deferred fetch for a single component instance.
// The zero value is not usable; construct with New.
type Loader[C any] struct {
	fetch  FetchFunc[C]
	logger *zap.Logger
	name   string

	mu        sync.Mutex
	state     State
	value     C
	err       error
	mounted   bool
	unmounted bool
	fetches   int
	cancel    context.CancelFunc
	listeners []func(State)
	done      chan struct{}
}

// New returns a Pending loader. Nothing is fetched until Mount.
func New[C any](fetch FetchFunc[C], opts ...Option) *Loader[C] {
	o := options{logger: zap.NewNop(), name: "capability"}
	for _, opt := range opts {
		opt(&o)
	}
	return &Loader[C]{
		fetch:  fetch,
		logger: o.logger,
		name:   o.name,
		state:  StatePending,
		done:   make(chan struct{}),
	}
}

// Mount starts the fetch in the background and returns immediately.
// Only the first call on a live loader starts a fetch; it reports whether this call did.
// The fetch keeps ctx's values but not its cancellation, so a finished request
// does not abort it. Unmount is the only way to cancel it.
func (l *Loader[C]) Mount(ctx context.Context) bool {
	l.mu.Lock()
	if l.mounted || l.unmounted {
		l.mu.Unlock()
		return false
	}
	l.mounted = true
	l.fetches++
	fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	l.cancel = cancel
	l.mu.Unlock()

	attempt := ulid.Make().String()
	l.logger.Debug("deferred fetch started",
		zap.String("component", "loader"),
		zap.String("capability", l.name),
		zap.String("attempt", attempt),
	)
	go l.run(fetchCtx, attempt)
	return true
}

func (l *Loader[C]) run(ctx context.Context, attempt string) {
	res := l.invoke(ctx)
	l.settle(res, attempt)
}

// invoke calls the fetch func, turning a panic into a failed Result.
func (l *Loader[C]) invoke(ctx context.Context) (res Result[C]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[C]{Err: fmt.Errorf("fetch %s panicked: %v", l.name, r)}
		}
	}()
	v, err := l.fetch(ctx)
	if err != nil {
		return Result[C]{Err: err}
	}
	return Result[C]{Value: v}
}

// settle applies a fetch result exactly once. Results arriving after Unmount are dropped.
func (l *Loader[C]) settle(res Result[C], attempt string) {
	l.mu.Lock()
	if l.unmounted || l.state != StatePending {
		l.mu.Unlock()
		l.logger.Debug("deferred fetch discarded",
			zap.String("component", "loader"),
			zap.String("capability", l.name),
			zap.String("attempt", attempt),
			zap.Bool("ok", res.OK()),
		)
		return
	}

	if res.OK() {
		l.state = StateLoaded
		l.value = res.Value
	} else {
		l.state = StateFallback
		l.err = res.Err
	}
	state := l.state
	listeners := l.listeners
	l.listeners = nil
	l.cancel()
	close(l.done)
	l.mu.Unlock()

	if res.OK() {
		l.logger.Info("deferred fetch loaded",
			zap.String("component", "loader"),
			zap.String("capability", l.name),
			zap.String("attempt", attempt),
		)
	} else {
		l.logger.Warn("deferred fetch failed, using fallback",
			zap.String("component", "loader"),
			zap.String("capability", l.name),
			zap.String("attempt", attempt),
			zap.Error(res.Err),
		)
	}

	for _, fn := range listeners {
		fn(state)
	}
}

// Unmount cancels an outstanding fetch and detaches all listeners.
// It is safe to call more than once and before Mount.
func (l *Loader[C]) Unmount() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.unmounted {
		return
	}
	l.unmounted = true
	l.listeners = nil
	if l.cancel != nil {
		l.cancel()
	}
	if l.state == StatePending {
		close(l.done)
	}
}

// OnSettle registers fn to run once when the loader leaves Pending.
// If it already has, fn runs immediately on the caller's goroutine.
// Listeners are never called after Unmount.
func (l *Loader[C]) OnSettle(fn func(State)) {
	l.mu.Lock()
	if l.unmounted {
		l.mu.Unlock()
		return
	}
	if l.state == StatePending {
		l.listeners = append(l.listeners, fn)
		l.mu.Unlock()
		return
	}
	state := l.state
	l.mu.Unlock()
	fn(state)
}

// State returns the current lifecycle state.
func (l *Loader[C]) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Snapshot returns the state together with the cached capability (Loaded) or error (Fallback).
func (l *Loader[C]) Snapshot() (State, C, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state, l.value, l.err
}

// Fetches returns how many fetches this loader has started. It never exceeds one.
func (l *Loader[C]) Fetches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fetches
}

// Unmounted reports whether Unmount has been called.
func (l *Loader[C]) Unmounted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unmounted
}

// Done is closed once the loader settles or is unmounted, whichever comes first.
func (l *Loader[C]) Done() <-chan struct{} {
	return l.done
}

// Wait blocks until Done is closed or ctx ends, then returns the current state.
func (l *Loader[C]) Wait(ctx context.Context) (State, error) {
	select {
	case <-l.done:
		return l.State(), nil
	case <-ctx.Done():
		return l.State(), ctx.Err()
	}
}

// ABOUTME: Tests for the deferred loader lifecycle, fetch-once guarantee, and unmount discarding.
// ABOUTME: Uses goleak to prove fetch goroutines exit and zaptest/observer to check diagnostics.
package loader

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type capability struct{ name string }

// gatedFetch returns a fetch func that blocks until release is closed or ctx ends,
// and counts how often it was invoked.
func gatedFetch(calls *atomic.Int32, release <-chan struct{}, result *capability, err error) FetchFunc[*capability] {
	return func(ctx context.Context) (*capability, error) {
		calls.Add(1)
		select {
		case <-release:
			return result, err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func waitSettled(t *testing.T, l *Loader[*capability]) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	state, err := l.Wait(ctx)
	require.NoError(t, err, "loader did not settle in time")
	return state
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "loaded", StateLoaded.String())
	assert.Equal(t, "fallback", StateFallback.String())
	assert.Equal(t, "state(9)", State(9).String())
}

func TestNewLoaderStartsPendingWithoutFetching(t *testing.T) {
	var calls atomic.Int32
	l := New(gatedFetch(&calls, nil, nil, nil))

	assert.Equal(t, StatePending, l.State())
	assert.Equal(t, 0, l.Fetches())
	assert.Equal(t, int32(0), calls.Load())
}

func TestMountSuccessTransitionsToLoaded(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	want := &capability{name: "goldmark"}
	l := New(gatedFetch(&calls, release, want, nil))

	require.True(t, l.Mount(context.Background()))
	assert.Equal(t, StatePending, l.State(), "mount must not block on the fetch")

	close(release)
	assert.Equal(t, StateLoaded, waitSettled(t, l))

	state, got, err := l.Snapshot()
	assert.Equal(t, StateLoaded, state)
	assert.Same(t, want, got)
	assert.NoError(t, err)
}

func TestMountFailureTransitionsToFallback(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	boom := errors.New("network unreachable")
	l := New(gatedFetch(&calls, release, nil, boom))

	l.Mount(context.Background())
	close(release)

	assert.Equal(t, StateFallback, waitSettled(t, l))
	state, got, err := l.Snapshot()
	assert.Equal(t, StateFallback, state)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, boom)
}

func TestFetchPanicBecomesFallback(t *testing.T) {
	l := New(func(ctx context.Context) (*capability, error) {
		panic("module init exploded")
	})
	l.Mount(context.Background())

	assert.Equal(t, StateFallback, waitSettled(t, l))
	_, _, err := l.Snapshot()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "module init exploded")
}

func TestFetchFiresAtMostOnce(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	l := New(gatedFetch(&calls, release, &capability{}, nil))

	var wg sync.WaitGroup
	var started atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Mount(context.Background()) {
				started.Add(1)
			}
		}()
	}
	wg.Wait()
	close(release)
	waitSettled(t, l)

	assert.False(t, l.Mount(context.Background()), "mount after settle must be a no-op")
	assert.Equal(t, int32(1), started.Load())
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, l.Fetches())
}

func TestStateNeverReverses(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	l := New(gatedFetch(&calls, release, &capability{}, nil))
	l.Mount(context.Background())
	close(release)
	require.Equal(t, StateLoaded, waitSettled(t, l))

	// A second settle attempt, as a stray late result would make, is ignored.
	l.settle(Result[*capability]{Err: errors.New("late failure")}, "late")
	assert.Equal(t, StateLoaded, l.State())
	_, _, err := l.Snapshot()
	assert.NoError(t, err)
}

func TestMountIgnoresRequestCancellation(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	l := New(gatedFetch(&calls, release, &capability{}, nil))

	reqCtx, cancelReq := context.WithCancel(context.Background())
	l.Mount(reqCtx)
	cancelReq()
	close(release)

	assert.Equal(t, StateLoaded, waitSettled(t, l))
}

func TestUnmountBeforeResolveDiscardsResult(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	finished := make(chan struct{})
	l := New(func(ctx context.Context) (*capability, error) {
		defer close(finished)
		close(entered)
		<-release // ignores ctx to simulate a fetch that resolves after unmount
		return &capability{name: "late"}, nil
	})

	var notified atomic.Int32
	l.OnSettle(func(State) { notified.Add(1) })

	l.Mount(context.Background())
	<-entered
	l.Unmount()

	select {
	case <-l.Done():
	default:
		t.Fatal("Done must be closed after unmount")
	}

	close(release)
	<-finished
	// Give the settle step a moment to run and be discarded.
	time.Sleep(20 * time.Millisecond)

	state, got, err := l.Snapshot()
	assert.Equal(t, StatePending, state)
	assert.Nil(t, got)
	assert.NoError(t, err)
	assert.Equal(t, int32(0), notified.Load())
	assert.True(t, l.Unmounted())
}

func TestUnmountCancelsFetchContext(t *testing.T) {
	var calls atomic.Int32
	cancelled := make(chan struct{})
	l := New(func(ctx context.Context) (*capability, error) {
		calls.Add(1)
		<-ctx.Done()
		close(cancelled)
		return nil, ctx.Err()
	})
	l.Mount(context.Background())
	l.Unmount()

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch context was not cancelled by unmount")
	}
	assert.Equal(t, StatePending, l.State())
}

func TestUnmountIsIdempotentAndBlocksMount(t *testing.T) {
	var calls atomic.Int32
	l := New(gatedFetch(&calls, nil, nil, nil))
	l.Unmount()
	l.Unmount()

	assert.False(t, l.Mount(context.Background()))
	assert.Equal(t, int32(0), calls.Load())
}

func TestOnSettleNotifiesOnceAndLateListenersRunImmediately(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	l := New(gatedFetch(&calls, release, &capability{}, nil))

	got := make(chan State, 2)
	l.OnSettle(func(s State) { got <- s })
	l.Mount(context.Background())
	close(release)

	select {
	case s := <-got:
		assert.Equal(t, StateLoaded, s)
	case <-time.After(2 * time.Second):
		t.Fatal("listener not notified")
	}

	var late State = StatePending
	l.OnSettle(func(s State) { late = s })
	assert.Equal(t, StateLoaded, late)
	assert.Len(t, got, 0)
}

func TestWaitHonorsContext(t *testing.T) {
	var calls atomic.Int32
	l := New(gatedFetch(&calls, nil, nil, nil))
	l.Mount(context.Background())
	defer l.Unmount()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	state, err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StatePending, state)
}

func TestFailureIsLoggedAsWarning(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	release := make(chan struct{})
	var calls atomic.Int32
	l := New(gatedFetch(&calls, release, nil, errors.New("parse error")),
		WithLogger(zap.New(core)),
		WithName("markdown"),
	)
	l.Mount(context.Background())
	close(release)
	waitSettled(t, l)

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	fields := warnings[0].ContextMap()
	assert.Equal(t, "markdown", fields["capability"])
	assert.Equal(t, "parse error", fields["error"])
	assert.NotEmpty(t, fields["attempt"])
}

func TestResultOK(t *testing.T) {
	assert.True(t, Result[int]{Value: 1}.OK())
	assert.False(t, Result[int]{Err: errors.New("x")}.OK())
}

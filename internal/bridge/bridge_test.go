package bridge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rathod-sahaab/elide/internal/logging"
	"github.com/rathod-sahaab/elide/internal/store"
)

// opFunc lets tests submit arbitrary work through the bridge.
type opFunc struct {
	fn func(ctx context.Context, conn store.Conn) (any, error)
}

func (o opFunc) opName() string { return "test_op" }
func (o opFunc) execute(ctx context.Context, conn store.Conn) (any, error) {
	return o.fn(ctx, conn)
}

func newTestBridge(t *testing.T, workers, queueSize int) (*Bridge, *store.MemoryPool) {
	t.Helper()
	pool := store.NewMemoryPool()
	b := New(pool, workers, queueSize, logging.NewLogger(true))
	t.Cleanup(b.Close)
	return b, pool
}

func TestSubmitRunsOperation(t *testing.T) {
	b, _ := newTestBridge(t, 2, 4)

	v, err := b.submit(context.Background(), opFunc{fn: func(ctx context.Context, conn store.Conn) (any, error) {
		return 42, nil
	}})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestConcurrencyBoundedByWorkerCount(t *testing.T) {
	const workers = 3
	b, _ := newTestBridge(t, workers, workers+1)

	var (
		inFlight atomic.Int32
		peak     atomic.Int32
	)
	release := make(chan struct{})

	blockingOp := opFunc{fn: func(ctx context.Context, conn store.Conn) (any, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		inFlight.Add(-1)
		return nil, nil
	}}

	// workers+1 concurrent submissions: the extra one must queue, not run.
	var wg sync.WaitGroup
	for i := 0; i < workers+1; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := b.submit(context.Background(), blockingOp)
			assert.NoError(t, err)
		}()
	}

	// Let the workers pick up work, then check nothing beyond N is executing.
	require.Eventually(t, func() bool {
		return inFlight.Load() == workers
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(workers), peak.Load())

	close(release)
	wg.Wait()

	// The queued submission ran once a worker freed up.
	assert.Equal(t, int32(0), inFlight.Load())
	assert.Equal(t, int32(workers), peak.Load())
}

func TestTrySubmitFailsFastWhenQueueFull(t *testing.T) {
	b, _ := newTestBridge(t, 1, 1)

	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})

	blockingOp := opFunc{fn: func(ctx context.Context, conn store.Conn) (any, error) {
		close(started)
		<-release
		return nil, nil
	}}

	go b.submit(context.Background(), blockingOp) //nolint:errcheck
	<-started

	// Fill the single queue slot.
	go b.submit(context.Background(), opFunc{fn: func(ctx context.Context, conn store.Conn) (any, error) {
		return nil, nil
	}}) //nolint:errcheck

	require.Eventually(t, func() bool {
		return len(b.queue) == 1
	}, time.Second, time.Millisecond)

	_, err := b.trySubmit(context.Background(), opFunc{fn: func(ctx context.Context, conn store.Conn) (any, error) {
		return nil, nil
	}})
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestCallerAbandonmentDoesNotCancelOperation(t *testing.T) {
	b, _ := newTestBridge(t, 1, 4)

	completed := make(chan struct{})
	started := make(chan struct{})

	op := opFunc{fn: func(ctx context.Context, conn store.Conn) (any, error) {
		close(started)
		// The worker context must not carry the caller's cancellation.
		select {
		case <-ctx.Done():
			t.Error("operation context was cancelled by caller abandonment")
		case <-time.After(50 * time.Millisecond):
		}
		close(completed)
		return "done", nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := b.submit(ctx, op)
		errCh <- err
	}()

	<-started
	cancel() // caller stops waiting mid-flight

	err := <-errCh
	assert.ErrorIs(t, err, ErrOutcomeUnknown)

	// The operation still ran to completion against storage.
	select {
	case <-completed:
	case <-time.After(time.Second):
		t.Fatal("operation did not run to completion after caller abandonment")
	}
}

func TestSubmitAfterCloseFails(t *testing.T) {
	pool := store.NewMemoryPool()
	b := New(pool, 1, 4, logging.NewLogger(true))
	b.Close()

	_, err := b.submit(context.Background(), opFunc{fn: func(ctx context.Context, conn store.Conn) (any, error) {
		return nil, nil
	}})
	assert.ErrorIs(t, err, ErrBridgeClosed)

	_, err = b.trySubmit(context.Background(), opFunc{fn: func(ctx context.Context, conn store.Conn) (any, error) {
		return nil, nil
	}})
	assert.ErrorIs(t, err, ErrBridgeClosed)
}

func TestCloseFailsQueuedOperations(t *testing.T) {
	pool := store.NewMemoryPool()
	b := New(pool, 1, 4, logging.NewLogger(true))

	release := make(chan struct{})
	started := make(chan struct{})

	go b.submit(context.Background(), opFunc{fn: func(ctx context.Context, conn store.Conn) (any, error) {
		close(started)
		<-release
		return nil, nil
	}}) //nolint:errcheck
	<-started

	// Queue an operation behind the blocked worker.
	queuedErr := make(chan error, 1)
	go func() {
		_, err := b.submit(context.Background(), opFunc{fn: func(ctx context.Context, conn store.Conn) (any, error) {
			return nil, nil
		}})
		queuedErr <- err
	}()
	require.Eventually(t, func() bool {
		return len(b.queue) == 1
	}, time.Second, time.Millisecond)

	close(release)
	b.Close()

	select {
	case err := <-queuedErr:
		// Either the worker drained it before noticing the shutdown, or the
		// bridge failed it. A silent drop is the one forbidden outcome.
		if err != nil {
			assert.ErrorIs(t, err, ErrBridgeClosed)
		}
	case <-time.After(time.Second):
		t.Fatal("queued operation neither completed nor failed on close")
	}
}

func TestAcquireFailureSurfacesBridgeUnavailable(t *testing.T) {
	b, pool := newTestBridge(t, 1, 4)
	pool.AcquireErr = errors.New("connection refused")

	_, err := b.submit(context.Background(), opFunc{fn: func(ctx context.Context, conn store.Conn) (any, error) {
		return nil, nil
	}})
	assert.ErrorIs(t, err, ErrBridgeUnavailable)
}

func TestNoCrossCallerOrdering(t *testing.T) {
	// With more than one worker there is no ordering guarantee between
	// submissions from different callers; both must simply complete.
	b, _ := newTestBridge(t, 2, 8)

	var done atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := b.submit(context.Background(), opFunc{fn: func(ctx context.Context, conn store.Conn) (any, error) {
				done.Add(1)
				return nil, nil
			}})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(16), done.Load())
}

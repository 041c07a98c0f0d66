// Package bridge decouples the non-blocking HTTP handlers from blocking
// storage access. Submissions go through a bounded queue into a fixed pool of
// workers; each worker checks one connection out of the store per operation,
// so at most N storage calls are ever in flight.
//
// Guarantees and limitations:
//   - FIFO order holds per worker only. Workers pick tasks by availability, so
//     two operations submitted back to back may execute on different workers
//     in either order.
//   - A caller that stops waiting does not cancel the in-flight storage call;
//     it runs to completion and the caller gets ErrOutcomeUnknown.
//   - Workers are not respawned. A worker that dies takes its capacity with it.
package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/rathod-sahaab/elide/internal/logging"
	"github.com/rathod-sahaab/elide/internal/metrics"
	"github.com/rathod-sahaab/elide/internal/store"
)

// Op is one typed storage operation. The set of implementations is closed:
// every op lives in this package (see ops.go) and has a matching typed method
// on Bridge.
type Op interface {
	opName() string
	execute(ctx context.Context, conn store.Conn) (any, error)
}

type outcome struct {
	value any
	err   error
}

type task struct {
	op  Op
	ctx context.Context // caller context; used for its values only, never its cancellation
	res chan outcome    // buffered(1): a worker reply never blocks on an absent caller
}

// Bridge is the dispatch bridge. Construct with New, release with Close.
type Bridge struct {
	pool   store.Pool
	queue  chan *task
	done   chan struct{}
	logger *logging.Logger

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New starts workers goroutines reading from a queue of capacity queueSize.
// Neither is resized at runtime.
func New(pool store.Pool, workers, queueSize int, logger *logging.Logger) *Bridge {
	b := &Bridge{
		pool:   pool,
		queue:  make(chan *task, queueSize),
		done:   make(chan struct{}),
		logger: logger,
	}

	b.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go b.worker(i)
	}

	logger.Info("dispatch bridge started", "workers", workers, "queue_size", queueSize)
	return b
}

func (b *Bridge) worker(id int) {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		case t := <-b.queue:
			metrics.BridgeQueueDepth.Set(float64(len(b.queue)))
			b.run(id, t)
		}
	}
}

func (b *Bridge) run(id int, t *task) {
	// The storage call must survive caller abandonment: detach from the
	// caller's cancellation while keeping its values.
	ctx := context.WithoutCancel(t.ctx)

	metrics.BridgeOpsInFlight.Inc()
	defer metrics.BridgeOpsInFlight.Dec()

	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		b.logger.Error("worker failed to acquire storage connection",
			"worker", id, "op", t.op.opName(), "error", err.Error())
		metrics.RecordBridgeOp(t.op.opName(), ErrBridgeUnavailable)
		t.res <- outcome{err: fmt.Errorf("%w: %v", ErrBridgeUnavailable, err)}
		return
	}
	defer conn.Release()

	value, err := t.op.execute(ctx, conn)
	metrics.RecordBridgeOp(t.op.opName(), err)
	t.res <- outcome{value: value, err: err}
}

// submit enqueues op and waits for its result. Enqueueing blocks while the
// queue is full; ctx aborts the wait at either stage. Once the op is enqueued,
// ctx expiry no longer stops it; the caller gets ErrOutcomeUnknown instead.
func (b *Bridge) submit(ctx context.Context, op Op) (any, error) {
	t := &task{op: op, ctx: ctx, res: make(chan outcome, 1)}

	select {
	case <-b.done:
		return nil, ErrBridgeClosed
	default:
	}

	select {
	case b.queue <- t:
		metrics.BridgeQueueDepth.Set(float64(len(b.queue)))
	case <-b.done:
		return nil, ErrBridgeClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return b.wait(ctx, t)
}

// trySubmit enqueues op without blocking, failing fast with ErrQueueFull, then
// waits like submit.
func (b *Bridge) trySubmit(ctx context.Context, op Op) (any, error) {
	t := &task{op: op, ctx: ctx, res: make(chan outcome, 1)}

	select {
	case <-b.done:
		return nil, ErrBridgeClosed
	default:
	}

	select {
	case b.queue <- t:
		metrics.BridgeQueueDepth.Set(float64(len(b.queue)))
	default:
		return nil, ErrQueueFull
	}

	return b.wait(ctx, t)
}

func (b *Bridge) wait(ctx context.Context, t *task) (any, error) {
	select {
	case out := <-t.res:
		return out.value, out.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrOutcomeUnknown, ctx.Err())
	}
}

// Close stops the workers and fails every still-queued operation with
// ErrBridgeClosed. Operations already executing run to completion first.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
		b.wg.Wait()

		for {
			select {
			case t := <-b.queue:
				t.res <- outcome{err: ErrBridgeClosed}
			default:
				b.logger.Info("dispatch bridge stopped")
				return
			}
		}
	})
}

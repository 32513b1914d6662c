package battle

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// PollingLoop repeats one request on a fixed interval. The first request is
// issued one interval after start. A tick that comes due while the previous
// request (or its callback) is still running is skipped, so at most one
// request is ever outstanding.
type PollingLoop[T any] struct {
	cancel   context.CancelFunc
	stopOnce sync.Once
	stopped  atomic.Bool
	inFlight atomic.Bool
	issued   atomic.Int64
	skipped  atomic.Int64
}

func StartPolling[T any](
	parent context.Context,
	interval time.Duration,
	request func(ctx context.Context) (T, error),
	onResult func(T),
	onError func(error),
) *PollingLoop[T] {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ctx, cancel := context.WithCancel(parent)
	l := &PollingLoop[T]{cancel: cancel}
	metricPollingLoopsActive.Add(1)
	livePollingLoops.Add(1)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				l.Stop()
				return
			case <-ticker.C:
				if l.stopped.Load() {
					return
				}
				if !l.inFlight.CompareAndSwap(false, true) {
					l.skipped.Add(1)
					metricPollSkippedTotal.Add(1)
					continue
				}
				l.issued.Add(1)
				go l.tick(ctx, request, onResult, onError)
			}
		}
	}()
	return l
}

func (l *PollingLoop[T]) tick(ctx context.Context, request func(context.Context) (T, error), onResult func(T), onError func(error)) {
	defer l.inFlight.Store(false)
	metricPollTotal.Add(1)
	res, err := request(ctx)
	if l.stopped.Load() || ctx.Err() != nil {
		return
	}
	if err != nil {
		metricPollErrors.Add(1)
		if onError != nil {
			onError(err)
		}
		return
	}
	if onResult != nil {
		onResult(res)
	}
}

// Stop tears the loop down. It never waits for an outstanding request, so it
// is safe to call from inside onResult/onError and any number of times.
func (l *PollingLoop[T]) Stop() {
	l.stopOnce.Do(func() {
		l.stopped.Store(true)
		l.cancel()
		metricPollingLoopsActive.Add(-1)
		livePollingLoops.Add(-1)
	})
}

func (l *PollingLoop[T]) Stopped() bool { return l.stopped.Load() }

// Issued reports how many requests the loop has started.
func (l *PollingLoop[T]) Issued() int64 { return l.issued.Load() }

// Skipped reports how many ticks were dropped because a request was in flight.
func (l *PollingLoop[T]) Skipped() int64 { return l.skipped.Load() }

var livePollingLoops atomic.Int64

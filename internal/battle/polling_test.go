package battle

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPollingLoopSkipsTicksWhileRequestInFlight(t *testing.T) {
	release := make(chan struct{})
	var results atomic.Int32
	loop := StartPolling(context.Background(), 5*time.Millisecond,
		func(ctx context.Context) (int, error) {
			<-release
			return 1, nil
		},
		func(int) { results.Add(1) },
		nil,
	)
	defer loop.Stop()

	waitFor(t, time.Second, func() bool { return loop.Skipped() >= 3 }, "skipped ticks")
	if got := loop.Issued(); got != 1 {
		t.Fatalf("issued = %d, want 1", got)
	}
	close(release)
	waitFor(t, time.Second, func() bool { return results.Load() >= 1 }, "first result")
}

func TestPollingLoopStopFromCallback(t *testing.T) {
	var results atomic.Int32
	var loop *PollingLoop[int]
	ready := make(chan struct{})
	loop = StartPolling(context.Background(), 5*time.Millisecond,
		func(ctx context.Context) (int, error) { return 7, nil },
		func(int) {
			<-ready
			results.Add(1)
			loop.Stop()
		},
		nil,
	)
	close(ready)

	waitFor(t, time.Second, loop.Stopped, "loop stop")
	time.Sleep(40 * time.Millisecond)
	if got := results.Load(); got != 1 {
		t.Fatalf("results = %d, want 1", got)
	}
	if got := loop.Issued(); got != 1 {
		t.Fatalf("issued = %d, want 1", got)
	}
}

func TestPollingLoopDropsResultAfterStop(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var results atomic.Int32
	loop := StartPolling(context.Background(), 5*time.Millisecond,
		func(ctx context.Context) (int, error) {
			select {
			case started <- struct{}{}:
			default:
			}
			<-release
			return 1, nil
		},
		func(int) { results.Add(1) },
		func(error) { results.Add(1) },
	)
	<-started
	loop.Stop()
	loop.Stop()
	close(release)

	time.Sleep(30 * time.Millisecond)
	if got := results.Load(); got != 0 {
		t.Fatalf("callbacks after stop = %d, want 0", got)
	}
}

func TestPollingLoopKeepsGoingAfterErrors(t *testing.T) {
	var failures atomic.Int32
	loop := StartPolling(context.Background(), 5*time.Millisecond,
		func(ctx context.Context) (int, error) { return 0, errors.New("network down") },
		nil,
		func(error) { failures.Add(1) },
	)
	defer loop.Stop()

	waitFor(t, time.Second, func() bool { return failures.Load() >= 3 }, "repeated errors")
	if loop.Stopped() {
		t.Fatal("loop stopped after request errors")
	}
}

func TestPollingLoopStopsWithParentContext(t *testing.T) {
	before := livePollingLoops.Load()
	ctx, cancel := context.WithCancel(context.Background())
	loop := StartPolling(ctx, 5*time.Millisecond,
		func(ctx context.Context) (int, error) { return 0, nil }, nil, nil)
	if got := livePollingLoops.Load(); got != before+1 {
		t.Fatalf("live loops = %d, want %d", got, before+1)
	}
	cancel()
	waitFor(t, time.Second, loop.Stopped, "loop stop on parent cancel")
	if got := livePollingLoops.Load(); got != before {
		t.Fatalf("live loops = %d, want %d", got, before)
	}
}

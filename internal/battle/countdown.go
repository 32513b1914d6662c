package battle

import (
	"sync"
	"sync/atomic"
	"time"
)

// Remaining is the whole number of ticks left until target, never negative.
func Remaining(target, now time.Time, tick time.Duration) int {
	if tick <= 0 {
		tick = time.Second
	}
	left := target.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(left / tick)
}

// Countdown turns an absolute start instant into a local, advisory countdown.
// It is driven by the local clock, so skew against the server shows up as
// drift; the server's start time stays authoritative.
type Countdown struct {
	tick time.Duration
	now  func() time.Time

	mu     sync.Mutex
	active *countdownRun
}

type countdownRun struct {
	target    time.Time
	cancelled atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

func (r *countdownRun) stop() {
	r.cancelled.Store(true)
	r.closeOnce.Do(func() { close(r.done) })
}

func NewCountdown(tick time.Duration) *Countdown {
	if tick <= 0 {
		tick = time.Second
	}
	return &Countdown{tick: tick, now: time.Now}
}

// Begin starts a countdown towards target, replacing any countdown already
// running. onTick gets the remaining ticks once per tick; onReady fires once,
// on the tick where the remaining count reaches zero. Neither callback runs
// synchronously inside Begin.
func (c *Countdown) Begin(target CountdownTarget, onTick func(remaining int), onReady func()) {
	run := &countdownRun{target: target.StartTime, done: make(chan struct{})}

	c.mu.Lock()
	if c.active != nil {
		c.active.stop()
	}
	c.active = run
	c.mu.Unlock()
	metricCountdownTotal.Add(1)

	go c.run(run, onTick, onReady)
}

// run fires on the instants target minus a whole number of ticks, so the
// count reaches zero exactly at target and never before it. Each wait is
// recomputed from the clock, which absorbs timer lateness.
func (c *Countdown) run(run *countdownRun, onTick func(int), onReady func()) {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()
	last := -1
	for {
		left := run.target.Sub(c.now())
		next := 0
		if left > 0 {
			next = int((left - 1) / c.tick)
		}
		if last >= 0 && next > last {
			next = last
		}
		wait := left - time.Duration(next)*c.tick
		if wait < 0 {
			wait = 0
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-run.done:
			return
		case <-timer.C:
		}
		last = next

		if run.cancelled.Load() {
			return
		}
		if onTick != nil {
			onTick(next)
		}
		if next > 0 {
			continue
		}
		c.finish(run)
		if !run.cancelled.Swap(true) && onReady != nil {
			onReady()
		}
		return
	}
}

func (c *Countdown) finish(run *countdownRun) {
	c.mu.Lock()
	if c.active == run {
		c.active = nil
	}
	c.mu.Unlock()
	run.closeOnce.Do(func() { close(run.done) })
}

// Cancel stops the running countdown; its onReady will not fire.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		c.active.stop()
		c.active = nil
	}
}

func (c *Countdown) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

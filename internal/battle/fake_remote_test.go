package battle

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeRemote struct {
	mu sync.Mutex

	requestMatch func(ctx context.Context, mode Mode) (MatchResult, error)
	pollMatch    func(ctx context.Context) (MatchResult, error)
	createRoom   func(ctx context.Context, code string) (RoomResult, error)
	joinRoom     func(ctx context.Context, code string) (RoomResult, error)
	cancelMatch  func(ctx context.Context, mode Mode) error
	disbandErr   error
	abandonErr   error

	calls       map[string]int
	cancelModes []Mode
	created     []string
	disbanded   []string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{calls: map[string]int{}}
}

func (f *fakeRemote) record(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeRemote) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeRemote) RequestMatch(ctx context.Context, mode Mode) (MatchResult, error) {
	f.record("request_match")
	if f.requestMatch == nil {
		return MatchResult{}, nil
	}
	return f.requestMatch(ctx, mode)
}

func (f *fakeRemote) PollMatch(ctx context.Context) (MatchResult, error) {
	f.record("poll_match")
	if f.pollMatch == nil {
		return MatchResult{}, nil
	}
	return f.pollMatch(ctx)
}

func (f *fakeRemote) CancelMatch(ctx context.Context, mode Mode) error {
	f.mu.Lock()
	f.calls["cancel_match"]++
	f.cancelModes = append(f.cancelModes, mode)
	fn := f.cancelMatch
	f.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, mode)
}

func (f *fakeRemote) CreateRoom(ctx context.Context, code string) (RoomResult, error) {
	f.mu.Lock()
	f.calls["create_room"]++
	f.created = append(f.created, code)
	f.mu.Unlock()
	if f.createRoom == nil {
		return RoomResult{Success: true, RoomID: "room-1", RoomCode: code}, nil
	}
	return f.createRoom(ctx, code)
}

func (f *fakeRemote) JoinRoom(ctx context.Context, code string) (RoomResult, error) {
	f.record("join_room")
	if f.joinRoom == nil {
		return RoomResult{Success: true, RoomID: "room-1", RoomCode: code}, nil
	}
	return f.joinRoom(ctx, code)
}

func (f *fakeRemote) DisbandRoom(ctx context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["disband_room"]++
	f.disbanded = append(f.disbanded, code)
	return f.disbandErr
}

func (f *fakeRemote) ForceAbandon(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["force_abandon"]++
	return f.abandonErr
}

func (f *fakeRemote) setAbandonErr(err error) {
	f.mu.Lock()
	f.abandonErr = err
	f.mu.Unlock()
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func testOptions() Options {
	return Options{
		UserID:        "u42",
		PollInterval:  10 * time.Millisecond,
		CountdownTick: 10 * time.Millisecond,
		AICountdown:   40 * time.Millisecond,
		CancelTimeout: 50 * time.Millisecond,
		WorkspaceURL:  "https://judge.test/fight/%s",
	}
}

func newTestCoordinator(t *testing.T, remote Remote, opts Options) *Coordinator {
	t.Helper()
	c := NewCoordinator(context.Background(), remote, opts)
	t.Cleanup(c.Close)
	return c
}

func stateIs(c *Coordinator, want State) func() bool {
	return func() bool { return c.Snapshot().State == want }
}

// statesSeen lists the published states in order.
func statesSeen(c *Coordinator) []State {
	var out []State
	for _, ev := range c.Feed().ReplayAfter("") {
		out = append(out, ev.Snapshot.State)
	}
	return out
}

func countState(c *Coordinator, want State) int {
	n := 0
	for _, st := range statesSeen(c) {
		if st == want {
			n++
		}
	}
	return n
}

func lastEventWithState(c *Coordinator, want State) (Event, bool) {
	events := c.Feed().ReplayAfter("")
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Snapshot.State == want {
			return events[i], true
		}
	}
	return Event{}, false
}

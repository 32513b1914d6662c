package battle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const eventStateChanged = "state_changed"

// Coordinator owns the single active battle session. Every new intent tears
// down whatever was running before it starts, and every callback from a
// session carries the epoch it was started under so that late results from a
// torn-down session are dropped.
type Coordinator struct {
	base      context.Context
	stop      context.CancelFunc
	remote    Remote
	opts      Options
	feed      *Feed
	countdown *Countdown
	now       func() time.Time
	newCode   func(userID string) string
	// background tracks best-effort remote cleanup (cancel, disband).
	background sync.WaitGroup

	mu     sync.Mutex
	closed bool
	epoch  uint64
	snap   Snapshot
	match  *MatchmakingSession
	room   *RoomSession
}

func NewCoordinator(ctx context.Context, remote Remote, opts Options) *Coordinator {
	opts = opts.withDefaults()
	base, stop := context.WithCancel(ctx)
	c := &Coordinator{
		base:      base,
		stop:      stop,
		remote:    remote,
		opts:      opts,
		feed:      NewFeed(opts.FeedSize),
		countdown: NewCountdown(opts.CountdownTick),
		now:       time.Now,
		newCode:   NewRoomCode,
	}
	c.snap = Snapshot{State: StateIdle, Since: c.now()}
	return c
}

func (c *Coordinator) Feed() *Feed { return c.feed }

func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Start dispatches an intent to the matching operation.
func (c *Coordinator) Start(ctx context.Context, intent Intent) error {
	switch intent.Kind {
	case IntentOneVOne:
		return c.StartMatch(ctx, ModeOneVOne)
	case IntentVersusAI:
		return c.StartMatch(ctx, ModeAI)
	case IntentCreateRoom:
		return c.CreateRoom(ctx)
	case IntentJoinRoom:
		return c.JoinRoom(ctx, intent.Code)
	default:
		return fmt.Errorf("unknown intent %q", intent.Kind)
	}
}

func (c *Coordinator) StartMatch(ctx context.Context, mode Mode) error {
	if mode != ModeOneVOne && mode != ModeAI {
		return ErrInvalidMode
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	epoch := c.beginLocked()
	sess := newMatchmakingSession(c.base, c.remote, mode, c.opts, c.matchHooks(epoch), &c.background)
	c.match = sess
	c.setStateLocked(Snapshot{State: StateMatching, Mode: mode})
	c.mu.Unlock()

	return c.finishAction(epoch, sess.Start(ctx))
}

func (c *Coordinator) CreateRoom(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	epoch := c.beginLocked()
	sess := c.newRoom(epoch)
	c.setStateLocked(Snapshot{State: StateRoomCreating, Mode: ModeFriend})
	c.mu.Unlock()

	return c.finishAction(epoch, sess.Create(ctx))
}

func (c *Coordinator) JoinRoom(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrRoomCodeRequired
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	epoch := c.beginLocked()
	sess := c.newRoom(epoch)
	c.setStateLocked(Snapshot{State: StateRoomJoining, Mode: ModeFriend, Room: &RoomHandle{RoomCode: code, Mode: ModeFriend}})
	c.mu.Unlock()

	return c.finishAction(epoch, sess.Join(ctx, code))
}

// Cancel abandons whatever is in progress and returns to idle. It never
// blocks on the network and is safe to call repeatedly.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.snap.State == StateIdle {
		return
	}
	prev := c.snap
	c.teardownLocked()
	c.epoch++
	if prev.State == StateMatching {
		c.setStateLocked(Snapshot{State: StateCancelled, Mode: prev.Mode})
	}
	c.setStateLocked(Snapshot{State: StateIdle})
}

// Disband closes our own waiting room.
func (c *Coordinator) Disband() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap.State != StateRoomWaiting {
		return ErrNotWaiting
	}
	c.teardownLocked()
	c.epoch++
	c.setStateLocked(Snapshot{State: StateIdle})
	return nil
}

// EnterRoom hands a found match without a start time over to the workspace.
func (c *Coordinator) EnterRoom() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if (c.snap.State != StateMatchFound && c.snap.State != StateRoomReady) || c.snap.Room == nil {
		return "", ErrNothingToEnter
	}
	return c.handoffLocked(StateReady, c.snap), nil
}

// ResumeConflict continues the session the server already has for us. A
// running battle is handed to the workspace and its link returned; our own
// waiting room goes back to waiting for an opponent.
func (c *Coordinator) ResumeConflict() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap.State != StateConflict || c.snap.Conflict == nil {
		return "", ErrNoConflict
	}
	d := *c.snap.Conflict
	mode := c.snap.Mode
	if !d.WaitingRoom {
		h := RoomHandle{RoomID: d.RoomID, RoomCode: d.RoomCode, Mode: mode}
		snap := Snapshot{State: StateResumed, Mode: mode, Room: &h, Conflict: &d}
		if d.IsActiveBattle {
			snap.StartTime = d.StartTime.UnixMilli()
		}
		return c.handoffLocked(StateResumed, snap), nil
	}

	epoch := c.beginLocked()
	h := RoomHandle{RoomID: d.RoomID, RoomCode: d.RoomCode, Mode: ModeFriend}
	c.setStateLocked(Snapshot{State: StateResumed, Mode: ModeFriend, Room: &h, Conflict: &d})
	sess := c.newRoom(epoch)
	if err := sess.ResumeWaiting(h); err != nil {
		return "", err
	}
	c.setStateLocked(Snapshot{State: StateRoomWaiting, Mode: ModeFriend, Room: &h, Polling: true})
	return "", nil
}

// AbandonConflict asks the server to drop the existing session. On failure
// the conflict stays up so the user can try again or resume.
func (c *Coordinator) AbandonConflict(ctx context.Context) error {
	c.mu.Lock()
	if c.snap.State != StateConflict || c.snap.Conflict == nil {
		c.mu.Unlock()
		return ErrNoConflict
	}
	d := *c.snap.Conflict
	epoch := c.epoch
	c.mu.Unlock()

	op := "force_abandon"
	var err error
	if d.WaitingRoom && d.RoomCode != "" {
		op = "disband_room"
		err = c.remote.DisbandRoom(ctx, d.RoomCode)
	} else {
		err = c.remote.ForceAbandon(ctx)
	}
	if err != nil {
		metricRoomActionErrors.Add(1)
		log.Warn().Err(err).Str("room_id", d.RoomID).Msg("abandon session failed")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stale(epoch) || c.snap.State != StateConflict {
		return actionErr(op, err)
	}
	if err != nil {
		snap := c.snap
		snap.Error = err.Error()
		c.setStateLocked(snap)
		return actionErr(op, err)
	}
	c.setStateLocked(Snapshot{State: StateAbandoned, Mode: c.snap.Mode, Conflict: &d})
	c.epoch++
	c.setStateLocked(Snapshot{State: StateIdle})
	return nil
}

// Close tears down the active session and stops every background task.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.teardownLocked()
	c.epoch++
	c.setStateLocked(Snapshot{State: StateIdle})
	c.closed = true
	c.mu.Unlock()

	c.feed.Close()
	c.stop()
}

// Wait blocks until best-effort cleanup calls started by Cancel, Disband, a
// superseding intent or Close have returned. Each is bounded by the cancel
// timeout.
func (c *Coordinator) Wait() {
	c.background.Wait()
}

func (c *Coordinator) beginLocked() uint64 {
	c.teardownLocked()
	c.epoch++
	return c.epoch
}

func (c *Coordinator) teardownLocked() {
	if c.match != nil {
		c.match.Cancel()
		c.match = nil
	}
	if c.room != nil {
		if c.room.Disband() != nil {
			c.room.Close()
		}
		c.room = nil
	}
	c.countdown.Cancel()
}

func (c *Coordinator) stale(epoch uint64) bool {
	return c.closed || c.epoch != epoch
}

func (c *Coordinator) newRoom(epoch uint64) *RoomSession {
	sess := newRoomSession(c.base, c.remote, c.opts, c.roomHooks(epoch), &c.background)
	sess.newCode = c.newCode
	c.room = sess
	return sess
}

func (c *Coordinator) finishAction(epoch uint64, err error) error {
	if err == nil || errors.Is(err, ErrSuperseded) {
		return err
	}
	c.mu.Lock()
	if !c.stale(epoch) {
		c.match = nil
		c.room = nil
		c.epoch++
		c.setStateLocked(Snapshot{State: StateIdle, Error: err.Error()})
	}
	c.mu.Unlock()
	log.Warn().Err(err).Msg("battle action failed")
	return err
}

func (c *Coordinator) matchHooks(epoch uint64) sessionHooks {
	return sessionHooks{
		polling: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.stale(epoch) || c.snap.State != StateMatching {
				return
			}
			snap := c.snap
			snap.Polling = true
			c.setStateLocked(snap)
		},
		ready: func(h RoomHandle, res MatchResult) {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.stale(epoch) {
				return
			}
			c.match = nil
			c.readyLocked(epoch, StateMatchFound, h, res)
		},
		conflict: func(d Decision) {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.stale(epoch) {
				return
			}
			c.match = nil
			c.conflictLocked(d)
		},
	}
}

func (c *Coordinator) roomHooks(epoch uint64) sessionHooks {
	return sessionHooks{
		waiting: func(h RoomHandle) {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.stale(epoch) {
				return
			}
			c.setStateLocked(Snapshot{State: StateRoomWaiting, Mode: ModeFriend, Room: &h, Polling: true})
		},
		ready: func(h RoomHandle, res MatchResult) {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.stale(epoch) {
				return
			}
			c.room = nil
			c.readyLocked(epoch, StateRoomReady, h, res)
		},
		conflict: func(d Decision) {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.stale(epoch) {
				return
			}
			c.room = nil
			c.conflictLocked(d)
		},
	}
}

func (c *Coordinator) readyLocked(epoch uint64, state State, h RoomHandle, res MatchResult) {
	snap := Snapshot{
		State:      state,
		Mode:       h.Mode,
		Room:       &h,
		OpponentID: res.OpponentID,
		ProblemID:  res.ProblemID,
	}
	if res.HasStartTime() {
		snap.StartTime = res.StartTime.UnixMilli()
	}
	c.setStateLocked(snap)

	switch {
	case res.HasStartTime():
		c.beginCountdownLocked(epoch, snap, res.StartTime)
	case h.Mode == ModeAI && c.opts.AICountdown > 0:
		c.beginCountdownLocked(epoch, snap, c.now().Add(c.opts.AICountdown))
	}
}

func (c *Coordinator) beginCountdownLocked(epoch uint64, base Snapshot, target time.Time) {
	snap := base
	snap.State = StateCountdown
	snap.StartTime = target.UnixMilli()
	remaining := Remaining(target, c.now(), c.opts.CountdownTick)
	snap.RemainingSeconds = &remaining
	c.setStateLocked(snap)

	c.countdown.Begin(CountdownTarget{StartTime: target},
		func(remaining int) { c.onCountdownTick(epoch, remaining) },
		func() { c.onCountdownReady(epoch) },
	)
}

func (c *Coordinator) onCountdownTick(epoch uint64, remaining int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stale(epoch) || c.snap.State != StateCountdown {
		return
	}
	if c.snap.RemainingSeconds != nil && *c.snap.RemainingSeconds == remaining {
		return
	}
	snap := c.snap
	snap.RemainingSeconds = &remaining
	c.setStateLocked(snap)
}

func (c *Coordinator) onCountdownReady(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stale(epoch) || c.snap.State != StateCountdown {
		return
	}
	c.handoffLocked(StateReady, c.snap)
}

// handoffLocked publishes a terminal state carrying the workspace link and
// then returns to idle. The session is over from this side.
func (c *Coordinator) handoffLocked(state State, base Snapshot) string {
	snap := base
	snap.State = state
	snap.Polling = false
	snap.Error = ""
	if snap.Room != nil {
		snap.WorkspaceURL = c.workspaceURL(snap.Room.RoomID)
	}
	c.setStateLocked(snap)
	if state == StateReady {
		metricReadyTotal.Add(1)
	}
	log.Info().
		Str("state", string(state)).
		Str("mode", string(snap.Mode)).
		Str("workspace_url", snap.WorkspaceURL).
		Msg("battle handed off")

	c.countdown.Cancel()
	c.match = nil
	c.room = nil
	c.epoch++
	c.setStateLocked(Snapshot{State: StateIdle})
	return snap.WorkspaceURL
}

func (c *Coordinator) conflictLocked(d Decision) {
	metricConflictTotal.Add(1)
	c.setStateLocked(Snapshot{State: StateConflict, Mode: c.snap.Mode, Conflict: &d})
	log.Info().
		Str("room_id", d.RoomID).
		Bool("active_battle", d.IsActiveBattle).
		Bool("waiting_room", d.WaitingRoom).
		Msg("existing battle session detected")
}

func (c *Coordinator) workspaceURL(roomID string) string {
	tmpl := c.opts.WorkspaceURL
	if tmpl == "" {
		return ""
	}
	if strings.Contains(tmpl, "%s") {
		return fmt.Sprintf(tmpl, roomID)
	}
	return strings.TrimRight(tmpl, "/") + "/" + roomID
}

func (c *Coordinator) setStateLocked(snap Snapshot) {
	if snap.State == c.snap.State && !c.snap.Since.IsZero() {
		snap.Since = c.snap.Since
	} else {
		snap.Since = c.now()
	}
	c.snap = snap
	c.feed.Publish(eventStateChanged, c.epoch, snap)
}

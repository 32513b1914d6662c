package battle

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type RoomPhase string

const (
	RoomIdle     RoomPhase = "idle"
	RoomCreating RoomPhase = "creating"
	RoomJoining  RoomPhase = "joining"
	RoomWaiting  RoomPhase = "waiting"
	RoomReady    RoomPhase = "ready"
	RoomConflict RoomPhase = "conflict"
	RoomFailed   RoomPhase = "failed"
	RoomClosed   RoomPhase = "closed"
)

// RoomSession is one private-room flow. The creator polls until somebody
// joins; the joiner learns everything from the join reply and never polls.
type RoomSession struct {
	remote        Remote
	base          context.Context
	userID        string
	pollInterval  time.Duration
	cancelTimeout time.Duration
	hooks         sessionHooks
	background    *sync.WaitGroup
	newCode       func(userID string) string

	mu     sync.Mutex
	phase  RoomPhase
	handle RoomHandle
	loop   *PollingLoop[MatchResult]
}

func newRoomSession(base context.Context, remote Remote, opts Options, hooks sessionHooks, background *sync.WaitGroup) *RoomSession {
	if background == nil {
		background = &sync.WaitGroup{}
	}
	return &RoomSession{
		remote:        remote,
		base:          base,
		userID:        opts.UserID,
		pollInterval:  opts.PollInterval,
		cancelTimeout: opts.CancelTimeout,
		hooks:         hooks,
		background:    background,
		newCode:       NewRoomCode,
		phase:         RoomIdle,
	}
}

func (s *RoomSession) Phase() RoomPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *RoomSession) Handle() RoomHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

func (s *RoomSession) Create(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != RoomIdle {
		s.mu.Unlock()
		return ErrSuperseded
	}
	s.phase = RoomCreating
	code := s.newCode(s.userID)
	s.mu.Unlock()

	metricRoomActionTotal.Add(1)
	res, err := s.remote.CreateRoom(ctx, code)

	s.mu.Lock()
	if s.phase != RoomCreating {
		s.mu.Unlock()
		if err == nil && res.Success && !res.AlreadyInRoom {
			// The server made the room after we stopped caring about it.
			if res.RoomCode != "" {
				code = res.RoomCode
			}
			metricLateCreateTotal.Add(1)
			s.background.Add(1)
			go func() {
				defer s.background.Done()
				s.disbandRemote(code)
			}()
		}
		return ErrSuperseded
	}
	if err != nil {
		return s.failLocked("create_room", err)
	}
	if res.AlreadyInRoom {
		return s.conflictLocked("create_room", res.asMatch())
	}
	if !res.Success || res.RoomID == "" {
		return s.failLocked("create_room", ErrUnexpectedResponse)
	}
	if res.RoomCode == "" {
		res.RoomCode = code
	}
	h := RoomHandle{RoomID: res.RoomID, RoomCode: res.RoomCode, Mode: ModeFriend}
	s.startWaitingLocked(h)
	s.mu.Unlock()

	s.hooks.onWaiting(h)
	return nil
}

func (s *RoomSession) Join(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrRoomCodeRequired
	}
	s.mu.Lock()
	if s.phase != RoomIdle {
		s.mu.Unlock()
		return ErrSuperseded
	}
	s.phase = RoomJoining
	s.mu.Unlock()

	metricRoomActionTotal.Add(1)
	res, err := s.remote.JoinRoom(ctx, code)

	s.mu.Lock()
	if s.phase != RoomJoining {
		s.mu.Unlock()
		if err == nil && res.Success && !res.AlreadyInRoom {
			// The judge has no leave call for a joiner; the room stays ours
			// until it starts or its owner disbands it.
			metricLateJoinTotal.Add(1)
			log.Warn().Str("room_id", res.RoomID).Str("room_code", code).Msg("join completed after it was superseded")
		}
		return ErrSuperseded
	}
	if err != nil {
		return s.failLocked("join_room", err)
	}
	if res.AlreadyInRoom {
		return s.conflictLocked("join_room", res.asMatch())
	}
	if !res.Success || res.RoomID == "" {
		return s.failLocked("join_room", ErrUnexpectedResponse)
	}
	if res.RoomCode == "" {
		res.RoomCode = code
	}
	h := RoomHandle{RoomID: res.RoomID, RoomCode: res.RoomCode, Mode: ModeFriend}
	s.handle = h
	s.phase = RoomReady
	s.mu.Unlock()

	s.hooks.onReady(h, res.asMatch())
	return nil
}

// ResumeWaiting re-enters the waiting state for a room the server says we
// already own. The owner updates its own state; no hook fires.
func (s *RoomSession) ResumeWaiting(h RoomHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != RoomIdle {
		return ErrSuperseded
	}
	h.Mode = ModeFriend
	s.startWaitingLocked(h)
	return nil
}

// Disband is only valid while waiting. Polling stops immediately; the remote
// disband is fire-and-forget.
func (s *RoomSession) Disband() error {
	s.mu.Lock()
	if s.phase != RoomWaiting {
		s.mu.Unlock()
		return ErrNotWaiting
	}
	s.phase = RoomClosed
	s.loop.Stop()
	code := s.handle.RoomCode
	s.mu.Unlock()

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		s.disbandRemote(code)
	}()
	return nil
}

// Close stops local tracking without telling the server anything.
func (s *RoomSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loop != nil {
		s.loop.Stop()
	}
	s.phase = RoomClosed
}

func (s *RoomSession) startWaitingLocked(h RoomHandle) {
	s.handle = h
	s.phase = RoomWaiting
	s.loop = StartPolling(s.base, s.pollInterval, s.remote.PollMatch, s.onPoll, s.onPollError)
}

func (s *RoomSession) failLocked(op string, err error) error {
	s.phase = RoomFailed
	s.mu.Unlock()
	metricRoomActionErrors.Add(1)
	return actionErr(op, err)
}

func (s *RoomSession) conflictLocked(op string, res MatchResult) error {
	if err := res.Validate(); err != nil {
		return s.failLocked(op, err)
	}
	d, _ := ResolveConflict(res)
	d.WaitingRoom = !d.IsActiveBattle
	s.phase = RoomConflict
	s.mu.Unlock()

	s.hooks.onConflict(d)
	return nil
}

func (s *RoomSession) onPoll(res MatchResult) {
	if err := res.Validate(); err != nil {
		log.Warn().Err(err).Str("room_id", res.RoomID).Msg("ignoring malformed room poll result")
		return
	}
	d, conflict := ResolveConflict(res)
	if !conflict && (!res.Matched || res.RoomID == "") {
		return
	}

	s.mu.Lock()
	if s.phase != RoomWaiting {
		s.mu.Unlock()
		return
	}
	s.loop.Stop()
	h := s.handle
	if conflict {
		s.phase = RoomConflict
		d.WaitingRoom = !d.IsActiveBattle
		if d.RoomCode == "" && d.RoomID == h.RoomID {
			d.RoomCode = h.RoomCode
		}
	} else {
		s.phase = RoomReady
		h.RoomID = res.RoomID
		s.handle = h
	}
	s.mu.Unlock()

	if conflict {
		s.hooks.onConflict(d)
		return
	}
	s.hooks.onReady(h, res)
}

func (s *RoomSession) onPollError(err error) {
	s.mu.Lock()
	roomID := s.handle.RoomID
	s.mu.Unlock()
	log.Warn().Err(err).Str("room_id", roomID).Msg("poll room failed")
}

func (s *RoomSession) disbandRemote(code string) {
	if code == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.base), s.cancelTimeout)
	defer cancel()
	if err := s.remote.DisbandRoom(ctx, code); err != nil {
		metricRemoteCancelErrors.Add(1)
		log.Warn().Err(err).Str("room_code", code).Msg("disband room failed")
	}
}

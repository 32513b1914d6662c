package battle

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type MatchPhase string

const (
	MatchIdle       MatchPhase = "idle"
	MatchRequesting MatchPhase = "requesting"
	MatchPolling    MatchPhase = "polling"
	MatchFound      MatchPhase = "match_found"
	MatchCancelled  MatchPhase = "cancelled"
	MatchConflict   MatchPhase = "conflict"
	MatchFailed     MatchPhase = "failed"
)

// MatchmakingSession runs one 1v1 or AI matching attempt: a single request,
// then (1v1 only) polling until the server reports a match or a conflict.
type MatchmakingSession struct {
	remote        Remote
	mode          Mode
	base          context.Context
	pollInterval  time.Duration
	cancelTimeout time.Duration
	hooks         sessionHooks
	background    *sync.WaitGroup

	mu    sync.Mutex
	phase MatchPhase
	loop  *PollingLoop[MatchResult]
}

func newMatchmakingSession(base context.Context, remote Remote, mode Mode, opts Options, hooks sessionHooks, background *sync.WaitGroup) *MatchmakingSession {
	if background == nil {
		background = &sync.WaitGroup{}
	}
	return &MatchmakingSession{
		remote:        remote,
		mode:          mode,
		base:          base,
		pollInterval:  opts.PollInterval,
		cancelTimeout: opts.CancelTimeout,
		hooks:         hooks,
		background:    background,
		phase:         MatchIdle,
	}
}

func (s *MatchmakingSession) Phase() MatchPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Start issues the initial match request. It returns ErrSuperseded when the
// session was cancelled while the request was outstanding.
func (s *MatchmakingSession) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != MatchIdle {
		s.mu.Unlock()
		return ErrSuperseded
	}
	s.phase = MatchRequesting
	s.mu.Unlock()

	metricMatchRequestTotal.Add(1)
	res, err := s.remote.RequestMatch(ctx, s.mode)
	if err == nil {
		err = res.Validate()
	}

	s.mu.Lock()
	if s.phase != MatchRequesting {
		s.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		s.phase = MatchFailed
		s.mu.Unlock()
		metricMatchRequestErrors.Add(1)
		return actionErr("request_match", err)
	}
	if d, ok := ResolveConflict(res); ok {
		s.phase = MatchConflict
		s.mu.Unlock()
		s.hooks.onConflict(d)
		return nil
	}
	if res.Matched && res.RoomID != "" {
		s.phase = MatchFound
		s.mu.Unlock()
		s.hooks.onReady(s.handle(res), res)
		return nil
	}
	if s.mode == ModeAI {
		// The AI endpoint answers synchronously; anything else is a broken reply.
		s.phase = MatchFailed
		s.mu.Unlock()
		metricMatchRequestErrors.Add(1)
		return actionErr("request_match", ErrUnexpectedResponse)
	}
	s.phase = MatchPolling
	s.loop = StartPolling(s.base, s.pollInterval, s.remote.PollMatch, s.onPoll, s.onPollError)
	s.mu.Unlock()

	s.hooks.onPolling()
	return nil
}

func (s *MatchmakingSession) onPoll(res MatchResult) {
	if err := res.Validate(); err != nil {
		log.Warn().Err(err).Str("mode", string(s.mode)).Str("room_id", res.RoomID).Msg("ignoring malformed poll result")
		return
	}
	d, conflict := ResolveConflict(res)
	if !conflict && (!res.Matched || res.RoomID == "") {
		return
	}

	s.mu.Lock()
	if s.phase != MatchPolling {
		s.mu.Unlock()
		return
	}
	s.loop.Stop()
	if conflict {
		s.phase = MatchConflict
	} else {
		s.phase = MatchFound
	}
	s.mu.Unlock()

	if conflict {
		s.hooks.onConflict(d)
		return
	}
	s.hooks.onReady(s.handle(res), res)
}

func (s *MatchmakingSession) onPollError(err error) {
	log.Warn().Err(err).Str("mode", string(s.mode)).Msg("poll match failed")
}

// Cancel stops polling at once and tells the server best-effort. It reports
// whether there was anything to cancel; repeated calls are no-ops.
func (s *MatchmakingSession) Cancel() bool {
	s.mu.Lock()
	if s.phase != MatchRequesting && s.phase != MatchPolling {
		s.mu.Unlock()
		return false
	}
	s.phase = MatchCancelled
	if s.loop != nil {
		s.loop.Stop()
	}
	s.mu.Unlock()

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		s.cancelRemote()
	}()
	return true
}

func (s *MatchmakingSession) cancelRemote() {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.base), s.cancelTimeout)
	defer cancel()
	if err := s.remote.CancelMatch(ctx, s.mode); err != nil {
		metricRemoteCancelErrors.Add(1)
		log.Warn().Err(err).Str("mode", string(s.mode)).Msg("cancel match failed")
	}
}

func (s *MatchmakingSession) handle(res MatchResult) RoomHandle {
	return RoomHandle{RoomID: res.RoomID, RoomCode: res.RoomCode, Mode: s.mode}
}

package battle

// sessionHooks is how a sub-session reports back to its owner. Hooks are
// always invoked without the session's own lock held.
type sessionHooks struct {
	polling  func()
	waiting  func(h RoomHandle)
	ready    func(h RoomHandle, res MatchResult)
	conflict func(d Decision)
}

func (h sessionHooks) onPolling() {
	if h.polling != nil {
		h.polling()
	}
}

func (h sessionHooks) onWaiting(room RoomHandle) {
	if h.waiting != nil {
		h.waiting(room)
	}
}

func (h sessionHooks) onReady(room RoomHandle, res MatchResult) {
	if h.ready != nil {
		h.ready(room, res)
	}
}

func (h sessionHooks) onConflict(d Decision) {
	if h.conflict != nil {
		h.conflict(d)
	}
}

package battle

import "time"

// Decision is the choice offered when the server reports the user already has
// a session. IsActiveBattle separates a running battle (start time known) from
// one that is still waiting.
type Decision struct {
	RoomID         string    `json:"room_id"`
	RoomCode       string    `json:"room_code,omitempty"`
	IsActiveBattle bool      `json:"is_active_battle"`
	StartTime      time.Time `json:"start_time,omitzero"`
	// WaitingRoom marks a private room of ours that nobody has joined yet:
	// resuming re-enters the waiting state, abandoning disbands it.
	WaitingRoom bool `json:"waiting_room,omitempty"`
}

func ResolveConflict(res MatchResult) (Decision, bool) {
	if !res.AlreadyInRoom {
		return Decision{}, false
	}
	return Decision{
		RoomID:         res.RoomID,
		RoomCode:       res.RoomCode,
		IsActiveBattle: res.HasStartTime(),
		StartTime:      res.StartTime,
	}, true
}

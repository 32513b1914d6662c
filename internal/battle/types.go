package battle

import (
	"strings"
	"time"
)

type Mode string

const (
	ModeOneVOne Mode = "1v1"
	ModeAI      Mode = "ai"
	ModeFriend  Mode = "friend"
)

// ParseMode accepts the names the view and the judge use for the two
// matchmaking modes.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1v1", "", "pvp":
		return ModeOneVOne, nil
	case "ai", "single":
		return ModeAI, nil
	default:
		return "", ErrInvalidMode
	}
}

type IntentKind string

const (
	IntentOneVOne    IntentKind = "one_v_one"
	IntentVersusAI   IntentKind = "versus_ai"
	IntentCreateRoom IntentKind = "create_room"
	IntentJoinRoom   IntentKind = "join_room"
)

// Intent is one user action. It is created per action and never mutated.
type Intent struct {
	Kind IntentKind
	Code string
}

func OneVOne() Intent                   { return Intent{Kind: IntentOneVOne} }
func VersusAI() Intent                  { return Intent{Kind: IntentVersusAI} }
func CreateRoomIntent() Intent          { return Intent{Kind: IntentCreateRoom} }
func JoinRoomIntent(code string) Intent { return Intent{Kind: IntentJoinRoom, Code: code} }

// MatchResult is produced by the remote service; the core only interprets it.
// A zero StartTime means the server did not send one.
type MatchResult struct {
	Matched       bool
	RoomID        string
	RoomCode      string
	OpponentID    string
	ProblemID     string
	StartTime     time.Time
	AlreadyInRoom bool
}

func (r MatchResult) HasStartTime() bool { return !r.StartTime.IsZero() }

// Validate rejects conflict responses that do not name the room.
func (r MatchResult) Validate() error {
	if r.AlreadyInRoom && r.RoomID == "" {
		return ErrUnexpectedResponse
	}
	return nil
}

// RoomResult is the reply to create/join. A conflict arrives in the same shape
// with AlreadyInRoom set.
type RoomResult struct {
	Success       bool
	RoomID        string
	RoomCode      string
	OpponentID    string
	StartTime     time.Time
	AlreadyInRoom bool
}

func (r RoomResult) asMatch() MatchResult {
	return MatchResult{
		Matched:       r.Success,
		RoomID:        r.RoomID,
		RoomCode:      r.RoomCode,
		OpponentID:    r.OpponentID,
		StartTime:     r.StartTime,
		AlreadyInRoom: r.AlreadyInRoom,
	}
}

type RoomHandle struct {
	RoomID   string `json:"room_id"`
	RoomCode string `json:"room_code,omitempty"`
	Mode     Mode   `json:"mode"`
}

type CountdownTarget struct {
	StartTime time.Time
}

type State string

const (
	StateIdle         State = "idle"
	StateMatching     State = "matching"
	StateMatchFound   State = "match_found"
	StateCancelled    State = "cancelled"
	StateRoomCreating State = "room_creating"
	StateRoomJoining  State = "room_joining"
	StateRoomWaiting  State = "room_waiting"
	StateRoomReady    State = "room_ready"
	StateCountdown    State = "countdown"
	StateReady        State = "ready"
	StateConflict     State = "conflict_detected"
	StateResumed      State = "resumed"
	StateAbandoned    State = "abandoned"
)

// Snapshot is everything the view needs to render the current state.
type Snapshot struct {
	State            State       `json:"state"`
	Mode             Mode        `json:"mode,omitempty"`
	Polling          bool        `json:"polling,omitempty"`
	Room             *RoomHandle `json:"room,omitempty"`
	OpponentID       string      `json:"opponent_id,omitempty"`
	ProblemID        string      `json:"problem_id,omitempty"`
	RemainingSeconds *int        `json:"remaining_seconds,omitempty"`
	StartTime        int64       `json:"start_time,omitempty"`
	Since            time.Time   `json:"since"`
	Conflict         *Decision   `json:"conflict,omitempty"`
	WorkspaceURL     string      `json:"workspace_url,omitempty"`
	Error            string      `json:"error,omitempty"`
}

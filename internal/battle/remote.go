package battle

import "context"

// Remote is the matchmaking/room service on the judge platform. Transport and
// wire format belong to the implementation (see internal/judgeclient).
type Remote interface {
	RequestMatch(ctx context.Context, mode Mode) (MatchResult, error)
	PollMatch(ctx context.Context) (MatchResult, error)
	CancelMatch(ctx context.Context, mode Mode) error
	CreateRoom(ctx context.Context, code string) (RoomResult, error)
	JoinRoom(ctx context.Context, code string) (RoomResult, error)
	DisbandRoom(ctx context.Context, code string) error
	ForceAbandon(ctx context.Context) error
}

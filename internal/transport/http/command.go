package httptransport

import (
	"context"
	"errors"

	"battle-companion/internal/battle"
)

const (
	cmdState           = "state"
	cmdMatch           = "match"
	cmdCreateRoom      = "create_room"
	cmdJoinRoom        = "join_room"
	cmdCancel          = "cancel"
	cmdDisband         = "disband"
	cmdEnter           = "enter"
	cmdResumeConflict  = "resume_conflict"
	cmdAbandonConflict = "abandon_conflict"
)

var errUnknownCommand = errors.New("unknown_command")

// battleCommand is the body of a view action, over HTTP or WebSocket.
type battleCommand struct {
	Type      string `json:"type,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Mode      string `json:"mode,omitempty"`
	RoomCode  string `json:"room_code,omitempty"`
}

type actionResult struct {
	Type         string          `json:"type,omitempty"`
	RequestID    string          `json:"request_id,omitempty"`
	OK           bool            `json:"ok"`
	Error        string          `json:"error,omitempty"`
	WorkspaceURL string          `json:"workspace_url,omitempty"`
	State        battle.Snapshot `json:"state"`
}

func runCommand(ctx context.Context, coord *battle.Coordinator, cmd battleCommand) (string, error) {
	switch cmd.Type {
	case cmdState:
		return "", nil
	case cmdMatch:
		mode, err := battle.ParseMode(cmd.Mode)
		if err != nil {
			return "", err
		}
		return "", coord.StartMatch(ctx, mode)
	case cmdCreateRoom:
		return "", coord.CreateRoom(ctx)
	case cmdJoinRoom:
		return "", coord.JoinRoom(ctx, cmd.RoomCode)
	case cmdCancel:
		coord.Cancel()
		return "", nil
	case cmdDisband:
		return "", coord.Disband()
	case cmdEnter:
		return coord.EnterRoom()
	case cmdResumeConflict:
		return coord.ResumeConflict()
	case cmdAbandonConflict:
		return "", coord.AbandonConflict(ctx)
	default:
		return "", errUnknownCommand
	}
}

func newActionResult(coord *battle.Coordinator, cmd battleCommand, url string, err error) actionResult {
	res := actionResult{
		RequestID:    cmd.RequestID,
		OK:           err == nil,
		WorkspaceURL: url,
		State:        coord.Snapshot(),
	}
	if err != nil {
		_, res.Error = MapActionError(err)
	}
	return res
}

package judgeclient

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"battle-companion/internal/battle"
	"battle-companion/internal/config"
)

// BattleRemote adapts Client to battle.Remote.
type BattleRemote struct {
	client      *Client
	battleType  int
	defaultRank int
}

var _ battle.Remote = (*BattleRemote)(nil)

func NewBattleRemote(client *Client, cfg config.ClientConfig) *BattleRemote {
	rank := cfg.DefaultRankScore
	if rank <= 0 {
		rank = 1000
	}
	bt := cfg.BattleType
	if bt <= 0 {
		bt = 2
	}
	return &BattleRemote{client: client, battleType: bt, defaultRank: rank}
}

// The judge mixes numbers and strings for ids and sends startTime as epoch
// millis, so fields stay loosely typed until converted.
type matchData struct {
	Matched       any `json:"matched"`
	RoomID        any `json:"roomId"`
	RoomCode      any `json:"roomCode"`
	OpponentID    any `json:"opponentId"`
	ProblemID     any `json:"problemId"`
	StartTime     any `json:"startTime"`
	AlreadyInRoom any `json:"alreadyInRoom"`
}

type roomData struct {
	Success       any `json:"success"`
	RoomID        any `json:"roomId"`
	RoomCode      any `json:"roomCode"`
	OpponentID    any `json:"opponentId"`
	StartTime     any `json:"startTime"`
	AlreadyInRoom any `json:"alreadyInRoom"`
}

type InfoData struct {
	LevelScore int `json:"levelScore"`
	WinCount   int `json:"winCount"`
	TotalCount int `json:"totalCount"`
	Type       int `json:"type"`
}

type infoData struct {
	LevelScore any `json:"levelScore"`
	WinCount   any `json:"winCount"`
	TotalCount any `json:"totalCount"`
	Type       any `json:"type"`
}

// Info returns the user's battle record for one battle type.
func (r *BattleRemote) Info(ctx context.Context) (InfoData, error) {
	var raw infoData
	q := url.Values{"type": {strconv.Itoa(r.battleType)}}
	if err := r.client.getJSON(ctx, "info", q, &raw); err != nil {
		return InfoData{}, err
	}
	return InfoData{
		LevelScore: cast.ToInt(raw.LevelScore),
		WinCount:   cast.ToInt(raw.WinCount),
		TotalCount: cast.ToInt(raw.TotalCount),
		Type:       cast.ToInt(raw.Type),
	}, nil
}

func (r *BattleRemote) rankScore(ctx context.Context) int {
	info, err := r.Info(ctx)
	if err != nil {
		log.Warn().Err(err).Int("fallback", r.defaultRank).Msg("battle info lookup failed")
		return r.defaultRank
	}
	if info.LevelScore <= 0 {
		return r.defaultRank
	}
	return info.LevelScore
}

func (r *BattleRemote) RequestMatch(ctx context.Context, mode battle.Mode) (battle.MatchResult, error) {
	form := url.Values{
		"rankScore": {strconv.Itoa(r.rankScore(ctx))},
		"mode":      {wireMode(mode)},
	}
	var raw matchData
	if err := r.client.postForm(ctx, "match", form, &raw); err != nil {
		return battle.MatchResult{}, err
	}
	return raw.result()
}

func (r *BattleRemote) PollMatch(ctx context.Context) (battle.MatchResult, error) {
	var raw matchData
	if err := r.client.getJSON(ctx, "poll", nil, &raw); err != nil {
		return battle.MatchResult{}, err
	}
	return raw.result()
}

func (r *BattleRemote) CancelMatch(ctx context.Context, mode battle.Mode) error {
	return r.client.postForm(ctx, "cancel", url.Values{"mode": {wireMode(mode)}}, nil)
}

func (r *BattleRemote) CreateRoom(ctx context.Context, code string) (battle.RoomResult, error) {
	var raw roomData
	if err := r.client.postForm(ctx, "room/create", url.Values{"roomCode": {code}}, &raw); err != nil {
		return battle.RoomResult{}, err
	}
	return raw.result()
}

func (r *BattleRemote) JoinRoom(ctx context.Context, code string) (battle.RoomResult, error) {
	var raw roomData
	if err := r.client.postForm(ctx, "room/join", url.Values{"roomCode": {code}}, &raw); err != nil {
		return battle.RoomResult{}, err
	}
	return raw.result()
}

func (r *BattleRemote) DisbandRoom(ctx context.Context, code string) error {
	return r.client.postForm(ctx, "room/disband", url.Values{"roomCode": {code}}, nil)
}

func (r *BattleRemote) ForceAbandon(ctx context.Context) error {
	return r.client.postForm(ctx, "abandon", url.Values{}, nil)
}

func wireMode(mode battle.Mode) string {
	if mode == battle.ModeAI {
		return "single"
	}
	return string(battle.ModeOneVOne)
}

func (d matchData) result() (battle.MatchResult, error) {
	start, err := millis(d.StartTime)
	if err != nil {
		return battle.MatchResult{}, err
	}
	return battle.MatchResult{
		Matched:       cast.ToBool(d.Matched),
		RoomID:        idString(d.RoomID),
		RoomCode:      idString(d.RoomCode),
		OpponentID:    idString(d.OpponentID),
		ProblemID:     idString(d.ProblemID),
		StartTime:     start,
		AlreadyInRoom: cast.ToBool(d.AlreadyInRoom),
	}, nil
}

func (d roomData) result() (battle.RoomResult, error) {
	start, err := millis(d.StartTime)
	if err != nil {
		return battle.RoomResult{}, err
	}
	return battle.RoomResult{
		Success:       cast.ToBool(d.Success),
		RoomID:        idString(d.RoomID),
		RoomCode:      idString(d.RoomCode),
		OpponentID:    idString(d.OpponentID),
		StartTime:     start,
		AlreadyInRoom: cast.ToBool(d.AlreadyInRoom),
	}, nil
}

func idString(v any) string {
	if v == nil {
		return ""
	}
	return cast.ToString(v)
}

// millis converts an epoch-millisecond value. Absent, null and zero all mean
// the server did not send a start time.
func millis(v any) (time.Time, error) {
	if v == nil {
		return time.Time{}, nil
	}
	if s, ok := v.(string); ok && s == "" {
		return time.Time{}, nil
	}
	ms, err := cast.ToInt64E(v)
	if err != nil {
		return time.Time{}, err
	}
	if ms <= 0 {
		return time.Time{}, nil
	}
	return time.UnixMilli(ms), nil
}

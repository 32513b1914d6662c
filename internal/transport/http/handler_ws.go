package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"battle-companion/internal/battle"
)

const wsWriteTimeout = 10 * time.Second

type wsEvent struct {
	Type  string       `json:"type"`
	Event battle.Event `json:"event"`
}

// BattleWSHandler gives the view a two-way channel: transitions are pushed as
// {"type":"event"} messages and commands sent by the view are answered with
// {"type":"action_result"}. Commands run concurrently so a cancel is never
// stuck behind an outstanding match request.
func BattleWSHandler(coord *battle.Coordinator) http.HandlerFunc {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		metricWSConnectionsTotal.Add(1)
		metricWSConnectionsActive.Add(1)
		defer metricWSConnectionsActive.Add(-1)

		ctx, cancel := context.WithCancel(context.Background())
		out := make(chan any, 64)
		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			wsWriteLoop(ctx, conn, out)
		}()

		feed := coord.Feed()
		ch := feed.Subscribe()
		go wsForwardFeed(ctx, ch, feed.ReplayAfter(r.URL.Query().Get("last_event_id")), out)

		wsReadLoop(ctx, conn, coord, out)

		feed.Unsubscribe(ch)
		cancel()
		<-writerDone
		_ = conn.Close()
	}
}

func wsWriteLoop(ctx context.Context, conn *websocket.Conn, out <-chan any) {
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		case msg := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Msg("battle ws write failed")
				_ = conn.Close()
				return
			}
		}
	}
}

func wsForwardFeed(ctx context.Context, ch <-chan battle.Event, replay []battle.Event, out chan<- any) {
	var sent int64
	for _, ev := range replay {
		if !wsSend(ctx, out, wsEvent{Type: "event", Event: ev}) {
			return
		}
		sent = eventSeq(ev)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if eventSeq(ev) <= sent {
				continue
			}
			if !wsSend(ctx, out, wsEvent{Type: "event", Event: ev}) {
				return
			}
			sent = eventSeq(ev)
		}
	}
}

func wsReadLoop(ctx context.Context, conn *websocket.Conn, coord *battle.Coordinator, out chan<- any) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		metricActionTotal.Add(1)
		var cmd battleCommand
		if err := json.Unmarshal(msg, &cmd); err != nil {
			metricActionErrors.Add(1)
			wsSend(ctx, out, actionResult{Type: "action_result", Error: "invalid_json", State: coord.Snapshot()})
			continue
		}
		go func(cmd battleCommand) {
			url, err := runCommand(ctx, coord, cmd)
			if err != nil {
				metricActionErrors.Add(1)
			}
			res := newActionResult(coord, cmd, url, err)
			res.Type = "action_result"
			wsSend(ctx, out, res)
		}(cmd)
	}
}

func wsSend(ctx context.Context, out chan<- any, msg any) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- msg:
		return true
	}
}

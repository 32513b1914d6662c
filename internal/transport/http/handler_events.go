package httptransport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"battle-companion/internal/battle"
)

var ssePingInterval = 15 * time.Second

// EventsSSEHandler streams coordinator transitions. Last-Event-ID (header or
// last_event_id query) replays what the client missed.
func EventsSSEHandler(coord *battle.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			WriteHTTPError(w, http.StatusInternalServerError, "stream_not_supported")
			return
		}
		metricSSEConnectionsTotal.Add(1)
		metricSSEConnectionsActive.Add(1)
		defer metricSSEConnectionsActive.Add(-1)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		feed := coord.Feed()
		ch := feed.Subscribe()
		defer feed.Unsubscribe(ch)

		lastEventID := r.Header.Get("Last-Event-ID")
		if lastEventID == "" {
			lastEventID = r.URL.Query().Get("last_event_id")
		}
		var sent int64
		for _, ev := range feed.ReplayAfter(lastEventID) {
			if err := WriteSSE(w, ev.ID, ev.Type, ev); err != nil {
				return
			}
			sent = eventSeq(ev)
		}
		flusher.Flush()

		ticker := time.NewTicker(ssePingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if eventSeq(ev) <= sent {
					continue
				}
				if err := WriteSSE(w, ev.ID, ev.Type, ev); err != nil {
					return
				}
				sent = eventSeq(ev)
				flusher.Flush()
			case <-ticker.C:
				if err := WriteSSE(w, "", "ping", map[string]any{"ts": time.Now().UnixMilli()}); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func WriteSSE(w http.ResponseWriter, id, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if id != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", id); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	return nil
}

func eventSeq(ev battle.Event) int64 {
	n, _ := strconv.ParseInt(ev.ID, 10, 64)
	return n
}

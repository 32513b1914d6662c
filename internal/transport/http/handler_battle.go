package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"battle-companion/internal/battle"
)

type BattleHandlers struct {
	coord *battle.Coordinator
}

func NewBattleHandlers(coord *battle.Coordinator) *BattleHandlers {
	return &BattleHandlers{coord: coord}
}

func (h *BattleHandlers) State() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.coord.Snapshot())
	}
}

// Action runs one command. The body is optional JSON carrying mode or
// room_code; the command type comes from the route.
func (h *BattleHandlers) Action(cmdType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricActionTotal.Add(1)
		var cmd battleCommand
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil && !errors.Is(err, io.EOF) {
			metricActionErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		cmd.Type = cmdType

		url, err := runCommand(r.Context(), h.coord, cmd)
		res := newActionResult(h.coord, cmd, url, err)
		if err != nil {
			metricActionErrors.Add(1)
			status, code := MapActionError(err)
			if status >= http.StatusInternalServerError {
				log.Error().Err(err).Str("command", cmdType).Str("code", code).Msg("battle action failed")
			}
			writeJSON(w, status, res)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

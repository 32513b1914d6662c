package httptransport

import (
	"errors"
	"net/http"

	"battle-companion/internal/battle"
	"battle-companion/internal/judgeclient"
)

// MapActionError maps a coordinator error to an HTTP status and error code.
func MapActionError(err error) (int, string) {
	if errors.Is(err, errUnknownCommand) {
		return http.StatusBadRequest, errUnknownCommand.Error()
	}
	var apiErr *judgeclient.APIError
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway, "judge_rejected"
	}
	code := battle.ErrorCode(err)
	switch code {
	case "invalid_mode", "room_code_required":
		return http.StatusBadRequest, code
	case "no_conflict", "room_not_waiting", "nothing_to_enter", "session_superseded":
		return http.StatusConflict, code
	case "coordinator_closed":
		return http.StatusServiceUnavailable, code
	case "unexpected_response", "remote_error":
		return http.StatusBadGateway, code
	case "remote_timeout":
		return http.StatusGatewayTimeout, code
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

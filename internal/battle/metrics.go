package battle

import "expvar"

var (
	metricMatchRequestTotal  = expvar.NewInt("battle_match_request_total")
	metricMatchRequestErrors = expvar.NewInt("battle_match_request_errors_total")
	metricRoomActionTotal    = expvar.NewInt("battle_room_action_total")
	metricRoomActionErrors   = expvar.NewInt("battle_room_action_errors_total")

	metricPollTotal          = expvar.NewInt("battle_poll_total")
	metricPollErrors         = expvar.NewInt("battle_poll_errors_total")
	metricPollSkippedTotal   = expvar.NewInt("battle_poll_skipped_total")
	metricPollingLoopsActive = expvar.NewInt("battle_polling_loops_active")

	metricRemoteCancelErrors = expvar.NewInt("battle_remote_cancel_errors_total")
	metricLateCreateTotal    = expvar.NewInt("battle_room_late_create_total")
	metricLateJoinTotal      = expvar.NewInt("battle_room_late_join_total")
	metricConflictTotal      = expvar.NewInt("battle_conflict_total")
	metricCountdownTotal     = expvar.NewInt("battle_countdown_started_total")
	metricReadyTotal         = expvar.NewInt("battle_ready_total")
)

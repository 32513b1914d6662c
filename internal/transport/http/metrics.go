package httptransport

import "expvar"

var (
	metricActionTotal  = expvar.NewInt("battle_http_action_total")
	metricActionErrors = expvar.NewInt("battle_http_action_errors_total")

	metricSSEConnectionsTotal  = expvar.NewInt("battle_sse_connections_total")
	metricSSEConnectionsActive = expvar.NewInt("battle_sse_connections_active")

	metricWSConnectionsTotal  = expvar.NewInt("battle_ws_connections_total")
	metricWSConnectionsActive = expvar.NewInt("battle_ws_connections_active")
)

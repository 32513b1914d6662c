package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"battle-companion/internal/battle"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// NewRouter exposes the coordinator to a local view. mcpHandler may be nil
// when the MCP surface is disabled.
func NewRouter(coord *battle.Coordinator, mcpHandler http.Handler) *chi.Mux {
	battleHandlers := NewBattleHandlers(coord)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", Health())
	if mcpHandler != nil {
		r.With(APILogMiddleware()).MethodFunc(http.MethodOptions, "/mcp", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Allow", "POST, GET, DELETE, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
		})
		r.With(APILogMiddleware()).Method(http.MethodPost, "/mcp", mcpHandler)
		r.With(APILogMiddleware()).Method(http.MethodGet, "/mcp", mcpHandler)
		r.With(APILogMiddleware()).Method(http.MethodDelete, "/mcp", mcpHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Route("/battle", func(r chi.Router) {
			r.Get("/state", battleHandlers.State())
			r.Get("/events", EventsSSEHandler(coord))
			r.Get("/ws", BattleWSHandler(coord))

			r.Group(func(r chi.Router) {
				r.Use(BodyCaptureMiddleware(4096))
				r.Post("/match", battleHandlers.Action(cmdMatch))
				r.Post("/rooms", battleHandlers.Action(cmdCreateRoom))
				r.Post("/rooms/join", battleHandlers.Action(cmdJoinRoom))
				r.Post("/rooms/disband", battleHandlers.Action(cmdDisband))
				r.Post("/cancel", battleHandlers.Action(cmdCancel))
				r.Post("/enter", battleHandlers.Action(cmdEnter))
				r.Post("/conflict/resume", battleHandlers.Action(cmdResumeConflict))
				r.Post("/conflict/abandon", battleHandlers.Action(cmdAbandonConflict))
			})
		})
		r.Get("/debug/vars", expvar.Handler().ServeHTTP)
	})
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 32)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"battle-companion/internal/battle"
	"battle-companion/internal/config"
	"battle-companion/internal/judgeclient"
	"battle-companion/internal/logging"
	"battle-companion/internal/mcpserver"
	httptransport "battle-companion/internal/transport/http"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)
	if cfg.Client.JudgeCookie == "" {
		log.Warn().Msg("JUDGE_COOKIE is empty; judge requests will be unauthenticated")
	}

	remote := judgeclient.NewBattleRemote(judgeclient.New(cfg.Client), cfg.Client)
	coord := battle.NewCoordinator(context.Background(), remote, battle.OptionsFromConfig(cfg.Client, cfg.Server.FeedSize))

	var mcpHandler http.Handler
	if cfg.Server.MCPEnabled {
		mcpHandler = mcpserver.New(coord).Handler()
	}
	r := httptransport.NewRouter(coord, mcpHandler)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.HTTPAddr).Str("judge", cfg.Client.JudgeBaseURL).Msg("http listening")
		errc <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	coord.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown failed")
	}
	coord.Wait()
}

package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"battle-companion/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInitWritesToFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "battle.log")
	Init(config.LogConfig{Level: "debug", Stderr: true, File: path, MaxMB: 1})
	t.Cleanup(func() { Init(config.LogConfig{Level: "info"}) })

	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Fatalf("global level = %v, want debug", zerolog.GlobalLevel())
	}
	log.Info().Str("room_id", "R1").Msg("room ready")

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(raw), `"room_id":"R1"`) {
		t.Fatalf("log file missing entry: %s", raw)
	}
}

func TestInitFallsBackToInfoOnBadLevel(t *testing.T) {
	Init(config.LogConfig{Level: "loud"})
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("global level = %v, want info", zerolog.GlobalLevel())
	}
	if Writer() != os.Stdout {
		t.Fatal("expected stdout writer without file sink")
	}
}

package config

import "testing"

func TestLoadServerDefaults(t *testing.T) {
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:8080" {
		t.Fatalf("HTTPAddr = %q, want 127.0.0.1:8080", cfg.HTTPAddr)
	}
	if !cfg.MCPEnabled {
		t.Fatal("MCPEnabled = false, want true")
	}
	if cfg.FeedSize != 500 {
		t.Fatalf("FeedSize = %d, want 500", cfg.FeedSize)
	}
}

func TestLoadServerParseTypes(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("MCP_ENABLED", "false")
	t.Setenv("BATTLE_FEED_SIZE", "64")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.HTTPAddr != ":9090" || cfg.MCPEnabled || cfg.FeedSize != 64 {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
}

func TestLoadApp(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("JUDGE_USER_ID", "7")

	cfg, err := LoadApp()
	if err != nil {
		t.Fatalf("LoadApp() error = %v", err)
	}
	if cfg.Log.Level != "warn" || cfg.Client.UserID != "7" {
		t.Fatalf("unexpected app config: %+v", cfg)
	}
}

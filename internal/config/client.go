package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// ClientConfig describes how the companion talks to the remote judge platform
// and paces the local battle flow.
type ClientConfig struct {
	JudgeBaseURL     string        `env:"JUDGE_BASE_URL" envDefault:"https://www.nowcoder.com"`
	JudgeCookie      string        `env:"JUDGE_COOKIE"`
	UserID           string        `env:"JUDGE_USER_ID"`
	BattleType       int           `env:"BATTLE_TYPE" envDefault:"2"`
	DefaultRankScore int           `env:"DEFAULT_RANK_SCORE" envDefault:"1000"`
	RequestTimeout   time.Duration `env:"JUDGE_REQUEST_TIMEOUT" envDefault:"5s"`

	PollInterval  time.Duration `env:"BATTLE_POLL_INTERVAL" envDefault:"2s"`
	CountdownTick time.Duration `env:"BATTLE_COUNTDOWN_TICK" envDefault:"1s"`
	AICountdown   time.Duration `env:"BATTLE_AI_COUNTDOWN" envDefault:"5s"`
	CancelTimeout time.Duration `env:"BATTLE_CANCEL_TIMEOUT" envDefault:"5s"`
	WorkspaceURL  string        `env:"BATTLE_WORKSPACE_URL" envDefault:"https://dac.nowcoder.com/acm/battle/fight/%s"`
}

func LoadClient() (ClientConfig, error) {
	var cfg ClientConfig
	err := env.Parse(&cfg)
	return cfg, err
}

type CLIConfig struct {
	ConflictPolicy string `env:"CONFLICT_POLICY" envDefault:"resume"`
}

func LoadCLI() (CLIConfig, error) {
	var cfg CLIConfig
	err := env.Parse(&cfg)
	return cfg, err
}

package battle

import (
	"time"

	"battle-companion/internal/config"
)

type Options struct {
	UserID        string
	PollInterval  time.Duration
	CountdownTick time.Duration
	// AICountdown is the local lead-in for AI battles whose reply carries no
	// start time. Zero disables it.
	AICountdown   time.Duration
	CancelTimeout time.Duration
	// WorkspaceURL is a format string with one %s for the room id.
	WorkspaceURL string
	FeedSize     int
}

func OptionsFromConfig(cfg config.ClientConfig, feedSize int) Options {
	return Options{
		UserID:        cfg.UserID,
		PollInterval:  cfg.PollInterval,
		CountdownTick: cfg.CountdownTick,
		AICountdown:   cfg.AICountdown,
		CancelTimeout: cfg.CancelTimeout,
		WorkspaceURL:  cfg.WorkspaceURL,
		FeedSize:      feedSize,
	}
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = 2 * time.Second
	}
	if o.CountdownTick <= 0 {
		o.CountdownTick = time.Second
	}
	if o.AICountdown < 0 {
		o.AICountdown = 0
	}
	if o.CancelTimeout <= 0 {
		o.CancelTimeout = 5 * time.Second
	}
	if o.FeedSize <= 0 {
		o.FeedSize = defaultFeedSize
	}
	return o
}

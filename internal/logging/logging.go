package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"battle-companion/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	writerMu sync.RWMutex
	writer   io.Writer = os.Stdout
)

// Init configures the global zerolog logger. A file sink, when configured,
// receives the same JSON lines as the console.
func Init(cfg config.LogConfig) {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	var console io.Writer = os.Stdout
	if cfg.Stderr {
		console = os.Stderr
	}
	sink := console
	if path := strings.TrimSpace(cfg.File); path != "" {
		if fw, err := newSizeLimitedWriter(path, cfg.MaxMB); err == nil {
			sink = io.MultiWriter(console, fw)
		}
	}
	setWriter(sink)

	output := sink
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: console}
	}

	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).With().Timestamp().Logger()
	if n := cfg.SampleEvery; n > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(n)})
	}
	log.Logger = logger
}

// Writer returns the raw sink so other loggers (the HTTP request logger) land
// in the same place.
func Writer() io.Writer {
	writerMu.RLock()
	defer writerMu.RUnlock()
	return writer
}

func setWriter(w io.Writer) {
	writerMu.Lock()
	writer = w
	writerMu.Unlock()
}

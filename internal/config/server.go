package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	HTTPAddr   string `env:"HTTP_ADDR" envDefault:"127.0.0.1:8080"`
	MCPEnabled bool   `env:"MCP_ENABLED" envDefault:"true"`
	FeedSize   int    `env:"BATTLE_FEED_SIZE" envDefault:"500"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}

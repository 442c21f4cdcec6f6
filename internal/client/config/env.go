package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

// parseEnv overlays Config with EVENTS_* environment variables. Durations
// use time.ParseDuration syntax ("10s"). Panics on malformed values.
func parseEnv(cfg *Config, l envconfig.Lookuper) {
	err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   cfg,
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, l),
	})
	if err != nil {
		panic(err)
	}
}

// Package config loads the dev server settings from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds runtime settings for the dev server.
//
// Fields:
//   - Addr: listen address.
//   - SecretKey: HMAC secret for signing tokens (HS256).
//   - AccessTTL / RefreshTTL: token lifetimes.
//   - OTPTTL: how long a verification code stays valid.
type Config struct {
	Addr       string        `env:"DEVSERVER_ADDR, default=:8000"`
	SecretKey  string        `env:"DEVSERVER_SECRET, default=dev-secret"`
	AccessTTL  time.Duration `env:"DEVSERVER_ACCESS_TTL, default=15m"`
	RefreshTTL time.Duration `env:"DEVSERVER_REFRESH_TTL, default=24h"`
	OTPTTL     time.Duration `env:"DEVSERVER_OTP_TTL, default=5m"`
	LogLevel   string        `env:"DEVSERVER_LOG_LEVEL, default=info"`
	LogFormat  string        `env:"DEVSERVER_LOG_FORMAT, default=zerolog"`
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("empty listen address")
	}
	if c.SecretKey == "" {
		return errors.New("empty secret")
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 || c.OTPTTL <= 0 {
		return errors.New("token and otp lifetimes must be positive")
	}
	return nil
}

// LoadConfig reads the process environment and panics on invalid values.
func LoadConfig() *Config {
	cfg, err := load(envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

func load(l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/eventsplatform/internal/client/credentials"
	"github.com/dmitrijs2005/eventsplatform/internal/logging"
	"github.com/sethvargo/go-envconfig"
)

// Config holds runtime settings for the events client.
//
// Fields:
//   - ServerURL: base URL of the events service.
//   - RequestTimeout: per-request timeout of the HTTP client.
//   - StoreBackend, StorePath, RedisURL, Profile: where the session is kept.
//   - OTPWindow, OTPCellCount: shape of the email verification challenge.
//   - LogLevel, LogFormat: logger selection.
//   - MetricsAddr: where /metrics is served; empty disables it.
//
// The env tags are read by go-envconfig with the EVENTS_ prefix; overwrite
// keeps earlier values when a variable is not set.
type Config struct {
	ServerURL      string        `env:"SERVER_URL, overwrite"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT, overwrite"`
	StoreBackend   string        `env:"STORE_BACKEND, overwrite"`
	StorePath      string        `env:"STORE_PATH, overwrite"`
	RedisURL       string        `env:"REDIS_URL, overwrite"`
	Profile        string        `env:"PROFILE, overwrite"`
	OTPWindow      time.Duration `env:"OTP_WINDOW, overwrite"`
	OTPCellCount   int           `env:"OTP_CELL_COUNT, overwrite"`
	LogLevel       string        `env:"LOG_LEVEL, overwrite"`
	LogFormat      string        `env:"LOG_FORMAT, overwrite"`
	MetricsAddr    string        `env:"METRICS_ADDR, overwrite"`
}

// EnvPrefix prefixes every environment variable the client reads.
const EnvPrefix = "EVENTS_"

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:8000"
	c.RequestTimeout = 10 * time.Second
	c.StoreBackend = credentials.BackendSQLite
	c.StorePath = "session.db"
	c.RedisURL = "redis://localhost:6379/0"
	c.Profile = "default"
	c.OTPWindow = 300 * time.Second
	c.OTPCellCount = 6
	c.LogLevel = "info"
	c.LogFormat = logging.FormatText
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones. Invalid values panic.
func LoadConfig() *Config {
	return load(os.Args[1:], envconfig.OsLookuper())
}

func load(args []string, env envconfig.Lookuper) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseEnv(cfg, env)
	parseFlags(cfg, args)
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

// Validate rejects settings the client cannot start with.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case credentials.BackendSQLite, credentials.BackendRedis, credentials.BackendMemory:
	default:
		return fmt.Errorf("store backend %q: %w", c.StoreBackend, credentials.ErrUnknownBackend)
	}
	switch c.LogFormat {
	case logging.FormatText, logging.FormatJSON, logging.FormatZerolog:
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if c.OTPWindow < time.Second {
		return fmt.Errorf("otp window %s is shorter than a second", c.OTPWindow)
	}
	if c.OTPCellCount < 1 {
		return fmt.Errorf("otp cell count must be positive, got %d", c.OTPCellCount)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("negative request timeout %s", c.RequestTimeout)
	}
	return nil
}

// Package config loads runtime configuration for the events client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Environment variables with the EVENTS_ prefix (see parseEnv).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string     base URL of the events service
//	-t duration   request timeout
//	-s string     session store backend (sqlite, redis, memory)
//	-p string     sqlite session file
//	-r string     redis URL
//	-u string     session profile
//	-w int        otp window (seconds)
//	-n int        otp cell count
//	-l string     log level
//	-f string     log format (text, json, zerolog)
//	-m string     metrics endpoint address (off when empty)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "10s" or integer nanoseconds:
//
//	{
//	  "server_url": "http://localhost:8000",
//	  "request_timeout": "10s",
//	  "store_backend": "sqlite",
//	  "store_path": "session.db",
//	  "otp_window": "5m",
//	  "otp_cell_count": 6,
//	  "log_level": "debug",
//	  "log_format": "json"
//	}
//
// Primary API
//
//   - type Config                   — the client settings
//   - func LoadConfig() *Config     — defaults, JSON, environment, then flags
//   - func (*Config) LoadDefaults() — sets sensible defaults
//   - func (*Config) Validate()     — rejects unusable settings
package config

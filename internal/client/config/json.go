package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/eventsplatform/internal/flagx"
	"github.com/dmitrijs2005/eventsplatform/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "10s" or as integer nanoseconds. Pointer fields tell an
// absent key from a zero value, so a partial file only overrides what it
// names.
type JsonConfig struct {
	ServerURL      *string         `json:"server_url"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	StoreBackend   *string         `json:"store_backend"`
	StorePath      *string         `json:"store_path"`
	RedisURL       *string         `json:"redis_url"`
	Profile        *string         `json:"profile"`
	OTPWindow      *timex.Duration `json:"otp_window"`
	OTPCellCount   *int            `json:"otp_cell_count"`
	LogLevel       *string         `json:"log_level"`
	LogFormat      *string         `json:"log_format"`
	MetricsAddr    *string         `json:"metrics_addr"`
}

// parseJson overlays Config with values loaded from a JSON file named by
// -c or -config in args. Without one it does nothing. Panics on read or
// unmarshal errors.
func parseJson(cfg *Config, args []string) {
	jsonConfigFile := flagx.ConfigFile(args)
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.ServerURL, jc.ServerURL)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setString(&cfg.StoreBackend, jc.StoreBackend)
	setString(&cfg.StorePath, jc.StorePath)
	setString(&cfg.RedisURL, jc.RedisURL)
	setString(&cfg.Profile, jc.Profile)
	setDuration(&cfg.OTPWindow, jc.OTPWindow)
	if jc.OTPCellCount != nil {
		cfg.OTPCellCount = *jc.OTPCellCount
	}
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.MetricsAddr, jc.MetricsAddr)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}

func secondsToDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}

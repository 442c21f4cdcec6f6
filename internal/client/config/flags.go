package config

import (
	"flag"

	"github.com/dmitrijs2005/eventsplatform/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     base URL of the events service
//	-t duration   request timeout, e.g. 10s
//	-s string     session store backend: sqlite, redis or memory
//	-p string     sqlite session file
//	-r string     redis URL
//	-u string     session profile (redis key suffix)
//	-w int        otp window in seconds
//	-n int        otp cell count
//	-l string     log level
//	-f string     log format: text, json or zerolog
//	-m string     address of the metrics endpoint, empty to disable
//
// -w only replaces OTPWindow when it is given, so sub-second windows from
// JSON or the environment survive a run without it.
//
// Note: The function filters args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-t", "-s", "-p", "-r", "-u", "-w", "-n", "-l", "-f", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the events service")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "request timeout")
	fs.StringVar(&cfg.StoreBackend, "s", cfg.StoreBackend, "session store backend")
	fs.StringVar(&cfg.StorePath, "p", cfg.StorePath, "sqlite session file")
	fs.StringVar(&cfg.RedisURL, "r", cfg.RedisURL, "redis URL")
	fs.StringVar(&cfg.Profile, "u", cfg.Profile, "session profile")
	otpWindow := fs.Int("w", int(cfg.OTPWindow.Seconds()), "otp window (in seconds)")
	fs.IntVar(&cfg.OTPCellCount, "n", cfg.OTPCellCount, "otp cell count")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "f", cfg.LogFormat, "log format")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "metrics endpoint address")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "w" {
			cfg.OTPWindow = secondsToDuration(*otpWindow)
		}
	})
}

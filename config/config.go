package config

import (
	"flag"
	"os"
	"strconv"
)

// Config holds the process-wide tunables for an httpmux-based host: how
// many events the engine reads per poller.Wait call, and the defaults a
// client.Client falls back to when a caller doesn't override them via an
// Option.
type Config struct {
	MaxEventsPerWait      int
	DefaultTimeoutSeconds int
	DefaultKeepAlive      bool
	MaxConnsPerHost       int
	CABundlePath          string
}

// New loads configuration from flags, with an environment variable
// override for each flag: flags first, then ENV can override.
func New() *Config {
	cfg := &Config{}

	flag.IntVar(&cfg.MaxEventsPerWait, "max-events-per-wait", 256, "max ready events returned per poller.Wait call")
	flag.IntVar(&cfg.DefaultTimeoutSeconds, "default-timeout-seconds", 30, "default connect+overall timeout for requests that don't set one")
	flag.BoolVar(&cfg.DefaultKeepAlive, "default-keep-alive", true, "default Connection: keep-alive behavior")
	flag.IntVar(&cfg.MaxConnsPerHost, "max-conns-per-host", 8, "soft cap on concurrent connections per host (tunable, not enforced by the engine itself)")
	flag.StringVar(&cfg.CABundlePath, "ca-bundle", "", "explicit CA bundle path; empty triggers platform discovery")

	flag.Parse()

	if v := os.Getenv("HTTPMUX_MAX_EVENTS_PER_WAIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxEventsPerWait = n
		}
	}
	if v := os.Getenv("HTTPMUX_DEFAULT_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DefaultTimeoutSeconds = n
		}
	}
	if v := os.Getenv("HTTPMUX_CA_BUNDLE"); v != "" {
		cfg.CABundlePath = v
	}
	if v := os.Getenv("HTTPMUX_DEFAULT_KEEP_ALIVE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.DefaultKeepAlive = b
		}
	}
	if v := os.Getenv("HTTPMUX_MAX_CONNS_PER_HOST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxConnsPerHost = n
		}
	}

	return cfg
}

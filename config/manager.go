package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// Overrides is the runtime-overridable subset of httpmux configuration:
// the knobs a host may want to swap in from a reloadable source (a JSON
// file, the environment) rather than bake into flags at process start.
// Zero values mean "no override"; Config's flag/env defaults apply.
type Overrides struct {
	CABundlePath          string `json:"ca_bundle_path,omitempty"`
	DefaultTimeoutSeconds int    `json:"default_timeout_seconds,omitempty"`
	MaxConnsPerHost       int    `json:"max_conns_per_host,omitempty"`
	MaxEventsPerWait      int    `json:"max_events_per_wait,omitempty"`

	// DefaultKeepAlive is a pointer so "absent" and "false" stay
	// distinct: nil leaves Config's value alone, a non-nil false turns
	// keep-alive off.
	DefaultKeepAlive *bool `json:"default_keep_alive,omitempty"`
}

// Manager holds an Overrides set a host process layers on top of
// Config's flag/env defaults, e.g. a per-tenant CA bundle path or
// timeout loaded from a JSON file and swapped in while the engine
// singleton keeps running. The engine itself never reads from a
// Manager; only app-level code building client.Option values does.
type Manager struct {
	mu       sync.RWMutex
	o        Overrides
	watchers []func(Overrides)
}

// NewManager creates a Manager with no overrides set.
func NewManager() *Manager {
	return &Manager{}
}

// Set replaces the current override set wholesale and notifies every
// watcher on its own goroutine.
func (m *Manager) Set(o Overrides) {
	m.mu.Lock()
	m.o = o
	watchers := append([]func(Overrides){}, m.watchers...)
	m.mu.Unlock()

	for _, w := range watchers {
		go w(o)
	}
}

// Snapshot returns a copy of the current override set.
func (m *Manager) Snapshot() Overrides {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.o
}

// CABundlePath returns the overriding CA bundle path, or "" when unset.
func (m *Manager) CABundlePath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.o.CABundlePath
}

// DefaultTimeout returns the overriding request timeout, or 0 when
// unset.
func (m *Manager) DefaultTimeout() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return time.Duration(m.o.DefaultTimeoutSeconds) * time.Second
}

// DefaultKeepAlive reports the keep-alive override and whether one is
// set at all.
func (m *Manager) DefaultKeepAlive() (value, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.o.DefaultKeepAlive == nil {
		return false, false
	}
	return *m.o.DefaultKeepAlive, true
}

// MaxConnsPerHost returns the overriding per-host connection cap, or 0
// when unset.
func (m *Manager) MaxConnsPerHost() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.o.MaxConnsPerHost
}

// MaxEventsPerWait returns the overriding poller batch size, or 0 when
// unset.
func (m *Manager) MaxEventsPerWait() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.o.MaxEventsPerWait
}

// ApplyTo overlays every set override onto cfg in place, leaving unset
// fields at cfg's existing values.
func (m *Manager) ApplyTo(cfg *Config) {
	o := m.Snapshot()
	if o.CABundlePath != "" {
		cfg.CABundlePath = o.CABundlePath
	}
	if o.DefaultTimeoutSeconds > 0 {
		cfg.DefaultTimeoutSeconds = o.DefaultTimeoutSeconds
	}
	if o.MaxConnsPerHost > 0 {
		cfg.MaxConnsPerHost = o.MaxConnsPerHost
	}
	if o.MaxEventsPerWait > 0 {
		cfg.MaxEventsPerWait = o.MaxEventsPerWait
	}
	if o.DefaultKeepAlive != nil {
		cfg.DefaultKeepAlive = *o.DefaultKeepAlive
	}
}

// Watch registers fn to run after every Set. Callbacks run on their own
// goroutine and must not assume they observe every intermediate set,
// only the latest.
func (m *Manager) Watch(fn func(Overrides)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchers = append(m.watchers, fn)
}

// LoadFromJSON reads path into the override set, replacing it
// wholesale. Unknown JSON keys are ignored so a shared config file can
// carry non-httpmux sections.
func (m *Manager) LoadFromJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	var o Overrides
	if err := json.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	m.Set(o)
	return nil
}

// SaveToJSON writes the current override set to path, so a host can
// persist overrides it assembled programmatically.
func (m *Manager) SaveToJSON(path string) error {
	data, err := json.MarshalIndent(m.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("config: encoding overrides: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv overlays HTTPMUX_* environment variables onto the
// current override set: HTTPMUX_CA_BUNDLE,
// HTTPMUX_DEFAULT_TIMEOUT_SECONDS, HTTPMUX_MAX_CONNS_PER_HOST,
// HTTPMUX_MAX_EVENTS_PER_WAIT, and HTTPMUX_DEFAULT_KEEP_ALIVE.
// Unparseable numeric/bool values are skipped rather than treated as
// errors, matching how Config's own env overrides behave.
func (m *Manager) LoadFromEnv() {
	o := m.Snapshot()

	if v := os.Getenv("HTTPMUX_CA_BUNDLE"); v != "" {
		o.CABundlePath = v
	}
	if v := os.Getenv("HTTPMUX_DEFAULT_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			o.DefaultTimeoutSeconds = n
		}
	}
	if v := os.Getenv("HTTPMUX_MAX_CONNS_PER_HOST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			o.MaxConnsPerHost = n
		}
	}
	if v := os.Getenv("HTTPMUX_MAX_EVENTS_PER_WAIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			o.MaxEventsPerWait = n
		}
	}
	if v := os.Getenv("HTTPMUX_DEFAULT_KEEP_ALIVE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			o.DefaultKeepAlive = &b
		}
	}

	m.Set(o)
}

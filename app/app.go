// Package app wires the process-wide config into an httpmux client.Client
// and owns the engine's shutdown on process exit.
package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dentiny/httpmux/config"
	"github.com/dentiny/httpmux/httpmux/client"
	"github.com/dentiny/httpmux/httpmux/engine"
)

// App is a small host process built around one httpmux client.Client
// configured from a config.Config.
type App struct {
	cfg *config.Config
	mgr *config.Manager
	cl  *client.Client
}

// New builds a Client from cfg's defaults (CA bundle path, keep-alive,
// timeout) plus any caller-supplied options, which are applied after and
// can override anything cfg infers. It carries no config.Manager; use
// NewWithManager when a host wants overrides layered on top of cfg.
func New(cfg *config.Config, opts ...client.Option) (*App, error) {
	return newApp(cfg, nil, opts...)
}

// NewWithManager is New, but consults mgr's typed overrides (CA bundle
// path, default timeout, keep-alive, poller batch size) before falling
// back to cfg, and registers a Watch callback so a host that later
// calls mgr.Set (e.g. after an mgr.LoadFromJSON reload) is notified the
// running client no longer reflects the new values. The shared
// client.Client's fields are set once at construction and are not safe
// to mutate from another goroutine afterward, so a live override still
// requires rebuilding the App; mgr's role here is to let that rebuild
// read from a richer, reloadable source than the process's original
// flags/env instead of dictating the engine's fixed behavior.
func NewWithManager(cfg *config.Config, mgr *config.Manager, opts ...client.Option) (*App, error) {
	return newApp(cfg, mgr, opts...)
}

func newApp(cfg *config.Config, mgr *config.Manager, opts ...client.Option) (*App, error) {
	caBundle := cfg.CABundlePath
	timeout := time.Duration(cfg.DefaultTimeoutSeconds) * time.Second
	keepAlive := cfg.DefaultKeepAlive
	eventsPerWait := cfg.MaxEventsPerWait
	if mgr != nil {
		if v := mgr.CABundlePath(); v != "" {
			caBundle = v
		}
		if d := mgr.DefaultTimeout(); d > 0 {
			timeout = d
		}
		if ka, ok := mgr.DefaultKeepAlive(); ok {
			keepAlive = ka
		}
		if n := mgr.MaxEventsPerWait(); n > 0 {
			eventsPerWait = n
		}
	}
	if eventsPerWait > 0 {
		engine.MaxEventsPerWait = eventsPerWait
	}

	defaultOpts := []client.Option{overallTimeoutOption(timeout)}
	if caBundle != "" {
		defaultOpts = append(defaultOpts, client.WithCABundle(caBundle))
	}
	if !keepAlive {
		defaultOpts = append(defaultOpts, client.WithoutKeepAlive())
	}

	cl, err := client.New(append(defaultOpts, opts...)...)
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, mgr: mgr, cl: cl}

	if mgr != nil {
		mgr.Watch(func(o config.Overrides) {
			log.Printf("config: overrides changed (%+v); rebuild the App to pick them up, the running client keeps its current values", o)
		})
	}

	return a, nil
}

// overallTimeoutOption is the app-level glue between flag/env/Manager
// configuration and the engine's per-request timeout knobs.
func overallTimeoutOption(d time.Duration) client.Option {
	return func(c *client.Client) {
		client.WithOverallTimeout(d)(c)
		client.WithConnectTimeout(d)(c)
	}
}

// Client returns the configured client.Client for route handlers, bench
// drivers, or a host's remote-file-system layer to issue requests through.
func (a *App) Client() *client.Client {
	return a.cl
}

// Run blocks until SIGINT/SIGTERM, then shuts the shared engine down
// cleanly. Callers that only ever issue a handful of requests can skip
// Run entirely and call engine.Shutdown themselves, or not at all:
// omitting shutdown just means the engine's goroutine and fds are
// reclaimed at process exit like any other.
func (a *App) Run() {
	log.Printf("httpmux app ready (default-timeout=%ds, keep-alive=%v)", a.cfg.DefaultTimeoutSeconds, a.cfg.DefaultKeepAlive)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("signal received: %v, shutting down engine", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := engine.Shutdown(ctx); err != nil {
		log.Printf("engine shutdown: %v", err)
	}
}

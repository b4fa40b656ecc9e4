/*
Package httpmux provides a shared, multiplexed HTTP/1.1 client engine for Go.

A single background goroutine drives an epoll (Linux) or kqueue (macOS)
readiness loop over every in-flight transfer, the way a CURLM* multi-handle
drives a batch of easy handles, except every caller gets its own one-shot
result channel instead of polling a shared completion queue.

Features

  - One background event loop shared by every caller, started lazily and
    torn down explicitly via engine.Shutdown
  - Non-blocking HTTP/1.1 state machine per transfer: connect, optional TLS
    handshake, write, read headers, read body (including chunked transfer)
  - Redirect following with per-hop header groups
  - Object pooling: handle reuse, a tiered byte pool for socket scratch
    buffers, and a worker pool for dispatching completion callbacks
  - TLS configuration with platform CA bundle discovery
  - Connection introspection (netinfo) and an AES-GCM helper for signing
    cache keys

Quick Start

Basic usage example:

package main

import (
    "context"
    "fmt"

    "github.com/dentiny/httpmux/httpmux/client"
)

func main() {
    cl, err := client.New(client.WithoutRedirects())
    if err != nil {
        panic(err)
    }

    resp, err := cl.Get(context.Background(), "https://example.com", nil)
    if err != nil {
        panic(err)
    }
    fmt.Println(resp.Status, len(resp.Body))
}

Modules

The module is organized into several packages:

  - app: process wiring around a configured client.Client
  - config: flag/env configuration plus a runtime-overridable Manager
  - httpmux/engine: the shared transfer engine and its singleton lifecycle
  - httpmux/curlmulti: the non-blocking HTTP/1.1 transfer state machine
  - httpmux/transfer: request/response/header-group types and error kinds
  - httpmux/poller: epoll/kqueue readiness multiplexing
  - httpmux/timerfd: timer and wakeup descriptors driving the event loop
  - httpmux/client: the caller-facing facade and interceptor pipeline
  - httpmux/tlsutil: TLS configuration and CA bundle discovery
  - httpmux/netinfo: connection introspection and protobuf encoding
  - httpmux/aesutil: AES-GCM helpers for cache-key signing
  - httpmux/hostext: registration glue for embedding httpmux in a host
  - httpmux/pools: byte and worker pooling with GC tuning
  - cmd/httpmux-bench: a concurrency-driven benchmark CLI

For more information, see https://github.com/dentiny/httpmux
*/
package httpmux

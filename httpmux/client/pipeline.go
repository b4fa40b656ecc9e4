package client

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dentiny/httpmux/httpmux/transfer"
)

// Interceptor inspects or mutates a Request before it is submitted to
// the engine. Returning a non-nil error aborts the request: no
// transfer is attempted and the error is returned to the caller
// unwrapped. Nothing here runs during the transfer itself (the engine
// owns that), so the hook is a pre-submission check.
type Interceptor func(*transfer.Request) error

// Pipeline is an ordered chain of Interceptors, run in registration
// order; the first error stops the chain.
type Pipeline struct {
	handlers []Interceptor
}

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{handlers: make([]Interceptor, 0, 4)}
}

// Use appends an Interceptor to the pipeline.
func (p *Pipeline) Use(h Interceptor) *Pipeline {
	p.handlers = append(p.handlers, h)
	return p
}

// Execute runs every Interceptor in order, stopping at the first error.
func (p *Pipeline) Execute(req *transfer.Request) error {
	for _, h := range p.handlers {
		if err := h(req); err != nil {
			return err
		}
	}
	return nil
}

// RequestID stamps every outgoing request with a monotonically
// increasing X-Request-ID header.
func RequestID() Interceptor {
	var counter uint64
	return func(req *transfer.Request) error {
		id := atomic.AddUint64(&counter, 1)
		if req.Headers == nil {
			req.Headers = make(map[string]string)
		}
		req.Headers["X-Request-ID"] = fmt.Sprintf("%d", id)
		return nil
	}
}

// Logger logs the method and URL of every outgoing request.
func Logger() Interceptor {
	return func(req *transfer.Request) error {
		log.Printf("[%s] %s", req.Method, req.URL)
		return nil
	}
}

// RateLimiter rejects requests once more than requestsPerSecond have
// been submitted within the current one-second window.
func RateLimiter(requestsPerSecond int) Interceptor {
	var (
		mu         sync.Mutex
		tokens     int
		lastRefill time.Time
	)
	tokens = requestsPerSecond
	lastRefill = time.Now()

	return func(req *transfer.Request) error {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now()
		if now.Sub(lastRefill) > time.Second {
			tokens = requestsPerSecond
			lastRefill = now
		}
		if tokens <= 0 {
			return fmt.Errorf("client: rate limit exceeded (%d req/s)", requestsPerSecond)
		}
		tokens--
		return nil
	}
}

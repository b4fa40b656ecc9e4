// Package engine implements the shared, never-directly-constructed
// transfer engine: one background goroutine owns a Poller, a Timer, a
// Wakeup, and a curlmulti.Multi, and every Submit call from any
// goroutine hands a transfer.Request to that loop through a
// mutex-guarded pending queue drained via the Wakeup fd. Callers
// block on each Request's one-shot channel until the loop publishes a
// Response.
package engine

import (
	"context"
	"errors"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/dentiny/httpmux/httpmux/curlmulti"
	"github.com/dentiny/httpmux/httpmux/observability"
	"github.com/dentiny/httpmux/httpmux/poller"
	"github.com/dentiny/httpmux/httpmux/pools"
	"github.com/dentiny/httpmux/httpmux/timerfd"
	"github.com/dentiny/httpmux/httpmux/transfer"
)

// ErrShuttingDown is returned by Submit once Shutdown has been called.
var ErrShuttingDown = errors.New("engine: shutting down")

// MaxEventsPerWait bounds how many ready events the loop reads per
// poller.Wait call. Read once when the singleton starts; set it before
// the first Get (or between a Shutdown and the next Get) to change it.
var MaxEventsPerWait = 256

// Engine is a single event loop multiplexing every
// in-flight HTTP transfer across one Poller. It is never constructed
// directly; obtain the process-wide instance via Get.
type Engine struct {
	poller poller.Poller
	timer  timerfd.Timer
	wake   timerfd.Wakeup
	multi  *curlmulti.Multi

	submitMu sync.Mutex
	pending  []*transfer.Request
	draining bool

	workerPool *pools.WorkerPool
	handlePool *curlmulti.HandlePool
	monitor    *observability.TransferMonitor

	stopCh    chan struct{}
	stoppedCh chan struct{}

	submitted int64
	completed int64
	failed    int64
	statsMu   sync.Mutex
}

var (
	singletonMu sync.Mutex
	singleton   *Engine
)

// Get returns the process-wide Engine, starting its background goroutine
// on first call. Subsequent calls (including calls after a prior
// Shutdown) reuse or lazily recreate the singleton. Teardown is an
// explicit operation via Shutdown; if it is never called, the
// goroutine and its descriptors are reclaimed at process exit.
func Get() (*Engine, error) {
	singletonMu.Lock()
	defer singletonMu.Unlock()
	if singleton != nil {
		return singleton, nil
	}
	e, err := newEngine()
	if err != nil {
		return nil, err
	}
	singleton = e
	go e.run()
	return e, nil
}

var gcTuneOnce sync.Once

func newEngine() (*Engine, error) {
	gcTuneOnce.Do(pools.OptimizeForLowLatency)

	p, err := poller.New()
	if err != nil {
		return nil, err
	}
	t, err := timerfd.NewTimer()
	if err != nil {
		p.Close()
		return nil, err
	}
	w, err := timerfd.NewWakeup()
	if err != nil {
		t.Close()
		p.Close()
		return nil, err
	}

	e := &Engine{
		poller:    p,
		timer:     t,
		wake:      w,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}

	e.workerPool = pools.NewWorkerPool(2)
	e.handlePool = curlmulti.NewHandlePool(32)

	e.multi = curlmulti.NewMulti(e.onSocketChange, e.onTimerChange)
	e.monitor = observability.NewTransferMonitor()

	if err := p.Add(t.Fd(), poller.Readable); err != nil {
		e.closeDescriptors()
		return nil, err
	}
	if err := p.Add(w.Fd(), poller.Readable); err != nil {
		e.closeDescriptors()
		return nil, err
	}

	log.Printf("engine: transfer loop ready (poller=%T)", p)
	return e, nil
}

func (e *Engine) closeDescriptors() {
	e.poller.Close()
	e.timer.Close()
	e.wake.Close()
}

// Submit hands req to the engine. It returns immediately; the caller
// receives the result through req.Done().
func (e *Engine) Submit(req *transfer.Request) error {
	e.submitMu.Lock()
	if e.draining {
		e.submitMu.Unlock()
		return ErrShuttingDown
	}
	e.pending = append(e.pending, req)
	e.submitMu.Unlock()

	e.statsMu.Lock()
	e.submitted++
	e.statsMu.Unlock()

	return e.wake.Poke()
}

// Perform submits req and blocks until the transfer completes or ctx is
// done, whichever comes first. It is the synchronous convenience path
// the client facade uses for its Get/Post/etc methods.
func (e *Engine) Perform(ctx context.Context, req *transfer.Request) (*transfer.Response, error) {
	if err := e.Submit(req); err != nil {
		return nil, err
	}
	select {
	case resp := <-req.Done():
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// run is the engine's single background goroutine: it owns the Poller,
// the Multi, and every Handle's fd, and no other goroutine may touch
// any of them.
func (e *Engine) run() {
	defer close(e.stoppedCh)
	n := MaxEventsPerWait
	if n <= 0 {
		n = 256
	}
	events := make([]poller.Event, n)

	timerFd := e.timer.Fd()
	wakeFd := e.wake.Fd()

	for {
		select {
		case <-e.stopCh:
			return
		default:
		}

		n, err := e.poller.Wait(events, 100)
		if err != nil {
			continue
		}

		for i := 0; i < n; i++ {
			ev := events[i]
			switch ev.Fd {
			case timerFd:
				e.timer.Drain()
				e.multi.CheckDeadlines(time.Now())
			case wakeFd:
				e.wake.Drain()
				e.attachPending()
			default:
				e.multi.SocketAction(ev.Fd, ev.Ready)
			}
		}

		e.drainCompletions()
	}
}

// attachPending moves every Request submitted since the last wakeup
// into the transfer multiplexer. A URL that fails to parse is published
// here directly with KindTransportInit; failures at start (DNS, socket,
// connect) are reported synchronously by curlmulti and collected by the
// very next drainCompletions call.
func (e *Engine) attachPending() {
	e.submitMu.Lock()
	batch := e.pending
	e.pending = nil
	e.submitMu.Unlock()

	for _, req := range batch {
		h, err := e.handlePool.GetBound(req)
		if err != nil {
			req.Publish(&transfer.Response{URL: req.URL, Error: err.Error(), Kind: transfer.KindTransportInit})
			e.statsMu.Lock()
			e.failed++
			e.statsMu.Unlock()
			continue
		}
		configureHandle(h, req)
		e.multi.AddHandle(h)
	}
}

func configureHandle(h *curlmulti.Handle, req *transfer.Request) {
	h.TLS = curlmulti.TLSConfig{
		VerifyPeer: !req.InsecureSkipVerify,
		CABundle:   req.CABundlePath,
	}
	h.FollowRedirects = req.FollowRedirects
	if req.MaxRedirects > 0 {
		h.MaxRedirects = req.MaxRedirects
	}
	h.KeepAlive = req.KeepAlive
	if req.ConnectTimeoutMs > 0 {
		h.ConnectTimeout = time.Duration(req.ConnectTimeoutMs) * time.Millisecond
	}
	if req.OverallTimeoutMs > 0 {
		h.OverallTimeout = time.Duration(req.OverallTimeoutMs) * time.Millisecond
	}
	if req.ProxyHost != "" {
		h.Proxy = &curlmulti.ProxyConfig{
			Host:     req.ProxyHost,
			Port:     req.ProxyPort,
			Username: req.ProxyUsername,
			Password: req.ProxyPassword,
		}
	}
}

// drainCompletions pops every finished transfer from the multiplexer's
// info queue and publishes its Response through the owning Request's
// one-shot slot exactly once.
func (e *Engine) drainCompletions() {
	for {
		c, ok := e.multi.InfoRead()
		if !ok {
			return
		}

		req := c.Handle.Req
		resp := &transfer.Response{
			URL:    req.URL,
			Status: c.Status,
		}
		if c.Err != nil {
			resp.Kind = c.Kind
			resp.Error = c.Err.Error()
			if g := req.LastGroup(); g != nil {
				if status, ok := g[transfer.ResponseStatusKey]; ok {
					resp.Error = status
				}
			}
		} else {
			resp.Body = req.ResponseBody()
			resp.Headers = req.LastGroup()
		}

		e.statsMu.Lock()
		if c.Err != nil {
			e.failed++
		} else {
			e.completed++
		}
		e.statsMu.Unlock()

		e.monitor.RecordTransfer(requestHost(req.URL), time.Since(c.Handle.StartedAt()), c.Err != nil || resp.Error != "")

		req.Publish(resp)
		if req.OnComplete != nil {
			cb, r := req.OnComplete, resp
			if !e.workerPool.Submit(func() { cb(r) }) {
				cb(r)
			}
		}
		e.handlePool.Put(c.Handle)
	}
}

// requestHost extracts the host:port a transfer targeted, for grouping
// observability.TransferMonitor metrics. Falls back to the raw URL if
// it fails to parse, which should only happen for a malformed URL that
// the transfer itself already failed on.
func requestHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}

// Bottlenecks returns the engine's most recently detected set of
// degraded hosts, by average latency or error rate.
func (e *Engine) Bottlenecks() []observability.Bottleneck {
	return e.monitor.GetBottlenecks()
}

func (e *Engine) onSocketChange(ch curlmulti.SocketChange) {
	if ch.Remove {
		e.poller.Remove(ch.Fd)
		return
	}
	if err := e.poller.Add(ch.Fd, ch.Mask); err != nil {
		e.poller.Modify(ch.Fd, ch.Mask)
	}
}

func (e *Engine) onTimerChange(timeoutMs int64) {
	e.timer.Arm(timeoutMs)
}

// Stats reports cumulative submission counters for observability.
type Stats struct {
	Submitted int64
	Completed int64
	Failed    int64
	Active    int // submitted but not yet completed or failed
}

// Stats returns a snapshot of the engine's lifetime counters.
func (e *Engine) Stats() Stats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return Stats{
		Submitted: e.submitted,
		Completed: e.completed,
		Failed:    e.failed,
		Active:    int(e.submitted - e.completed - e.failed),
	}
}

// Shutdown stops the engine's background goroutine and releases its
// descriptors. It is idempotent and safe to call even if Get was never
// called. A subsequent Get call lazily starts a fresh engine.
func Shutdown(ctx context.Context) error {
	singletonMu.Lock()
	e := singleton
	singleton = nil
	singletonMu.Unlock()

	if e == nil {
		return nil
	}

	e.submitMu.Lock()
	e.draining = true
	e.submitMu.Unlock()

	close(e.stopCh)
	select {
	case <-e.stoppedCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	e.workerPool.Close()
	e.monitor.Close()
	e.closeDescriptors()
	return nil
}

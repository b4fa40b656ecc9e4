package curlmulti

import (
	"sync"
	"sync/atomic"

	"github.com/dentiny/httpmux/httpmux/transfer"
)

// HandlePool recycles Handles across transfers so a steady stream of
// submissions doesn't allocate a fresh state machine (write buffer,
// header scratch, deadline bookkeeping) per request. A Handle is only
// ever handed out bound: GetBound pops a recycled Handle and Binds it
// to the request in one step, so no caller can attach a pooled Handle
// that still carries a previous transfer's URL or phase.
type HandlePool struct {
	pool sync.Pool

	gets atomic.Uint64
	puts atomic.Uint64
	news atomic.Uint64
}

// NewHandlePool builds a pool pre-seeded with warmup idle Handles, so
// the first wave of submissions after engine start reuses instead of
// allocating.
func NewHandlePool(warmup int) *HandlePool {
	hp := &HandlePool{}
	hp.pool.New = func() any {
		hp.news.Add(1)
		return &Handle{fd: -1}
	}
	for i := 0; i < warmup; i++ {
		hp.pool.Put(&Handle{fd: -1})
	}
	return hp
}

// GetBound pops a recycled (or freshly allocated) Handle and binds it
// to req. A Bind failure (unparseable URL) recycles the Handle
// immediately and returns the error; the caller never sees a
// half-bound Handle.
func (hp *HandlePool) GetBound(req *transfer.Request) (*Handle, error) {
	hp.gets.Add(1)
	h := hp.pool.Get().(*Handle)
	if err := h.Bind(req); err != nil {
		hp.Put(h)
		return nil, err
	}
	return h, nil
}

// Put recycles h after its transfer reached a terminal state. The
// Multi's complete/fail paths have already closed h's connection and
// dropped its fd registration by the time a completion is drained, so
// Reset only has per-transfer state left to clear.
func (hp *HandlePool) Put(h *Handle) {
	if h == nil {
		return
	}
	hp.puts.Add(1)
	h.Reset()
	hp.pool.Put(h)
}

// HandlePoolStats reports how well recycling is working.
type HandlePoolStats struct {
	Gets    uint64
	Puts    uint64
	News    uint64
	HitRate float64 // share of GetBound calls served without allocating
}

// Stats returns a snapshot of the pool's counters.
func (hp *HandlePool) Stats() HandlePoolStats {
	gets := hp.gets.Load()
	news := hp.news.Load()

	hitRate := 0.0
	if gets > 0 && gets > news {
		hitRate = float64(gets-news) / float64(gets)
	}

	return HandlePoolStats{
		Gets:    gets,
		Puts:    hp.puts.Load(),
		News:    news,
		HitRate: hitRate,
	}
}

// Package curlmulti implements the non-blocking, single-goroutine HTTP
// transfer multiplexer that stands in for a native CURLM* multi handle:
// many Handles (easy-handle analogues) share one Poller-driven socket
// loop, reporting completions through a FIFO queue instead of blocking
// calls.
package curlmulti

import (
	"errors"
	"time"

	"github.com/dentiny/httpmux/httpmux/poller"
	"github.com/dentiny/httpmux/httpmux/transfer"
)

var errTransferTimedOut = errors.New("curlmulti: transfer deadline exceeded")

// SocketChange is what Multi reports to its owner whenever a Handle's
// fd or interest changes, the Go analogue of CURLMOPT_SOCKETFUNCTION's
// action argument (CURL_POLL_IN/OUT/INOUT/REMOVE).
type SocketChange struct {
	Fd     int
	Remove bool
	Mask   poller.Mask
	Handle *Handle
}

// SocketFunc is invoked synchronously, from inside AddHandle,
// SocketAction, CheckDeadlines or RemoveHandle, whenever a Handle needs its Poller registration added, changed, or
// removed. Implementations must not block.
type SocketFunc func(SocketChange)

// TimerFunc is invoked synchronously whenever the multiplexer's next
// wakeup deadline changes, the Go analogue of
// CURLMOPT_TIMERFUNCTION. timeoutMs mirrors curl's convention: <0 means
// "no timer needed", 0 means "call back immediately".
type TimerFunc func(timeoutMs int64)

// Completion is one finished transfer, handed to the Engine's
// drain_completions step for delivery through the Request's one-shot
// slot.
type Completion struct {
	Handle *Handle
	Status int
	Err    error
	Kind   transfer.ErrKind
}

// Multi owns the set of in-flight Handles and the fd -> Handle routing
// table. It never blocks and never spawns goroutines; every exported
// method is meant to be called from the single engine goroutine.
type Multi struct {
	socketCB SocketFunc
	timerCB  TimerFunc

	handles    map[*Handle]struct{}
	fdToHandle map[int]*Handle

	completions []Completion
}

// NewMulti constructs a Multi that reports socket and timer changes
// through the given callbacks.
func NewMulti(socketCB SocketFunc, timerCB TimerFunc) *Multi {
	return &Multi{
		socketCB:   socketCB,
		timerCB:    timerCB,
		handles:    make(map[*Handle]struct{}),
		fdToHandle: make(map[int]*Handle),
	}
}

// AddHandle attaches h and starts its connect attempt. A synchronous
// failure (DNS error, socket() or connect() failure) is reported through
// the completion queue immediately rather than as a returned error,
// matching how every other terminal condition is surfaced.
func (m *Multi) AddHandle(h *Handle) {
	m.handles[h] = struct{}{}
	h.start(m)
	m.armTimer()
}

// RemoveHandle detaches h, closing its connection if still open. Safe
// to call on a Handle that has already completed.
func (m *Multi) RemoveHandle(h *Handle) {
	if _, ok := m.handles[h]; !ok {
		return
	}
	h.closeConn()
	delete(m.handles, h)
}

// NumActive reports how many handles are still attached: the
// still-running count. Like every other Multi method it must be called
// from the engine goroutine.
func (m *Multi) NumActive() int {
	return len(m.handles)
}

// SocketAction advances the Handle owning fd in response to a
// readiness event. Unknown fds (already removed, or a stale wakeup
// racing a Remove) are silently ignored.
func (m *Multi) SocketAction(fd int, ready poller.Mask) {
	h, ok := m.fdToHandle[fd]
	if !ok {
		return
	}
	h.onReady(ready)
	m.armTimer()
}

// CheckDeadlines fails any handle whose connect or overall deadline has
// passed. The Engine calls this on every CURL_SOCKET_TIMEOUT-style
// wakeup, i.e. whenever the Timer fires.
func (m *Multi) CheckDeadlines(now time.Time) {
	var expired []*Handle
	for h := range m.handles {
		if h.checkDeadline(now) {
			expired = append(expired, h)
		}
	}
	for _, h := range expired {
		m.fail(h, transfer.KindTimeout, errTransferTimedOut)
	}
	m.armTimer()
}

// InfoRead pops one completed transfer, the Go analogue of
// curl_multi_info_read. It returns ok=false once the queue is empty.
func (m *Multi) InfoRead() (Completion, bool) {
	if len(m.completions) == 0 {
		return Completion{}, false
	}
	c := m.completions[0]
	m.completions = m.completions[1:]
	return c, true
}

func (m *Multi) registerFd(h *Handle, fd int, mask poller.Mask) {
	h.fd = fd
	m.fdToHandle[fd] = h
	m.socketCB(SocketChange{Fd: fd, Mask: mask, Handle: h})
}

func (m *Multi) modifyFd(h *Handle, mask poller.Mask) {
	if h.fd < 0 {
		return
	}
	m.socketCB(SocketChange{Fd: h.fd, Mask: mask, Handle: h})
}

func (m *Multi) removeFd(h *Handle) {
	if h.fd < 0 {
		return
	}
	delete(m.fdToHandle, h.fd)
	m.socketCB(SocketChange{Fd: h.fd, Remove: true, Handle: h})
	h.fd = -1
}

// fail tears down h's connection and enqueues a failed Completion.
func (m *Multi) fail(h *Handle, kind transfer.ErrKind, err error) {
	h.closeConn()
	delete(m.handles, h)
	m.completions = append(m.completions, Completion{Handle: h, Err: err, Kind: kind})
}

// complete tears down h's connection (unless keep-alive reuse is added
// later) and enqueues a successful Completion at the given status.
func (m *Multi) complete(h *Handle, status int) {
	h.closeConn()
	delete(m.handles, h)
	m.completions = append(m.completions, Completion{Handle: h, Status: status})
}

// armTimer recomputes the soonest deadline across all attached handles
// and reports it via timerCB, mirroring curl_multi's habit of calling
// the timer callback liberally rather than only on change.
func (m *Multi) armTimer() {
	if m.timerCB == nil {
		return
	}
	var soonest time.Time
	for h := range m.handles {
		for _, d := range [...]time.Time{h.connectDeadline, h.overallDeadline} {
			if d.IsZero() {
				continue
			}
			if soonest.IsZero() || d.Before(soonest) {
				soonest = d
			}
		}
	}
	if soonest.IsZero() {
		m.timerCB(-1)
		return
	}
	ms := time.Until(soonest).Milliseconds()
	if ms < 0 {
		ms = 0
	}
	m.timerCB(ms)
}

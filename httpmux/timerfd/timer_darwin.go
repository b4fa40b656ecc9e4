//go:build darwin
// +build darwin

package timerfd

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// darwinTimer has no timerfd equivalent on Darwin, so it uses a
// self-pipe: Arm schedules a time.Timer that writes one byte to the
// write end; Drain reads (and discards) everything buffered on the
// read end, which is the fd registered with the Poller.
type darwinTimer struct {
	r, w int
	mu   sync.Mutex
	t    *time.Timer
}

func NewTimer() (Timer, error) {
	fds, err := selfPipe()
	if err != nil {
		return nil, err
	}
	return &darwinTimer{r: fds[0], w: fds[1]}, nil
}

func (t *darwinTimer) Fd() int { return t.r }

func (t *darwinTimer) Arm(ms int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
	if ms < 0 {
		return nil
	}

	d := time.Duration(ms) * time.Millisecond
	if ms == 0 {
		d = time.Nanosecond
	}
	w := t.w
	t.t = time.AfterFunc(d, func() {
		var b [1]byte
		unix.Write(w, b[:])
	})
	return nil
}

func (t *darwinTimer) Drain() error {
	var buf [64]byte
	for {
		n, err := unix.Read(t.r, buf[:])
		if err == unix.EAGAIN || n == 0 {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (t *darwinTimer) Close() error {
	t.mu.Lock()
	if t.t != nil {
		t.t.Stop()
	}
	t.mu.Unlock()
	unix.Close(t.w)
	return unix.Close(t.r)
}

func selfPipe() ([2]int, error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return fds, err
	}
	if err := unix.SetNonblock(fds[0], true); err != nil {
		return fds, err
	}
	if err := unix.SetNonblock(fds[1], true); err != nil {
		return fds, err
	}
	return fds, nil
}

//go:build darwin
// +build darwin

package timerfd

import (
	"golang.org/x/sys/unix"
)

// darwinWakeup is a self-pipe counter: Poke writes a single byte
// (ignoring EAGAIN, which means a byte is already buffered and thus a
// readable event is already pending); Drain empties the pipe.
type darwinWakeup struct {
	r, w int
}

func NewWakeup() (Wakeup, error) {
	fds, err := selfPipe()
	if err != nil {
		return nil, err
	}
	return &darwinWakeup{r: fds[0], w: fds[1]}, nil
}

func (w *darwinWakeup) Fd() int { return w.r }

func (w *darwinWakeup) Poke() error {
	var b [1]byte
	b[0] = 1
	_, err := unix.Write(w.w, b[:])
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

func (w *darwinWakeup) Drain() error {
	var buf [64]byte
	for {
		n, err := unix.Read(w.r, buf[:])
		if err == unix.EAGAIN || n == 0 {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (w *darwinWakeup) Close() error {
	unix.Close(w.w)
	return unix.Close(w.r)
}

//go:build linux
// +build linux

package timerfd

import (
	"golang.org/x/sys/unix"
)

type linuxTimer struct {
	fd int
}

// NewTimer creates a CLOCK_MONOTONIC, non-blocking timerfd.
func NewTimer() (Timer, error) {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_NONBLOCK|unix.TFD_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &linuxTimer{fd: fd}, nil
}

func (t *linuxTimer) Fd() int { return t.fd }

func (t *linuxTimer) Arm(ms int64) error {
	var its unix.ItimerSpec
	switch {
	case ms > 0:
		its.Value.Sec = ms / 1000
		its.Value.Nsec = (ms % 1000) * 1_000_000
	case ms == 0:
		// A zero value on both fields disarms the timer; schedule the
		// closest possible fire time instead.
		its.Value.Sec = 0
		its.Value.Nsec = 1
	default:
		// Zeroed its.Value disarms.
	}
	return unix.TimerfdSettime(t.fd, 0, &its, nil)
}

func (t *linuxTimer) Drain() error {
	var buf [8]byte
	_, err := unix.Read(t.fd, buf[:])
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

func (t *linuxTimer) Close() error {
	return unix.Close(t.fd)
}

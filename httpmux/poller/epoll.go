//go:build linux
// +build linux

package poller

import (
	"golang.org/x/sys/unix"
)

// epollPoller is an epoll-based I/O multiplexer. It tracks independent
// read/write interest per fd and delivers edge-triggered events so the
// engine can mirror the transfer multiplexer's interest requests
// exactly.
type epollPoller struct {
	epfd   int
	events []unix.EpollEvent
}

// New creates a new Poller for the current platform.
func New() (Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollPoller{
		epfd:   epfd,
		events: make([]unix.EpollEvent, 256),
	}, nil
}

func toEpollEvents(mask Mask) uint32 {
	var ev uint32 = unix.EPOLLET
	if mask&Readable != 0 {
		ev |= unix.EPOLLIN
	}
	if mask&Writable != 0 {
		ev |= unix.EPOLLOUT
	}
	return ev
}

func (p *epollPoller) Add(fd int, mask Mask) error {
	ev := unix.EpollEvent{Events: toEpollEvents(mask), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (p *epollPoller) Modify(fd int, mask Mask) error {
	ev := unix.EpollEvent{Events: toEpollEvents(mask), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
}

func (p *epollPoller) Remove(fd int) error {
	err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	if err == unix.ENOENT {
		return nil
	}
	return err
}

func (p *epollPoller) Wait(out []Event, timeoutMs int) (int, error) {
	if cap(p.events) < len(out) {
		p.events = make([]unix.EpollEvent, len(out))
	}
	n, err := unix.EpollWait(p.epfd, p.events[:len(out)], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}

	for i := 0; i < n; i++ {
		var mask Mask
		e := p.events[i].Events
		if e&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR|unix.EPOLLRDHUP) != 0 {
			mask |= Readable
		}
		if e&(unix.EPOLLOUT|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
			mask |= Writable
		}
		out[i] = Event{Fd: int(p.events[i].Fd), Ready: mask}
	}
	return n, nil
}

func (p *epollPoller) Close() error {
	return unix.Close(p.epfd)
}

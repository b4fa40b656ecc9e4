//go:build darwin
// +build darwin

package poller

import (
	"sync"

	"golang.org/x/sys/unix"
)

// kqueuePoller is a kqueue-based I/O multiplexer.
//
// kqueue has no single "interest mask" knob like epoll; read and write
// interest are independent filters (EVFILT_READ / EVFILT_WRITE) that
// must be added/deleted individually. kqueuePoller tracks the
// currently-registered mask per fd so Modify can diff the requested
// mask against what's live and issue the minimal set of
// EV_ADD/EV_DELETE changes.
type kqueuePoller struct {
	kqfd   int
	events []unix.Kevent_t
	mu     sync.Mutex
	live   map[int]Mask
}

// New creates a new Poller for the current platform.
func New() (Poller, error) {
	kqfd, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	return &kqueuePoller{
		kqfd:   kqfd,
		events: make([]unix.Kevent_t, 256),
		live:   make(map[int]Mask),
	}, nil
}

func (p *kqueuePoller) changeList(fd int, from, to Mask) []unix.Kevent_t {
	var changes []unix.Kevent_t
	want := func(m Mask, bit Mask) bool { return m&bit != 0 }

	if want(to, Readable) && !want(from, Readable) {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_ADD | unix.EV_ENABLE | unix.EV_CLEAR})
	} else if !want(to, Readable) && want(from, Readable) {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_DELETE})
	}

	if want(to, Writable) && !want(from, Writable) {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_ADD | unix.EV_ENABLE | unix.EV_CLEAR})
	} else if !want(to, Writable) && want(from, Writable) {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_DELETE})
	}

	return changes
}

func (p *kqueuePoller) Add(fd int, mask Mask) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.live[fd]; ok {
		return unix.EEXIST
	}
	changes := p.changeList(fd, 0, mask)
	if len(changes) > 0 {
		if _, err := unix.Kevent(p.kqfd, changes, nil, nil); err != nil {
			return err
		}
	}
	p.live[fd] = mask
	return nil
}

func (p *kqueuePoller) Modify(fd int, mask Mask) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	from, ok := p.live[fd]
	if !ok {
		return unix.ENOENT
	}
	changes := p.changeList(fd, from, mask)
	if len(changes) > 0 {
		if _, err := unix.Kevent(p.kqfd, changes, nil, nil); err != nil {
			return err
		}
	}
	p.live[fd] = mask
	return nil
}

func (p *kqueuePoller) Remove(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	from, ok := p.live[fd]
	if !ok {
		return nil
	}
	changes := p.changeList(fd, from, 0)
	delete(p.live, fd)
	if len(changes) == 0 {
		return nil
	}
	_, err := unix.Kevent(p.kqfd, changes, nil, nil)
	return err
}

func (p *kqueuePoller) Wait(out []Event, timeoutMs int) (int, error) {
	if cap(p.events) < len(out) {
		p.events = make([]unix.Kevent_t, len(out))
	}

	var ts *unix.Timespec
	if timeoutMs >= 0 {
		ts = &unix.Timespec{
			Sec:  int64(timeoutMs / 1000),
			Nsec: int64(timeoutMs%1000) * 1_000_000,
		}
	}

	n, err := unix.Kevent(p.kqfd, nil, p.events[:len(out)], ts)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}

	for i := 0; i < n; i++ {
		var mask Mask
		switch p.events[i].Filter {
		case unix.EVFILT_READ:
			mask = Readable
		case unix.EVFILT_WRITE:
			mask = Writable
		}
		if p.events[i].Flags&unix.EV_EOF != 0 {
			mask |= Readable | Writable
		}
		out[i] = Event{Fd: int(p.events[i].Ident), Ready: mask}
	}
	return n, nil
}

func (p *kqueuePoller) Close() error {
	return unix.Close(p.kqfd)
}

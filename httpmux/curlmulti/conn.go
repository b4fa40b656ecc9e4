package curlmulti

import (
	"errors"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// wouldBlockOp tags which direction a fdConn operation needed readiness
// for, so the driving state machine (Handle.step) can ask the Poller for
// the right interest instead of guessing.
type wouldBlockOp int

const (
	wouldBlockRead wouldBlockOp = iota
	wouldBlockWrite
)

// wouldBlockError implements net.Error so it can pass through
// crypto/tls's Handshake/Read/Write as an ordinary timeout, the
// standard trick for driving a non-blocking fd through an API built
// around blocking net.Conn semantics.
type wouldBlockError struct {
	op wouldBlockOp
}

func (e *wouldBlockError) Error() string   { return "would block" }
func (e *wouldBlockError) Timeout() bool   { return true }
func (e *wouldBlockError) Temporary() bool { return true }

// asWouldBlock reports whether err is (or wraps) a wouldBlockError and
// returns the direction it needs.
func asWouldBlock(err error) (wouldBlockOp, bool) {
	var wb *wouldBlockError
	if errors.As(err, &wb) {
		return wb.op, true
	}
	return 0, false
}

// fdConn adapts a non-blocking raw socket fd to net.Conn so
// crypto/tls.Conn can drive a TLS handshake and record layer across
// readiness events instead of blocking the engine goroutine.
//
// Deadlines are intentionally not implemented as real timers: the
// engine's own per-transfer ConnectTimeoutMs/OverallTimeoutMs deadlines
// are enforced by Handle.checkDeadline, so fdConn's SetReadDeadline /
// SetWriteDeadline are no-ops that exist only to satisfy the net.Conn
// interface tls.Conn requires.
type fdConn struct {
	fd         int
	localAddr  net.Addr
	remoteAddr net.Addr
}

func newFdConn(fd int, local, remote net.Addr) *fdConn {
	return &fdConn{fd: fd, localAddr: local, remoteAddr: remote}
}

func (c *fdConn) Read(b []byte) (int, error) {
	n, err := unix.Read(c.fd, b)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, &wouldBlockError{op: wouldBlockRead}
		}
		return 0, err
	}
	if n == 0 {
		return 0, errPeerClosed
	}
	return n, nil
}

func (c *fdConn) Write(b []byte) (int, error) {
	n, err := unix.Write(c.fd, b)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, &wouldBlockError{op: wouldBlockWrite}
		}
		return 0, err
	}
	return n, nil
}

func (c *fdConn) Close() error                       { return unix.Close(c.fd) }
func (c *fdConn) LocalAddr() net.Addr                { return c.localAddr }
func (c *fdConn) RemoteAddr() net.Addr               { return c.remoteAddr }
func (c *fdConn) SetDeadline(t time.Time) error      { return nil }
func (c *fdConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *fdConn) SetWriteDeadline(t time.Time) error { return nil }

var errPeerClosed = errors.New("curlmulti: peer closed connection")

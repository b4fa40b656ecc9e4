package curlmulti

import (
	"bytes"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dentiny/httpmux/httpmux/netinfo"
	"github.com/dentiny/httpmux/httpmux/poller"
	"github.com/dentiny/httpmux/httpmux/pools"
	"github.com/dentiny/httpmux/httpmux/tlsutil"
	"github.com/dentiny/httpmux/httpmux/transfer"
	"golang.org/x/net/http/httpguts"
	"golang.org/x/sys/unix"
)

// readScratchSize is the per-read scratch buffer size handed out by
// pools.GetBytes for both header and body reads; it is returned via
// pools.PutBytes immediately after its contents are copied into the
// Handle's own (non-pooled) header/body buffers.
const readScratchSize = 8192

// phase models one transfer's progress through a single HTTP hop.
// Redirects restart a Handle at phaseConnecting against a new URL
// rather than introducing a separate state.
type phase int

const (
	phaseConnecting phase = iota
	// phaseProxyConnectWrite/phaseProxyConnectRead only run for an
	// https:// request routed through a Proxy: they send the CONNECT
	// tunneling request and wait for its 2xx response before the TLS
	// handshake begins, the way a forward proxy expects to see an
	// opaque byte stream once the tunnel is established.
	phaseProxyConnectWrite
	phaseProxyConnectRead
	phaseHandshaking
	phaseWriting
	phaseReadHeaders
	phaseReadBody
	phaseDone
)

// TLSConfig bundles the per-transfer TLS tunables the facade exposes.
type TLSConfig struct {
	VerifyPeer bool
	CABundle   string // path to a PEM file; empty uses the platform default
}

// ProxyConfig bundles optional HTTP proxy settings. Username/Password,
// if set, are sent as a Proxy-Authorization: Basic header: on the
// request line itself for a plain HTTP target, or on the CONNECT
// tunneling request for an HTTPS one.
type ProxyConfig struct {
	Host     string
	Port     string
	Username string
	Password string
}

// Handle is the Go analogue of a native CURL easy handle: it owns one
// raw (or TLS-wrapped) socket driving one request/response exchange,
// with enough internal state to resume across readiness events.
type Handle struct {
	Req *transfer.Request

	Scheme          string
	Host            string
	Port            string
	Path            string
	FollowRedirects bool
	MaxRedirects    int
	KeepAlive       bool
	TLS             TLSConfig
	Proxy           *ProxyConfig

	ConnectTimeout time.Duration
	OverallTimeout time.Duration

	multi *Multi
	fd    int

	rawConn *fdConn
	tlsConn *tls.Conn

	phase phase

	writeBuf []byte
	writeOff int

	headerBuf []byte // unparsed bytes carried across reads during phaseReadHeaders

	contentLength     int64
	haveContentLength bool
	chunked           bool
	chunkRemaining    int64
	bodyRead          int64
	noBodyExpected    bool

	startedAt       time.Time
	connectDeadline time.Time
	overallDeadline time.Time

	redirectsUsed int
}

// NewHandle builds a Handle ready to be added to a Multi.
func NewHandle(req *transfer.Request) (*Handle, error) {
	h := &Handle{fd: -1}
	if err := h.Bind(req); err != nil {
		return nil, err
	}
	return h, nil
}

// Bind (re)initializes a Handle for req, its role when pulled from a
// HandlePool rather than freshly allocated via NewHandle.
func (h *Handle) Bind(req *transfer.Request) error {
	h.Req = req
	h.FollowRedirects = true
	h.MaxRedirects = 10
	h.KeepAlive = true
	h.fd = -1
	return h.setURL(req.URL)
}

// Reset clears a completed Handle's per-transfer state so it can be
// recycled by a HandlePool.
func (h *Handle) Reset() {
	*h = Handle{fd: -1}
}

// StartedAt returns when the transfer's non-blocking connect began, for
// an observability layer computing end-to-end latency.
func (h *Handle) StartedAt() time.Time { return h.startedAt }

func (h *Handle) setURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	h.Scheme = u.Scheme
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		if u.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}
	h.Host = host
	h.Port = port
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	h.Path = path
	h.Req.URL = u.String()
	return nil
}

// start initiates the non-blocking connect for the current hop. Any
// failure here is synchronous (DNS, socket()) and is reported
// immediately via the Multi's completion queue rather than through the
// Poller.
func (h *Handle) start(m *Multi) {
	h.multi = m
	h.phase = phaseConnecting
	h.startedAt = time.Now()
	if h.ConnectTimeout > 0 {
		h.connectDeadline = h.startedAt.Add(h.ConnectTimeout)
	}
	// The overall deadline is set on the first hop only, so redirect
	// hops share one budget for the whole exchange.
	if h.OverallTimeout > 0 && h.overallDeadline.IsZero() {
		h.overallDeadline = h.startedAt.Add(h.OverallTimeout)
	}

	dialHost, dialPort := h.Host, h.Port
	if h.Proxy != nil && h.Proxy.Host != "" {
		dialHost, dialPort = h.Proxy.Host, h.Proxy.Port
	}

	ipAddr, err := net.ResolveIPAddr("ip", dialHost)
	if err != nil {
		m.fail(h, transfer.KindDNS, err)
		return
	}

	fd, sa, local, remote, err := dialNonBlocking(ipAddr.IP, dialPort)
	if err != nil {
		m.fail(h, transfer.KindNetwork, err)
		return
	}

	h.rawConn = newFdConn(fd, local, remote)

	connErr := unix.Connect(fd, sa)
	if connErr == nil {
		// Rare immediate connect (e.g. to localhost).
		m.registerFd(h, fd, poller.Writable)
		return
	}
	if connErr != unix.EINPROGRESS {
		unix.Close(fd)
		m.fail(h, transfer.KindNetwork, connErr)
		return
	}
	m.registerFd(h, fd, poller.Writable)
}

func dialNonBlocking(ip net.IP, port string) (fd int, sa unix.Sockaddr, local, remote net.Addr, err error) {
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return -1, nil, nil, nil, err
	}

	if ip4 := ip.To4(); ip4 != nil {
		fd, err = unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
		if err != nil {
			return -1, nil, nil, nil, err
		}
		var addr [4]byte
		copy(addr[:], ip4)
		sa = &unix.SockaddrInet4{Port: portNum, Addr: addr}
	} else {
		fd, err = unix.Socket(unix.AF_INET6, unix.SOCK_STREAM, 0)
		if err != nil {
			return -1, nil, nil, nil, err
		}
		var addr [16]byte
		copy(addr[:], ip.To16())
		sa = &unix.SockaddrInet6{Port: portNum, Addr: addr}
	}

	if err = unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, nil, nil, nil, err
	}
	unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)

	remote = &net.TCPAddr{IP: ip, Port: portNum}
	return fd, sa, nil, remote, nil
}

// sockaddrToTCPAddr converts the kernel-assigned local address/port a
// non-blocking connect() only reveals via getsockname() after the fact.
// dialNonBlocking can't fill this in itself since the socket isn't bound
// to anything until connect() actually runs.
func sockaddrToTCPAddr(sa unix.Sockaddr) net.Addr {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: net.IP(a.Addr[:]), Port: a.Port}
	case *unix.SockaddrInet6:
		return &net.TCPAddr{IP: net.IP(a.Addr[:]), Port: a.Port}
	default:
		return nil
	}
}

// onReady advances the Handle's state machine in response to a
// readiness event, looping while progress can be made without
// blocking. It never returns an error directly; terminal conditions
// are reported through Multi.fail / Multi.complete.
func (h *Handle) onReady(ready poller.Mask) {
	for {
		switch h.phase {
		case phaseConnecting:
			if !h.finishConnect() {
				return
			}
		case phaseProxyConnectWrite:
			if !h.stepProxyConnectWrite() {
				return
			}
		case phaseProxyConnectRead:
			if !h.stepProxyConnectRead() {
				return
			}
		case phaseHandshaking:
			if !h.stepHandshake() {
				return
			}
		case phaseWriting:
			if !h.stepWrite() {
				return
			}
		case phaseReadHeaders:
			if !h.stepReadHeaders() {
				return
			}
		case phaseReadBody:
			if !h.stepReadBody() {
				return
			}
		case phaseDone:
			return
		}
	}
}

// finishConnect checks SO_ERROR after a writable event signals the
// non-blocking connect() attempt settled one way or the other.
// Returns true if the caller should continue the state machine loop.
func (h *Handle) finishConnect() bool {
	errno, err := unix.GetsockoptInt(h.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		h.multi.fail(h, transfer.KindNetwork, err)
		return false
	}
	if errno != 0 {
		h.multi.fail(h, transfer.KindNetwork, unix.Errno(errno))
		return false
	}

	if sa, err := unix.Getsockname(h.fd); err == nil {
		h.rawConn.localAddr = sockaddrToTCPAddr(sa)
	}

	if h.Req.ConnInfoSink != nil {
		h.Req.ConnInfoSink(netinfo.Inspect(h.rawConn))
	}

	if h.Scheme == "https" {
		if h.Proxy != nil && h.Proxy.Host != "" {
			return h.beginProxyConnect()
		}
		return h.beginHandshake()
	}

	return h.beginWrite()
}

func (h *Handle) beginHandshake() bool {
	cfg, err := tlsutil.Build(tlsutil.Config{
		ServerName: h.Host,
		VerifyPeer: h.TLS.VerifyPeer,
		CABundle:   h.TLS.CABundle,
	})
	if err != nil {
		h.multi.fail(h, transfer.KindTLS, err)
		return false
	}
	h.tlsConn = tls.Client(h.rawConn, cfg)
	h.phase = phaseHandshaking
	return true
}

func (h *Handle) stepHandshake() bool {
	err := h.tlsConn.Handshake()
	if err == nil {
		return h.beginWrite()
	}
	if op, ok := asWouldBlock(err); ok {
		h.setInterestForOp(op)
		return false
	}
	h.multi.fail(h, transfer.KindTLS, err)
	return false
}

// beginProxyConnect starts the CONNECT tunnel handshake that an https://
// request must complete against h.Proxy before any TLS byte is written:
// the proxy otherwise has no way to know which origin to blindly forward
// bytes to.
func (h *Handle) beginProxyConnect() bool {
	h.writeBuf = buildConnectRequest(h)
	h.writeOff = 0
	h.phase = phaseProxyConnectWrite
	h.multi.modifyFd(h, poller.Writable)
	return true
}

func buildConnectRequest(h *Handle) []byte {
	target := net.JoinHostPort(h.Host, h.Port)
	var b bytes.Buffer
	fmt.Fprintf(&b, "CONNECT %s HTTP/1.1\r\n", target)
	fmt.Fprintf(&b, "Host: %s\r\n", target)
	if auth := proxyAuthHeader(h.Proxy); auth != "" {
		fmt.Fprintf(&b, "Proxy-Authorization: %s\r\n", auth)
	}
	b.WriteString("Proxy-Connection: Keep-Alive\r\n")
	b.WriteString("\r\n")
	return b.Bytes()
}

// proxyAuthHeader builds a "Basic ..." credential for p, or "" if p has
// no username configured.
func proxyAuthHeader(p *ProxyConfig) string {
	if p == nil || p.Username == "" {
		return ""
	}
	creds := p.Username + ":" + p.Password
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(creds))
}

func (h *Handle) stepProxyConnectWrite() bool {
	n, err := h.rawConn.Write(h.writeBuf[h.writeOff:])
	if err != nil {
		if op, ok := asWouldBlock(err); ok {
			h.setInterestForOp(op)
			return false
		}
		h.multi.fail(h, transfer.KindNetwork, err)
		return false
	}
	h.writeOff += n
	if h.writeOff < len(h.writeBuf) {
		return true
	}

	h.writeBuf = nil
	h.phase = phaseProxyConnectRead
	h.multi.modifyFd(h, poller.Readable)
	return true
}

// stepProxyConnectRead scans the raw (pre-TLS) connection for the
// proxy's CONNECT response, reusing headerBuf as scratch the way
// stepReadHeaders does, but stopping short of feeding any of it into
// Req's header sink; the proxy's own status line and headers aren't
// part of the transfer's response.
func (h *Handle) stepProxyConnectRead() bool {
	buf := pools.GetBytes(readScratchSize)
	n, err := h.rawConn.Read(buf)
	if err != nil {
		pools.PutBytes(buf)
		if op, ok := asWouldBlock(err); ok {
			h.setInterestForOp(op)
			return false
		}
		h.multi.fail(h, transfer.KindNetwork, err)
		return false
	}
	h.headerBuf = append(h.headerBuf, buf[:n]...)
	pools.PutBytes(buf)

	idx := bytes.Index(h.headerBuf, []byte("\r\n\r\n"))
	if idx < 0 {
		return true
	}
	statusLine := string(bytes.SplitN(h.headerBuf[:idx], []byte("\r\n"), 2)[0])
	h.headerBuf = nil

	fields := strings.Fields(statusLine)
	if len(fields) < 2 {
		h.multi.fail(h, transfer.KindProtocol, fmt.Errorf("curlmulti: malformed CONNECT response %q", statusLine))
		return false
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil || code < 200 || code >= 300 {
		h.multi.fail(h, transfer.KindProtocol, fmt.Errorf("curlmulti: proxy CONNECT failed: %s", statusLine))
		return false
	}

	return h.beginHandshake()
}

func (h *Handle) beginWrite() bool {
	h.writeBuf = buildRequestLine(h)
	h.writeOff = 0
	h.phase = phaseWriting
	h.multi.modifyFd(h, poller.Writable)
	return true
}

func buildRequestLine(h *Handle) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %s HTTP/1.1\r\n", h.Req.Method, h.Path)
	fmt.Fprintf(&b, "Host: %s\r\n", h.Host)
	for k, v := range h.Req.Headers {
		// A header whose name or value isn't a valid HTTP/1.1 token would
		// either be rejected by the peer or, worse, let a caller smuggle
		// a second request line through a '\r\n' in the value. Drop it
		// rather than writing malformed bytes onto the wire.
		if !httpguts.ValidHeaderFieldName(k) || !httpguts.ValidHeaderFieldValue(v) {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\r\n", k, v)
	}
	if _, ok := h.Req.Headers["Accept-Encoding"]; !ok {
		b.WriteString("Accept-Encoding: identity\r\n")
	}
	if !h.KeepAlive {
		b.WriteString("Connection: close\r\n")
	}
	if h.Req.ContentType != "" {
		fmt.Fprintf(&b, "Content-Type: %s\r\n", h.Req.ContentType)
	}
	if len(h.Req.Body) > 0 {
		fmt.Fprintf(&b, "Content-Length: %d\r\n", len(h.Req.Body))
	}
	// A proxied plain-HTTP request still talks to the proxy's own socket,
	// so its Proxy-Authorization rides along on the request itself. A
	// proxied HTTPS request tunnels through CONNECT instead (see
	// buildConnectRequest), where the same header is sent once up front.
	if h.Scheme != "https" {
		if auth := proxyAuthHeader(h.Proxy); auth != "" {
			fmt.Fprintf(&b, "Proxy-Authorization: %s\r\n", auth)
		}
	}
	b.WriteString("\r\n")
	b.Write(h.Req.Body)
	return b.Bytes()
}

func (h *Handle) stepWrite() bool {
	n, err := h.write(h.writeBuf[h.writeOff:])
	if err != nil {
		if op, ok := asWouldBlock(err); ok {
			h.setInterestForOp(op)
			return false
		}
		h.multi.fail(h, transfer.KindNetwork, err)
		return false
	}
	h.writeOff += n
	if h.writeOff < len(h.writeBuf) {
		return true
	}

	h.writeBuf = nil
	h.phase = phaseReadHeaders
	h.multi.modifyFd(h, poller.Readable)
	return true
}

func (h *Handle) stepReadHeaders() bool {
	buf := pools.GetBytes(readScratchSize)
	n, err := h.read(buf)
	if err != nil {
		pools.PutBytes(buf)
		if op, ok := asWouldBlock(err); ok {
			h.setInterestForOp(op)
			return false
		}
		h.multi.fail(h, transfer.KindNetwork, err)
		return false
	}
	h.headerBuf = append(h.headerBuf, buf[:n]...)
	pools.PutBytes(buf)

	for {
		idx := bytes.IndexByte(h.headerBuf, '\n')
		if idx < 0 {
			return true
		}
		line := h.headerBuf[:idx+1]
		h.headerBuf = h.headerBuf[idx+1:]

		trimmed := strings.TrimRight(string(line), "\r\n")
		if trimmed == "" {
			return h.finishHeaders()
		}
		h.Req.IngestHeaderLine(string(line))
	}
}

func (h *Handle) finishHeaders() bool {
	grp := h.Req.LastGroup()
	status := parseStatusCode(grp)

	if cl, ok := grp.Get("Content-Length"); ok {
		if v, err := strconv.ParseInt(strings.TrimSpace(cl), 10, 64); err == nil {
			h.contentLength = v
			h.haveContentLength = true
		}
	}
	if te, ok := grp.Get("Transfer-Encoding"); ok && strings.Contains(strings.ToLower(te), "chunked") {
		h.chunked = true
	}

	h.noBodyExpected = h.Req.Method == "HEAD" || status == 204 || status == 304 || (status >= 100 && status < 200)

	if len(h.headerBuf) > 0 && !h.noBodyExpected {
		if h.chunked {
			// headerBuf already holds the leftover bytes read past the
			// blank line; feedChunked consumes h.headerBuf in place, so
			// passing nil here avoids appending it to itself.
			h.feedChunked(nil)
		} else {
			h.Req.AppendBody(h.headerBuf)
			h.headerBuf = nil
		}
		if h.bodyCompleteChunkedAware() {
			return h.finishHop(status)
		}
	}

	if h.noBodyExpected || (h.haveContentLength && h.contentLength == 0) {
		return h.finishHop(status)
	}

	h.phase = phaseReadBody
	return true
}

func (h *Handle) bodyComplete() bool {
	if h.chunked {
		return false // chunk terminator detection happens in stepReadBody
	}
	if h.haveContentLength {
		return int64(len(h.Req.ResponseBody())) >= h.contentLength
	}
	return false
}

func (h *Handle) stepReadBody() bool {
	buf := pools.GetBytes(readScratchSize)
	n, err := h.read(buf)
	if err != nil {
		pools.PutBytes(buf)
		if op, ok := asWouldBlock(err); ok {
			h.setInterestForOp(op)
			return false
		}
		if err == errPeerClosed && !h.haveContentLength && !h.chunked {
			// Read-until-close is a valid terminator when the server
			// gave neither Content-Length nor chunked encoding.
			return h.finishHop(parseStatusCode(h.Req.LastGroup()))
		}
		h.multi.fail(h, transfer.KindNetwork, err)
		return false
	}

	if h.chunked {
		h.feedChunked(buf[:n])
	} else {
		h.Req.AppendBody(buf[:n])
	}
	pools.PutBytes(buf)

	if h.bodyCompleteChunkedAware() {
		return h.finishHop(parseStatusCode(h.Req.LastGroup()))
	}
	return true
}

func (h *Handle) bodyCompleteChunkedAware() bool {
	if h.chunked {
		return h.chunkRemaining == chunkDone
	}
	return h.bodyComplete()
}

const chunkDone = -1

// feedChunked is a minimal chunked-transfer decoder: it strips chunk
// size lines and trailing CRLFs, appending only the payload bytes.
func (h *Handle) feedChunked(data []byte) {
	h.headerBuf = append(h.headerBuf, data...)
	for {
		if h.chunkRemaining == chunkDone {
			return
		}
		if h.chunkRemaining > 0 {
			take := h.chunkRemaining
			if int64(len(h.headerBuf)) < take {
				take = int64(len(h.headerBuf))
			}
			if take == 0 {
				return // no data left to consume; wait for more
			}
			h.Req.AppendBody(h.headerBuf[:take])
			h.headerBuf = h.headerBuf[take:]
			h.chunkRemaining -= take
			if h.chunkRemaining == 0 {
				// consume trailing CRLF after the chunk data
				if len(h.headerBuf) >= 2 && h.headerBuf[0] == '\r' && h.headerBuf[1] == '\n' {
					h.headerBuf = h.headerBuf[2:]
				} else {
					return // wait for more data
				}
			}
			continue
		}

		idx := bytes.IndexByte(h.headerBuf, '\n')
		if idx < 0 {
			return
		}
		line := bytes.TrimRight(h.headerBuf[:idx+1], "\r\n")
		h.headerBuf = h.headerBuf[idx+1:]

		size, err := strconv.ParseInt(strings.TrimSpace(string(line)), 16, 64)
		if err != nil {
			h.multi.fail(h, transfer.KindProtocol, err)
			h.chunkRemaining = chunkDone
			return
		}
		if size == 0 {
			h.chunkRemaining = chunkDone
			return
		}
		h.chunkRemaining = size
	}
}

// finishHop completes the current HTTP/1.1 exchange: either it is a
// terminal response, or (redirect following enabled, a Location header
// present, and hops remain) it restarts the state machine against the
// new URL, preserving the TransferRequest's accumulated header groups.
func (h *Handle) finishHop(status int) bool {
	if h.FollowRedirects && isRedirectStatus(status) && h.redirectsUsed < h.MaxRedirects {
		if loc, ok := h.Req.LastGroup().Get("Location"); ok && loc != "" {
			h.redirectsUsed++
			h.closeConn()
			if err := h.setURL(resolveLocation(h.Req.URL, loc)); err != nil {
				h.multi.fail(h, transfer.KindProtocol, err)
				return false
			}
			h.start(h.multi)
			return false
		}
	}

	h.phase = phaseDone
	h.multi.complete(h, status)
	return false
}

func isRedirectStatus(status int) bool {
	switch status {
	case 301, 302, 303, 307, 308:
		return true
	}
	return false
}

func resolveLocation(base, location string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return location
	}
	locURL, err := url.Parse(location)
	if err != nil {
		return location
	}
	return baseURL.ResolveReference(locURL).String()
}

func parseStatusCode(grp transfer.HeaderGroup) int {
	if grp == nil {
		return 0
	}
	line, ok := grp.Get(transfer.ResponseStatusKey)
	if !ok {
		return 0
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	code, _ := strconv.Atoi(fields[1])
	return code
}

func (h *Handle) setInterestForOp(op wouldBlockOp) {
	if op == wouldBlockRead {
		h.multi.modifyFd(h, poller.Readable)
	} else {
		h.multi.modifyFd(h, poller.Writable)
	}
}

func (h *Handle) read(buf []byte) (int, error) {
	if h.tlsConn != nil {
		return h.tlsConn.Read(buf)
	}
	return h.rawConn.Read(buf)
}

func (h *Handle) write(buf []byte) (int, error) {
	if h.tlsConn != nil {
		return h.tlsConn.Write(buf)
	}
	return h.rawConn.Write(buf)
}

func (h *Handle) closeConn() {
	h.multi.removeFd(h)
	if h.rawConn != nil {
		h.rawConn.Close()
	}
	h.tlsConn = nil
	h.rawConn = nil
	h.headerBuf = nil
	h.contentLength = 0
	h.haveContentLength = false
	h.chunked = false
	h.chunkRemaining = 0
}

// checkDeadline reports whether either the connect-phase or the overall
// deadline has passed; Multi.CheckDeadlines fails such a Handle with
// KindTimeout.
func (h *Handle) checkDeadline(now time.Time) bool {
	if h.phase == phaseConnecting && !h.connectDeadline.IsZero() && now.After(h.connectDeadline) {
		return true
	}
	if !h.overallDeadline.IsZero() && now.After(h.overallDeadline) {
		return true
	}
	return false
}

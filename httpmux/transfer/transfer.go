// Package transfer defines the unit of work the engine multiplexes: one
// HTTP exchange in flight, its accumulating body, its redirect-aware
// header groups, and the one-shot channel its caller blocks on.
package transfer

import (
	"strings"

	"github.com/dentiny/httpmux/httpmux/netinfo"
)

// ResponseStatusKey is the synthetic key under which each hop's raw
// status line is stored in its header group.
const ResponseStatusKey = "__RESPONSE_STATUS__"

// HeaderGroup is one set of response headers belonging to one HTTP
// response line. A redirected transfer produces several groups in
// order; the last one is always "current" while headers are being
// collected.
//
// A plain map (rather than stdlib http.Header) is used deliberately:
// http.Header's Set/Get canonicalize keys via
// textproto.CanonicalMIMEHeaderKey, which would mangle the literal
// ResponseStatusKey sentinel that callers match on byte-for-byte.
type HeaderGroup map[string]string

// Get performs a case-insensitive lookup, matching the "content-length"
// style checks the facade needs to make (e.g. to cross-check bytes
// received), while Insert/Get on ResponseStatusKey stay exact-case.
func (g HeaderGroup) Get(key string) (string, bool) {
	if v, ok := g[key]; ok {
		return v, true
	}
	lower := strings.ToLower(key)
	for k, v := range g {
		if strings.ToLower(k) == lower {
			return v, true
		}
	}
	return "", false
}

// Insert stores key/value, overwriting any prior value for key.
func (g HeaderGroup) Insert(key, value string) {
	g[key] = value
}

// Response is what the Engine publishes through a TransferRequest's
// one-shot slot: either a successful exchange (status/body/headers
// populated, Error empty) or a failed one (status 0, body/headers
// empty, Error non-empty).
type Response struct {
	URL     string
	Status  int
	Body    []byte
	Headers HeaderGroup
	Error   string
	Kind    ErrKind
}

// Sink receives each newly-appended region of the response body as it
// arrives. Implementations must not retain p past the call.
type Sink func(p []byte)

// Request is one HTTP exchange in flight: configured by the facade,
// owned by the Engine from submission until the one-shot slot is
// fulfilled.
type Request struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    []byte

	// ContentType, when non-empty, is written as a Content-Type header
	// by the transport layer. The client facade defaults this to
	// "application/octet-stream" for POST/PUT calls that carry a body
	// and don't specify one.
	ContentType string

	// Sink, if non-nil, is invoked once per appended body chunk in
	// addition to the chunk being appended to the accumulating buffer.
	Sink Sink

	// OnComplete, if non-nil, is invoked with the final Response on a
	// worker-pool goroutine instead of (in addition to) the Done()
	// channel receive, so a slow callback never stalls the engine loop.
	OnComplete func(*Response)

	ConnectTimeoutMs int
	OverallTimeoutMs int

	// TLS/redirect/connection-reuse knobs the facade configures via its
	// Option functions; the transport layer (curlmulti.Handle) reads
	// these when a Request is attached. Kept as plain fields rather than
	// importing curlmulti's config types, since curlmulti already
	// depends on this package.
	InsecureSkipVerify bool
	CABundlePath       string
	FollowRedirects    bool
	MaxRedirects       int
	KeepAlive          bool
	ProxyHost          string
	ProxyPort          string
	ProxyUsername      string
	ProxyPassword      string

	// ConnInfoSink, if non-nil, is invoked once per hop as soon as the
	// underlying connection is established, letting a caller observe
	// which remote endpoint a transfer actually reached (useful behind
	// a proxy, DNS round-robin, or multi-hop redirect). Purely an
	// observer hook: the engine and transport never read it back.
	ConnInfoSink func(netinfo.ConnInfo)

	respBody []byte
	groups   []HeaderGroup

	done chan *Response
}

// New constructs a Request ready for submission to the Engine, with the
// facade's usual defaults (redirects followed, keep-alive on, peer
// verification on). The one-shot result channel is created buffered(1)
// so the Engine never blocks publishing even if the caller has not yet
// reached its receive.
func New(method, url string) *Request {
	return &Request{
		Method:          method,
		URL:             url,
		FollowRedirects: true,
		MaxRedirects:    10,
		KeepAlive:       true,
		done:            make(chan *Response, 1),
	}
}

// AppendBody implements the body sink contract: each chunk delivered by
// the transport is appended to the accumulating body buffer, and if a
// streaming Sink is attached, it is invoked with the newly-appended
// region before the next chunk can overwrite the caller's view of it.
func (r *Request) AppendBody(chunk []byte) {
	start := len(r.respBody)
	r.respBody = append(r.respBody, chunk...)
	if r.Sink != nil {
		r.Sink(r.respBody[start:])
	}
}

// IngestHeaderLine feeds one raw response header line into the
// collector.
//
// A line beginning with "HTTP/" opens a new header group (modelling a
// redirect hop) and is stored under ResponseStatusKey in that new
// group; it also discards the body accumulated for the previous hop, so
// ResponseBody only ever holds the current hop's body. Lines of the form "name: value" are inserted into the current
// (last) group, with one leading space after the colon trimmed and a
// trailing "\r\n" stripped. Lines without a colon, other than the
// "HTTP/" status line, are ignored.
func (r *Request) IngestHeaderLine(line string) {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")

	if strings.HasPrefix(line, "HTTP/") {
		g := HeaderGroup{}
		g.Insert(ResponseStatusKey, line)
		r.groups = append(r.groups, g)
		// A new status line starts a new response: body bytes from the
		// previous hop (e.g. a redirect's HTML stub) are not part of it.
		r.respBody = nil
		return
	}

	if len(r.groups) == 0 {
		// A header line arrived before any status line; nothing to
		// attach it to.
		return
	}

	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return
	}

	name := line[:colon]
	value := line[colon+1:]
	if len(value) > 0 && value[0] == ' ' {
		value = value[1:]
	}

	r.groups[len(r.groups)-1].Insert(name, value)
}

// Groups returns the redirect-aware header groups collected so far, in
// order. The returned slice must not be mutated by the caller.
func (r *Request) Groups() []HeaderGroup {
	return r.groups
}

// LastGroup returns the most recently opened header group, or nil if
// no status line has been observed yet.
func (r *Request) LastGroup() HeaderGroup {
	if len(r.groups) == 0 {
		return nil
	}
	return r.groups[len(r.groups)-1]
}

// ResponseBody returns the response bytes accumulated so far.
func (r *Request) ResponseBody() []byte { return r.respBody }

// Done returns the one-shot channel the Engine publishes the final
// Response through. Exactly one value is ever sent.
func (r *Request) Done() <-chan *Response { return r.done }

// Publish fulfills the one-shot slot. It must be called exactly once,
// by the Engine goroutine, per submitted Request.
func (r *Request) Publish(resp *Response) {
	r.done <- resp
}

// IsErrorStatus reports whether status represents an application-level
// failure (4xx/5xx). The engine never makes this classification
// automatically; a 4xx/5xx transfer still completes without an
// error-kind. It is offered for a caller-side facade that wants it.
func IsErrorStatus(status int) bool {
	return status >= 400
}

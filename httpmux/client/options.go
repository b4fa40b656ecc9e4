package client

import (
	"time"

	"github.com/dentiny/httpmux/httpmux/netinfo"
)

// Option configures a Client at construction time.
type Option func(*Client)

// WithBearerToken sets an Authorization: Bearer <token> header on
// every request issued by the client.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.defaultHeaders["Authorization"] = "Bearer " + token }
}

// WithHeader sets a default header sent with every request, overridden
// per-call if the same key is passed to Do/Get/Post/etc.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.defaultHeaders[key] = value }
}

// WithConnectTimeout bounds how long the non-blocking TCP connect phase
// of each hop may take. The blocking DNS lookup that precedes it and the
// TLS handshake that follows it are not bounded by this timeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Client) { c.connectTimeout = d }
}

// WithOverallTimeout bounds the entire request/response exchange,
// including any redirect hops.
func WithOverallTimeout(d time.Duration) Option {
	return func(c *Client) { c.overallTimeout = d }
}

// WithoutPeerVerification disables TLS certificate verification. Use
// only against known-trusted endpoints (e.g. integration tests).
func WithoutPeerVerification() Option {
	return func(c *Client) { c.insecureSkipVerify = true }
}

// WithCABundle overrides the platform default CA bundle discovery with
// an explicit PEM file path.
func WithCABundle(path string) Option {
	return func(c *Client) { c.caBundlePath = path }
}

// WithoutRedirects disables automatic redirect following.
func WithoutRedirects() Option {
	return func(c *Client) { c.followRedirects = false }
}

// WithMaxRedirects caps how many redirect hops a single request may
// follow; once the cap is reached, the redirect response itself is
// returned as the result. n <= 0 keeps the default of 10.
func WithMaxRedirects(n int) Option {
	return func(c *Client) { c.maxRedirects = n }
}

// WithoutKeepAlive sends "Connection: close" on every request.
func WithoutKeepAlive() Option {
	return func(c *Client) { c.keepAlive = false }
}

// WithProxy routes every request through an HTTP proxy.
func WithProxy(host, port string) Option {
	return func(c *Client) { c.proxyHost, c.proxyPort = host, port }
}

// WithProxyAuth sets Basic credentials for the configured proxy.
func WithProxyAuth(username, password string) Option {
	return func(c *Client) { c.proxyUsername, c.proxyPassword = username, password }
}

// WithInterceptor appends an Interceptor to the client's pipeline, run
// on every request before it is submitted to the engine.
func WithInterceptor(i Interceptor) Option {
	return func(c *Client) { c.pipeline.Use(i) }
}

// WithConnInfoSink registers sink to receive a netinfo.ConnInfo for
// every connection the client's transfers establish, one per hop. The
// sink runs on the engine goroutine and must not block; a caller
// aggregating endpoints (e.g. into a netinfo.Recorder) should do only
// that and defer reporting elsewhere.
func WithConnInfoSink(sink func(netinfo.ConnInfo)) Option {
	return func(c *Client) { c.connInfoSink = sink }
}


// Package client is the caller-facing HTTP facade: a thin, pipelined
// wrapper over the shared engine that builds a transfer.Request from
// method/URL/body/headers, runs it through a client-configured
// Interceptor pipeline, and submits it to the engine singleton.
package client

import (
	"context"
	"net/url"
	"time"

	"github.com/dentiny/httpmux/httpmux/engine"
	"github.com/dentiny/httpmux/httpmux/netinfo"
	"github.com/dentiny/httpmux/httpmux/transfer"
)

// Client is a configured view over the shared Engine: its Option set
// (timeouts, TLS, redirects, proxy, headers) is applied to every
// Request it submits.
type Client struct {
	eng *engine.Engine

	defaultHeaders map[string]string

	connectTimeout, overallTimeout time.Duration

	insecureSkipVerify bool
	caBundlePath       string

	followRedirects bool
	maxRedirects    int
	keepAlive       bool

	proxyHost, proxyPort         string
	proxyUsername, proxyPassword string

	connInfoSink func(netinfo.ConnInfo)

	pipeline *Pipeline
}

// New builds a Client backed by the process-wide engine singleton,
// starting it on first use.
func New(opts ...Option) (*Client, error) {
	eng, err := engine.Get()
	if err != nil {
		return nil, err
	}

	c := &Client{
		eng:             eng,
		defaultHeaders:  make(map[string]string),
		followRedirects: true,
		maxRedirects:    10,
		keepAlive:       true,
		pipeline:        NewPipeline(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// defaultBodyContentType is what the transport writes for a POST/PUT
// with a non-empty body whose caller didn't supply one.
const defaultBodyContentType = "application/octet-stream"

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) (*transfer.Response, error) {
	return c.do(ctx, "GET", rawURL, nil, "", headers, nil)
}

// GetStream issues a GET request with a per-chunk streaming handler
// attached: sink is invoked once for every newly-arrived region of the
// response body, in addition to the full body being accumulated on the
// returned Response as usual.
func (c *Client) GetStream(ctx context.Context, rawURL string, headers map[string]string, sink transfer.Sink) (*transfer.Response, error) {
	return c.do(ctx, "GET", rawURL, nil, "", headers, sink)
}

// Head issues a HEAD request.
func (c *Client) Head(ctx context.Context, rawURL string, headers map[string]string) (*transfer.Response, error) {
	return c.do(ctx, "HEAD", rawURL, nil, "", headers, nil)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, rawURL string, headers map[string]string) (*transfer.Response, error) {
	return c.do(ctx, "DELETE", rawURL, nil, "", headers, nil)
}

// Post issues a POST request with the given body. When body is
// non-empty, contentType is sent as the Content-Type header, defaulting
// to "application/octet-stream" when left empty; an empty body is sent
// with no Content-Type.
func (c *Client) Post(ctx context.Context, rawURL string, body []byte, contentType string, headers map[string]string) (*transfer.Response, error) {
	return c.do(ctx, "POST", rawURL, body, contentType, headers, nil)
}

// Put issues a PUT request with the given body. When body is non-empty,
// contentType is sent as the Content-Type header, defaulting to
// "application/octet-stream" when left empty; an empty body is sent
// with no Content-Type.
func (c *Client) Put(ctx context.Context, rawURL string, body []byte, contentType string, headers map[string]string) (*transfer.Response, error) {
	return c.do(ctx, "PUT", rawURL, body, contentType, headers, nil)
}

// Do builds, pipelines, and submits a Request for an arbitrary method. It
// defaults a Content-Type only for a POST or PUT with a non-empty body;
// callers needing one for another body-bearing method should set it via
// headers directly.
func (c *Client) Do(ctx context.Context, method, rawURL string, body []byte, headers map[string]string) (*transfer.Response, error) {
	return c.do(ctx, method, rawURL, body, "", headers, nil)
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, contentType string, headers map[string]string, sink transfer.Sink) (*transfer.Response, error) {
	req := transfer.New(method, rawURL)
	req.Body = body
	req.Headers = c.mergeHeaders(headers)
	if len(body) > 0 {
		if contentType == "" && (method == "POST" || method == "PUT") {
			contentType = defaultBodyContentType
		}
		req.ContentType = contentType
	}
	req.Sink = sink

	req.ConnectTimeoutMs = int(c.connectTimeout.Milliseconds())
	req.OverallTimeoutMs = int(c.overallTimeout.Milliseconds())
	req.InsecureSkipVerify = c.insecureSkipVerify
	req.CABundlePath = c.caBundlePath
	req.FollowRedirects = c.followRedirects
	req.MaxRedirects = c.maxRedirects
	req.KeepAlive = c.keepAlive
	req.ProxyHost = c.proxyHost
	req.ProxyPort = c.proxyPort
	req.ProxyUsername = c.proxyUsername
	req.ProxyPassword = c.proxyPassword
	req.ConnInfoSink = c.connInfoSink

	if err := c.pipeline.Execute(req); err != nil {
		return nil, err
	}

	return c.eng.Perform(ctx, req)
}

func (c *Client) mergeHeaders(perCall map[string]string) map[string]string {
	merged := make(map[string]string, len(c.defaultHeaders)+len(perCall))
	for k, v := range c.defaultHeaders {
		merged[k] = v
	}
	for k, v := range perCall {
		merged[k] = v
	}
	return merged
}

// WithQuery percent-encodes params onto base using net/url.Values.
func WithQuery(base string, params map[string]string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

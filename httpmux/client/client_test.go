package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dentiny/httpmux/httpmux/netinfo"
)

func TestClient_GetAndPost(t *testing.T) {
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "GET":
			w.Header().Set("X-Echo", r.URL.Query().Get("name"))
			w.WriteHeader(200)
			w.Write([]byte("hi"))
		case "POST":
			gotContentType = r.Header.Get("Content-Type")
			buf, _ := io.ReadAll(r.Body)
			w.WriteHeader(201)
			w.Write(buf)
		}
	}))
	defer srv.Close()

	c, err := New(WithConnectTimeout(2*time.Second), WithOverallTimeout(3*time.Second))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()

	getURL, err := WithQuery(srv.URL+"/greet", map[string]string{"name": "ada"})
	if err != nil {
		t.Fatalf("WithQuery: %v", err)
	}
	resp, err := c.Get(ctx, getURL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.Status != 200 || string(resp.Body) != "hi" {
		t.Fatalf("GET resp = %+v", resp)
	}
	if v, ok := resp.Headers.Get("X-Echo"); !ok || v != "ada" {
		t.Fatalf("X-Echo = %q ok=%v, want ada", v, ok)
	}

	resp, err = c.Post(ctx, srv.URL+"/items", []byte("payload"), "", nil)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if resp.Status != 201 || string(resp.Body) != "payload" {
		t.Fatalf("POST resp = %+v", resp)
	}
	if gotContentType != "application/octet-stream" {
		t.Fatalf("Content-Type = %q, want default application/octet-stream", gotContentType)
	}
}

func TestClient_GetStreamInvokesSinkPerChunk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("hello "))
		w.(http.Flusher).Flush()
		w.Write([]byte("world"))
	}))
	defer srv.Close()

	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var streamed []byte
	resp, err := c.GetStream(context.Background(), srv.URL+"/", nil, func(p []byte) {
		streamed = append(streamed, p...)
	})
	if err != nil {
		t.Fatalf("GetStream: %v", err)
	}
	if string(resp.Body) != "hello world" {
		t.Fatalf("resp.Body = %q", resp.Body)
	}
	if string(streamed) != "hello world" {
		t.Fatalf("streamed = %q, want %q", streamed, "hello world")
	}
}

func TestClient_BearerTokenHeaderSent(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(200)
	}))
	defer srv.Close()

	c, err := New(WithBearerToken("secret-token"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Get(context.Background(), srv.URL+"/", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
}

func TestClient_RateLimiterInterceptorRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer srv.Close()

	c, err := New(WithInterceptor(RateLimiter(1)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	if _, err := c.Get(ctx, srv.URL+"/", nil); err != nil {
		t.Fatalf("first request should pass: %v", err)
	}
	if _, err := c.Get(ctx, srv.URL+"/", nil); err == nil {
		t.Fatal("second request within the same window should be rate limited")
	}
}

func TestClient_WithoutRedirectsStopsAtFirstHop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/start" {
			http.Redirect(w, r, "/end", http.StatusFound)
			return
		}
		w.WriteHeader(200)
		w.Write([]byte("end"))
	}))
	defer srv.Close()

	c, err := New(WithoutRedirects())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := c.Get(context.Background(), srv.URL+"/start", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.Status != 302 {
		t.Fatalf("status = %d, want 302 (redirect not followed)", resp.Status)
	}
}

func TestClient_ConnInfoSinkObservesRemoteEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer srv.Close()

	infoCh := make(chan netinfo.ConnInfo, 1)
	c, err := New(WithConnInfoSink(func(ci netinfo.ConnInfo) {
		select {
		case infoCh <- ci:
		default:
		}
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := c.Get(context.Background(), srv.URL+"/", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}

	select {
	case ci := <-infoCh:
		if ci.RemoteIP != "127.0.0.1" {
			t.Fatalf("RemoteIP = %q, want 127.0.0.1", ci.RemoteIP)
		}
		if ci.RemotePort == 0 || ci.LocalPort == 0 {
			t.Fatalf("ports should be non-zero: %+v", ci)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("ConnInfoSink never invoked")
	}
}

package curlmulti

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dentiny/httpmux/httpmux/poller"
	"github.com/dentiny/httpmux/httpmux/transfer"
)

// driveToCompletion wires a Multi to a real Poller and pumps the loop
// (the shape the Engine will run in its own goroutine) until every
// attached handle has produced a completion or the deadline passes.
func driveToCompletion(t *testing.T, m *Multi, p poller.Poller, want int) []Completion {
	t.Helper()
	var got []Completion
	deadline := time.Now().Add(5 * time.Second)
	events := make([]poller.Event, 16)

	for len(got) < want {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d completions, got %d", want, len(got))
		}
		n, err := p.Wait(events, 200)
		if err != nil {
			t.Fatalf("poller.Wait: %v", err)
		}
		for i := 0; i < n; i++ {
			m.SocketAction(events[i].Fd, events[i].Ready)
		}
		m.CheckDeadlines(time.Now())
		for {
			c, ok := m.InfoRead()
			if !ok {
				break
			}
			got = append(got, c)
		}
	}
	return got
}

func newTestMulti(t *testing.T, p poller.Poller) *Multi {
	t.Helper()
	socketCB := func(ch SocketChange) {
		if ch.Remove {
			p.Remove(ch.Fd)
			return
		}
		if err := p.Add(ch.Fd, ch.Mask); err != nil {
			_ = p.Modify(ch.Fd, ch.Mask)
		}
	}
	return NewMulti(socketCB, func(int64) {})
}

func TestMulti_SimpleGET(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test", "yes")
		w.WriteHeader(200)
		w.Write([]byte("hello world"))
	}))
	defer srv.Close()

	p, err := poller.New()
	if err != nil {
		t.Fatalf("poller.New: %v", err)
	}
	defer p.Close()

	m := newTestMulti(t, p)

	req := transfer.New("GET", srv.URL+"/path")
	h, err := NewHandle(req)
	if err != nil {
		t.Fatalf("NewHandle: %v", err)
	}
	m.AddHandle(h)

	completions := driveToCompletion(t, m, p, 1)
	c := completions[0]
	if c.Err != nil {
		t.Fatalf("unexpected failure: %v (kind=%s)", c.Err, c.Kind)
	}
	if c.Status != 200 {
		t.Fatalf("status = %d, want 200", c.Status)
	}
	if string(req.ResponseBody()) != "hello world" {
		t.Fatalf("body = %q", req.ResponseBody())
	}
	if v, ok := req.LastGroup().Get("X-Test"); !ok || v != "yes" {
		t.Fatalf("X-Test header missing or wrong: %q ok=%v", v, ok)
	}
}

func TestMulti_RedirectChainOpensHeaderGroups(t *testing.T) {
	var final *httptest.Server
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/start":
			http.Redirect(w, r, "/middle", http.StatusFound)
		case "/middle":
			http.Redirect(w, r, "/end", http.StatusFound)
		case "/end":
			w.WriteHeader(200)
			w.Write([]byte("done"))
		}
	}))
	defer srv.Close()
	final = srv

	p, err := poller.New()
	if err != nil {
		t.Fatalf("poller.New: %v", err)
	}
	defer p.Close()

	m := newTestMulti(t, p)

	req := transfer.New("GET", final.URL+"/start")
	h, err := NewHandle(req)
	if err != nil {
		t.Fatalf("NewHandle: %v", err)
	}
	m.AddHandle(h)

	completions := driveToCompletion(t, m, p, 1)
	c := completions[0]
	if c.Err != nil {
		t.Fatalf("unexpected failure: %v", c.Err)
	}
	if c.Status != 200 {
		t.Fatalf("status = %d, want 200", c.Status)
	}
	if len(req.Groups()) != 3 {
		t.Fatalf("want 3 header groups (2 redirects + final), got %d", len(req.Groups()))
	}
	if string(req.ResponseBody()) != "done" {
		t.Fatalf("body = %q", req.ResponseBody())
	}
}

func TestMulti_ConnectionRefusedReportsNetworkError(t *testing.T) {
	p, err := poller.New()
	if err != nil {
		t.Fatalf("poller.New: %v", err)
	}
	defer p.Close()

	m := newTestMulti(t, p)

	// Port 1 is reserved and nothing listens there; the connect should
	// fail quickly with ECONNREFUSED surfaced as a network error.
	req := transfer.New("GET", "http://127.0.0.1:1/")
	h, err := NewHandle(req)
	if err != nil {
		t.Fatalf("NewHandle: %v", err)
	}
	h.ConnectTimeout = 2 * time.Second
	m.AddHandle(h)

	completions := driveToCompletion(t, m, p, 1)
	c := completions[0]
	if c.Err == nil {
		t.Fatal("want a failure for a refused connection")
	}
	if c.Kind != transfer.KindNetwork && c.Kind != transfer.KindTimeout {
		t.Fatalf("kind = %q, want network or timeout", c.Kind)
	}
}

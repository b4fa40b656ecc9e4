package curlmulti

import (
	"testing"

	"github.com/dentiny/httpmux/httpmux/transfer"
)

func TestHandlePool_GetBoundBindsRequest(t *testing.T) {
	hp := NewHandlePool(1)

	req := transfer.New("GET", "http://example.test:8080/x")
	h, err := hp.GetBound(req)
	if err != nil {
		t.Fatalf("GetBound: %v", err)
	}
	if h.Req != req {
		t.Fatal("pooled handle not bound to the submitted request")
	}
	if h.Host != "example.test" || h.Port != "8080" {
		t.Fatalf("host=%q port=%q", h.Host, h.Port)
	}

	hp.Put(h)
	if h.Req != nil || h.Host != "" {
		t.Fatal("Put should reset per-transfer state before recycling")
	}
}

func TestHandlePool_GetBoundBadURLRecyclesHandle(t *testing.T) {
	hp := NewHandlePool(0)

	req := transfer.New("GET", "http://[::1")
	if _, err := hp.GetBound(req); err == nil {
		t.Fatal("want a bind error for an unparseable URL")
	}

	st := hp.Stats()
	if st.Gets != 1 || st.Puts != 1 {
		t.Fatalf("gets=%d puts=%d, want the failed handle recycled", st.Gets, st.Puts)
	}
}

func TestHandlePool_WarmupServesWithoutAllocating(t *testing.T) {
	hp := NewHandlePool(4)

	req := transfer.New("GET", "http://example.test/")
	h, err := hp.GetBound(req)
	if err != nil {
		t.Fatalf("GetBound: %v", err)
	}
	defer hp.Put(h)

	st := hp.Stats()
	if st.News != 0 {
		t.Fatalf("warmed-up pool allocated %d new handles for the first get", st.News)
	}
	if st.HitRate != 1.0 {
		t.Fatalf("hit rate = %v, want 1.0", st.HitRate)
	}
}

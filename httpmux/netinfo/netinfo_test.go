package netinfo

import (
	"net"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func TestInspect_ExtractsHostAndPortFromBothEnds(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	acceptedCh := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			acceptedCh <- c
		}
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()
	server := <-acceptedCh
	defer server.Close()

	ci := Inspect(client)
	if ci.RemoteIP != "127.0.0.1" {
		t.Fatalf("RemoteIP = %q, want 127.0.0.1", ci.RemoteIP)
	}
	if ci.RemotePort == 0 {
		t.Fatal("RemotePort should be non-zero")
	}
	if ci.LocalIP != "127.0.0.1" {
		t.Fatalf("LocalIP = %q, want 127.0.0.1", ci.LocalIP)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	want := ConnInfo{RemoteIP: "10.0.0.5", RemotePort: 443, LocalIP: "10.0.0.9", LocalPort: 54321}
	got, err := Decode(Encode(want))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != want {
		t.Fatalf("Decode(Encode(%+v)) = %+v", want, got)
	}
}

func TestEncodeDecode_ZeroValue(t *testing.T) {
	got, err := Decode(Encode(ConnInfo{}))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != (ConnInfo{}) {
		t.Fatalf("Decode(Encode(zero)) = %+v, want zero value", got)
	}
}

func TestDecode_SkipsUnknownFields(t *testing.T) {
	known := Encode(ConnInfo{RemoteIP: "1.2.3.4", RemotePort: 80})
	// Append an unknown field (number 99, varint 7) the decoder must skip.
	unknownAppended := append(append([]byte{}, known...), encodeUnknownVarintField(99, 7)...)

	got, err := Decode(unknownAppended)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.RemoteIP != "1.2.3.4" || got.RemotePort != 80 {
		t.Fatalf("Decode with trailing unknown field = %+v", got)
	}
}

func TestRecorder_RecordAndAllIPsDeduplicatesAndSorts(t *testing.T) {
	r := NewRecorder()
	r.Record("10.0.0.2")
	r.Record("10.0.0.1")
	r.Record("10.0.0.2")
	r.Record("")

	got := r.AllIPs()
	want := []string{"10.0.0.1", "10.0.0.2"}
	if len(got) != len(want) {
		t.Fatalf("AllIPs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("AllIPs = %v, want %v", got, want)
		}
	}
}

func TestRecorder_Clear(t *testing.T) {
	r := NewRecorder()
	r.Record("10.0.0.2")
	r.Clear()
	if len(r.AllIPs()) != 0 {
		t.Fatal("AllIPs should be empty after Clear")
	}
}

func TestDefault_ReturnsSameInstance(t *testing.T) {
	if Default() != Default() {
		t.Fatal("Default() should return the same process-wide Recorder")
	}
}

func encodeUnknownVarintField(num int32, v uint64) []byte {
	var b []byte
	b = protowire.AppendTag(b, protowire.Number(num), protowire.VarintType)
	b = protowire.AppendVarint(b, v)
	return b
}

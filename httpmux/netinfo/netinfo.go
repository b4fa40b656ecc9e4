// Package netinfo captures which remote endpoint a completed transfer
// actually connected to, and lets a host aggregate that across many
// transfers. Recorder keeps the set of remote IPs requests have
// reached; Inspect is the per-request capture that feeds it.
package netinfo

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"sync"

	"google.golang.org/protobuf/encoding/protowire"
)

// ConnInfo describes the local and remote endpoints of one connection a
// transfer completed over.
type ConnInfo struct {
	RemoteIP   string
	RemotePort int
	LocalIP    string
	LocalPort  int
}

// Inspect extracts a ConnInfo from a live net.Conn (or *tls.Conn, which
// embeds the same Remote/LocalAddr methods). A malformed address string
// yields a zero-valued field rather than an error, since this is purely
// diagnostic and must never fail a transfer.
func Inspect(conn net.Conn) ConnInfo {
	var ci ConnInfo
	ci.RemoteIP, ci.RemotePort = splitHostPort(conn.RemoteAddr())
	ci.LocalIP, ci.LocalPort = splitHostPort(conn.LocalAddr())
	return ci
}

func splitHostPort(addr net.Addr) (string, int) {
	if addr == nil {
		return "", 0
	}
	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String(), 0
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}

// Wire field numbers for Encode/Decode.
const (
	fieldRemoteIP   = 1
	fieldRemotePort = 2
	fieldLocalIP    = 3
	fieldLocalPort  = 4
)

// Encode serializes a ConnInfo using the protobuf wire format directly
// (via protowire, not a generated message) so a host can persist or
// transmit it without this package owning a .proto schema.
func Encode(ci ConnInfo) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldRemoteIP, protowire.BytesType)
	b = protowire.AppendString(b, ci.RemoteIP)
	b = protowire.AppendTag(b, fieldRemotePort, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(ci.RemotePort))
	b = protowire.AppendTag(b, fieldLocalIP, protowire.BytesType)
	b = protowire.AppendString(b, ci.LocalIP)
	b = protowire.AppendTag(b, fieldLocalPort, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(ci.LocalPort))
	return b
}

// Decode reverses Encode. Unknown field numbers are skipped via
// protowire.ConsumeFieldValue so the format can gain fields later
// without breaking older readers.
func Decode(data []byte) (ConnInfo, error) {
	var ci ConnInfo
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return ci, fmt.Errorf("netinfo: bad tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch num {
		case fieldRemoteIP, fieldLocalIP:
			s, n := protowire.ConsumeString(data)
			if n < 0 {
				return ci, fmt.Errorf("netinfo: bad string field %d: %w", num, protowire.ParseError(n))
			}
			if num == fieldRemoteIP {
				ci.RemoteIP = s
			} else {
				ci.LocalIP = s
			}
			data = data[n:]
		case fieldRemotePort, fieldLocalPort:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return ci, fmt.Errorf("netinfo: bad varint field %d: %w", num, protowire.ParseError(n))
			}
			if num == fieldRemotePort {
				ci.RemotePort = int(v)
			} else {
				ci.LocalPort = int(v)
			}
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return ci, fmt.Errorf("netinfo: bad field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return ci, nil
}

// Recorder aggregates the remote IPs seen across many completed
// transfers.
type Recorder struct {
	mu  sync.Mutex
	ips map[string]struct{}
}

var (
	defaultRecorderOnce sync.Once
	defaultRecorder     *Recorder
)

// Default returns the process-wide Recorder, lazily constructed on
// first use.
func Default() *Recorder {
	defaultRecorderOnce.Do(func() {
		defaultRecorder = NewRecorder()
	})
	return defaultRecorder
}

// NewRecorder constructs a standalone Recorder, useful in tests that
// don't want to share the process-wide singleton.
func NewRecorder() *Recorder {
	return &Recorder{ips: make(map[string]struct{})}
}

// Record adds ip to the set of remote IPs observed so far.
func (r *Recorder) Record(ip string) {
	if ip == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ips[ip] = struct{}{}
}

// RecordConn is a convenience wrapper that inspects conn and records
// its remote IP.
func (r *Recorder) RecordConn(conn net.Conn) {
	ci := Inspect(conn)
	r.Record(ci.RemoteIP)
}

// AllIPs returns every recorded IP, sorted for deterministic output.
func (r *Recorder) AllIPs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.ips))
	for ip := range r.ips {
		out = append(out, ip)
	}
	sort.Strings(out)
	return out
}

// Clear drops every recorded IP.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ips = make(map[string]struct{})
}

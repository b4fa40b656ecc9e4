// Package observability records per-host transfer latency and error
// rate so a long-running process can see which remote endpoints are
// degrading without instrumenting every call site itself. Bookkeeping
// is atomic-based and keyed by host; a background analysis loop flags
// hosts whose latency or error rate crosses a threshold.
package observability

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// TransferMonitor provides zero-overhead per-host transfer monitoring.
type TransferMonitor struct {
	enabled atomic.Bool
	hosts   sync.Map
	global  struct {
		totalTransfers atomic.Uint64
		totalDuration  atomic.Uint64
	}
	bottlenecks  []Bottleneck
	bottleneckMu sync.RWMutex

	stopCh chan struct{}
}

// HostMetrics stores per-host transfer metrics.
type HostMetrics struct {
	Host           string
	Count          atomic.Uint64
	Errors         atomic.Uint64
	TotalDuration  atomic.Uint64
	MinDuration    atomic.Uint64
	MaxDuration    atomic.Uint64
	latencyBuckets [10]atomic.Uint64
}

// Bottleneck represents a host whose latency or error rate has crossed
// a threshold.
type Bottleneck struct {
	Type       string
	Host       string
	Severity   int
	Impact     float64
	DetectedAt time.Time
	Details    string
}

// NewTransferMonitor creates a monitor and starts its background
// bottleneck-analysis loop.
func NewTransferMonitor() *TransferMonitor {
	tm := &TransferMonitor{stopCh: make(chan struct{})}
	tm.enabled.Store(true)
	go tm.analyzeBottlenecks()
	return tm
}

// Close stops the background analysis loop. Not required before
// process exit; provided for tests and short-lived monitors.
func (tm *TransferMonitor) Close() {
	tm.enabled.Store(false)
	close(tm.stopCh)
}

// RecordTransfer records one completed transfer's latency and whether
// the caller counts it as an error. The engine passes true only for
// transport failures; a 4xx/5xx status is not counted as an error.
func (tm *TransferMonitor) RecordTransfer(host string, duration time.Duration, isError bool) {
	if !tm.enabled.Load() {
		return
	}

	val, _ := tm.hosts.LoadOrStore(host, &HostMetrics{Host: host})
	metrics := val.(*HostMetrics)

	metrics.Count.Add(1)
	if isError {
		metrics.Errors.Add(1)
	}

	durationNs := uint64(duration.Nanoseconds())
	metrics.TotalDuration.Add(durationNs)
	tm.updateMinMax(metrics, durationNs)
	tm.updateLatencyBucket(metrics, durationNs)

	tm.global.totalTransfers.Add(1)
	tm.global.totalDuration.Add(durationNs)
}

func (tm *TransferMonitor) updateMinMax(m *HostMetrics, d uint64) {
	for {
		min := m.MinDuration.Load()
		if min == 0 || d < min {
			if m.MinDuration.CompareAndSwap(min, d) {
				break
			}
			continue
		}
		break
	}
	for {
		max := m.MaxDuration.Load()
		if d > max {
			if m.MaxDuration.CompareAndSwap(max, d) {
				break
			}
			continue
		}
		break
	}
}

func (tm *TransferMonitor) updateLatencyBucket(m *HostMetrics, durationNs uint64) {
	ms := durationNs / 1_000_000
	idx := 0
	switch {
	case ms < 1:
		idx = 0
	case ms < 5:
		idx = 1
	case ms < 10:
		idx = 2
	case ms < 50:
		idx = 3
	case ms < 100:
		idx = 4
	case ms < 500:
		idx = 5
	case ms < 1000:
		idx = 6
	case ms < 5000:
		idx = 7
	case ms < 10000:
		idx = 8
	default:
		idx = 9
	}
	m.latencyBuckets[idx].Add(1)
}

func (tm *TransferMonitor) analyzeBottlenecks() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-tm.stopCh:
			return
		case <-ticker.C:
			if !tm.enabled.Load() {
				continue
			}
			bottlenecks := tm.detectBottlenecks()
			tm.bottleneckMu.Lock()
			tm.bottlenecks = bottlenecks
			tm.bottleneckMu.Unlock()
		}
	}
}

func (tm *TransferMonitor) detectBottlenecks() []Bottleneck {
	bottlenecks := make([]Bottleneck, 0)

	tm.hosts.Range(func(key, value interface{}) bool {
		m := value.(*HostMetrics)
		count := m.Count.Load()
		if count == 0 {
			return true
		}

		avgDuration := time.Duration(m.TotalDuration.Load() / count)

		if avgDuration > 2*time.Second {
			bottlenecks = append(bottlenecks, Bottleneck{
				Type:       "latency",
				Host:       m.Host,
				Severity:   8,
				Impact:     100.0,
				DetectedAt: time.Now(),
				Details:    fmt.Sprintf("high average transfer latency (%v avg)", avgDuration),
			})
		}

		errors := m.Errors.Load()
		if errors > 0 && float64(errors)/float64(count) > 0.05 {
			bottlenecks = append(bottlenecks, Bottleneck{
				Type:       "errors",
				Host:       m.Host,
				Severity:   10,
				Impact:     float64(errors) / float64(count) * 100,
				DetectedAt: time.Now(),
				Details:    fmt.Sprintf("%.1f%% transfer error rate", float64(errors)/float64(count)*100),
			})
		}

		return true
	})

	return bottlenecks
}

// GetBottlenecks returns the most recently detected set of degraded
// hosts.
func (tm *TransferMonitor) GetBottlenecks() []Bottleneck {
	tm.bottleneckMu.RLock()
	defer tm.bottleneckMu.RUnlock()
	return append([]Bottleneck{}, tm.bottlenecks...)
}

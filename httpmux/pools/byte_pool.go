// Package pools supplies the fine-grained object pools the engine
// leans on to avoid per-transfer allocation: a tiered byte pool for
// socket read scratch space, a work-stealing pool for dispatching
// OnComplete callbacks, and GC tuning helpers. Handle recycling is
// typed and lives with the transport (curlmulti.HandlePool).
package pools

import "sync"

// BytePool is a multi-tiered byte slice pool for the fixed-size scratch
// buffers a curlmulti.Handle reads socket data into before copying the
// bytes into its own header/body accumulators. Pooling these avoids one
// allocation per readiness event on a transfer that may see hundreds of
// partial reads over its lifetime.
type BytePool struct {
	pools []*sync.Pool
	sizes []int
}

// defaultSizes covers the one size class the engine actually asks for
// today (the 8192-byte socket read scratch buffer in curlmulti.Handle)
// plus smaller tiers so a future caller requesting less doesn't pay for
// an oversized buffer.
var defaultSizes = []int{
	512,
	2048,
	8192,
	32768,
}

// NewBytePool creates a new byte pool with the standard size tiers.
func NewBytePool() *BytePool {
	return NewBytePoolWithSizes(defaultSizes)
}

// NewBytePoolWithSizes creates a byte pool with custom size tiers.
func NewBytePoolWithSizes(sizes []int) *BytePool {
	bp := &BytePool{
		pools: make([]*sync.Pool, len(sizes)),
		sizes: sizes,
	}

	for i, size := range sizes {
		sz := size
		bp.pools[i] = &sync.Pool{
			New: func() any {
				buf := make([]byte, sz)
				return &buf
			},
		}
	}

	return bp
}

// Get returns a byte slice of at least the requested size.
func (bp *BytePool) Get(size int) []byte {
	for i, poolSize := range bp.sizes {
		if size <= poolSize {
			bufPtr := bp.pools[i].Get().(*[]byte)
			buf := *bufPtr
			return buf[:size]
		}
	}
	return make([]byte, size)
}

// Put returns a byte slice to the pool.
func (bp *BytePool) Put(buf []byte) {
	capacity := cap(buf)
	for i, poolSize := range bp.sizes {
		if capacity == poolSize {
			buf = buf[:capacity]
			bp.pools[i].Put(&buf)
			return
		}
	}
	// Not from a pooled tier; let the GC reclaim it.
}

// globalBytePool backs the package-level GetBytes/PutBytes convenience
// functions curlmulti.Handle calls for its per-read scratch buffer.
var globalBytePool = NewBytePool()

// GetBytes is a convenience function using the global pool.
func GetBytes(size int) []byte {
	return globalBytePool.Get(size)
}

// PutBytes returns bytes to the global pool.
func PutBytes(buf []byte) {
	globalBytePool.Put(buf)
}

// Package pools provides the tiered byte-slice pool backing per-connection
// read and write buffers.
package pools

import "sync"

// Size tiers chosen for HTTP workloads: small responses, typical requests,
// read buffers, write batches.
var tierSizes = []int{512, 2048, 8192, 32768}

// BytePool hands out byte slices from per-size sync.Pools. Slices larger
// than the biggest tier are allocated directly and dropped on Put.
type BytePool struct {
	tiers []*sync.Pool
}

// NewBytePool creates a pool with the standard tiers.
func NewBytePool() *BytePool {
	bp := &BytePool{tiers: make([]*sync.Pool, len(tierSizes))}
	for i, size := range tierSizes {
		sz := size
		bp.tiers[i] = &sync.Pool{
			New: func() any {
				buf := make([]byte, sz)
				return &buf
			},
		}
	}
	return bp
}

// Get returns a slice of length size, at least size capacity.
func (bp *BytePool) Get(size int) []byte {
	for i, tier := range tierSizes {
		if size <= tier {
			buf := *bp.tiers[i].Get().(*[]byte)
			return buf[:size]
		}
	}
	return make([]byte, size)
}

// Put returns a slice to its tier. Slices whose capacity matches no tier
// (grown or directly allocated) are left to the GC.
func (bp *BytePool) Put(buf []byte) {
	c := cap(buf)
	for i, tier := range tierSizes {
		if c == tier {
			buf = buf[:c]
			bp.tiers[i].Put(&buf)
			return
		}
	}
}

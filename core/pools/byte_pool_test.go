package pools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetSizesAndTiers(t *testing.T) {
	bp := NewBytePool()

	cases := []struct {
		size    int
		wantCap int
	}{
		{1, 512},
		{512, 512},
		{513, 2048},
		{8192, 8192},
		{32768, 32768},
	}
	for _, tc := range cases {
		buf := bp.Get(tc.size)
		assert.Len(t, buf, tc.size)
		assert.Equal(t, tc.wantCap, cap(buf))
		bp.Put(buf)
	}
}

func TestGetOversized(t *testing.T) {
	bp := NewBytePool()
	buf := bp.Get(100_000)
	assert.Len(t, buf, 100_000)
	// Off-tier capacity, Put is a no-op rather than a corruption.
	bp.Put(buf)
}

func TestPutReuse(t *testing.T) {
	bp := NewBytePool()
	buf := bp.Get(4096)
	copy(buf, "marker")
	bp.Put(buf)

	again := bp.Get(4096)
	assert.Equal(t, 8192, cap(again))
	assert.Len(t, again, 4096)
}

func TestPutGrownSliceDropped(t *testing.T) {
	bp := NewBytePool()
	buf := bp.Get(512)
	buf = append(buf, make([]byte, 4096)...)
	// Grown past its tier, capacity no longer matches any tier.
	bp.Put(buf)
}

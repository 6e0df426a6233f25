package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlotWidth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		capacity int
		want     int
	}{
		{1, 8},
		{50, 8},
		{256, 8},
		{257, 16},
		{65536, 16},
		{65537, 32},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, slotWidth(tt.capacity), "capacity %d", tt.capacity)
	}
}

func TestSlotWidth_Wide(t *testing.T) {
	t.Parallel()

	if ^uint(0)>>63 == 0 {
		t.Skip("int is 32-bit on this platform")
	}
	var (
		max32 uint64 = 1 << 32
		above uint64 = 1<<32 + 1
	)
	require.Equal(t, 32, slotWidth(int(max32)))
	require.Equal(t, 64, slotWidth(int(above)))
}

func TestNewLinks_ElementType(t *testing.T) {
	t.Parallel()

	require.IsType(t, &linkArray[uint8]{}, newLinks(256))
	require.IsType(t, &linkArray[uint16]{}, newLinks(257))
	require.IsType(t, &linkArray[uint32]{}, newLinks(65537))

	l := newLinks(65537)
	require.Equal(t, 32, l.width())
	l.setNext(65536, 65535)
	l.setPrev(0, 65536)
	require.Equal(t, 65535, l.next(65536))
	require.Equal(t, 65536, l.prev(0))
}

package pread

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeapAllocator(t *testing.T) {
	ctx := context.Background()

	b, err := heapAllocator{}.Allocate(ctx, 16)
	require.NoError(t, err)
	require.Equal(t, 16, len(b))

	b, err = heapAllocator{max: 16}.Allocate(ctx, 16)
	require.NoError(t, err)
	require.Equal(t, 16, len(b))

	_, err = heapAllocator{max: 16}.Allocate(ctx, 17)
	require.EqualError(t, err, "buffer size 17 exceeds limit 16")

	if strconv.IntSize < 64 {
		t.Skip("runtime allocation limit only reachable on 64-bit")
	}
	big := int64(DefaultMaxBufferSize) + 1
	_, err = heapAllocator{}.Allocate(ctx, int(big))
	require.EqualError(t, err, "buffer size 2147483648 exceeds limit 2147483647")

	_, err = heapAllocator{max: maxInt}.Allocate(ctx, maxInt)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not enough memory")
}

package iopread

import (
	"context"
	"fmt"
	"math"

	"github.com/tetratelabs/wazero/api"
)

// guestAllocator allocates read buffers in guest memory by calling the
// allocator the guest exports. It is used for a single read, recording the
// pointer so the caller can report it to the guest, or release it.
type guestAllocator struct {
	mod      api.Module
	name     string
	freeName string
	max      uint32

	ptr uint32
}

// Allocate implements pread.Allocator.Allocate
func (a *guestAllocator) Allocate(ctx context.Context, size int) ([]byte, error) {
	if uint64(size) > math.MaxUint32 {
		return nil, fmt.Errorf("buffer size %d exceeds guest memory", size)
	} else if a.max > 0 && uint32(size) > a.max {
		return nil, fmt.Errorf("buffer size %d exceeds limit %d", size, a.max)
	}

	fn := a.mod.ExportedFunction(a.name)
	if fn == nil {
		return nil, fmt.Errorf("guest allocator %q is not exported", a.name)
	}
	results, err := fn.Call(ctx, uint64(size))
	if err != nil {
		return nil, fmt.Errorf("guest allocator %q: %w", a.name, err)
	} else if len(results) != 1 {
		return nil, fmt.Errorf("guest allocator %q returned %d results", a.name, len(results))
	}

	ptr := uint32(results[0])
	if ptr == 0 {
		return nil, fmt.Errorf("guest allocator %q returned null for %d bytes", a.name, size)
	}
	// The guest allocated even if the region is unusable, so keep ptr for
	// release.
	a.ptr = ptr
	// Memory may have grown during the call, so look it up after.
	buf, ok := a.mod.Memory().Read(ptr, uint32(size))
	if !ok {
		return nil, fmt.Errorf("guest buffer %d+%d is out of range of memory size %d",
			ptr, size, a.mod.Memory().Size())
	}
	return buf, nil
}

// release passes the allocated buffer, if any, to the guest deallocator.
func (a *guestAllocator) release(ctx context.Context) error {
	ptr := a.ptr
	if ptr == 0 || a.freeName == "" {
		return nil
	}
	a.ptr = 0

	fn := a.mod.ExportedFunction(a.freeName)
	if fn == nil {
		return fmt.Errorf("guest deallocator %q is not exported", a.freeName)
	}
	if _, err := fn.Call(ctx, uint64(ptr)); err != nil {
		return fmt.Errorf("guest deallocator %q: %w", a.freeName, err)
	}
	return nil
}

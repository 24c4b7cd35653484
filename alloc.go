package pread

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
)

const maxInt = int(^uint(0) >> 1)

// DefaultMaxBufferSize is the largest buffer the default allocator hands out.
// It matches the most a single pread transfers on Linux, and keeps a read of
// a huge or sparse file from exhausting memory, which the Go runtime cannot
// recover from.
const DefaultMaxBufferSize = math.MaxInt32

// Allocator provides the buffer a read is written into.
//
// Read trims the returned slice to the number of bytes actually read, so the
// caller of Read owns b[:n] and anything past it is unused.
type Allocator interface {
	// Allocate returns a writable slice of exactly size bytes, or an error
	// describing why it could not. Errors are reported as KindOutOfMemory.
	Allocate(ctx context.Context, size int) (b []byte, err error)
}

// AllocatorFunc adapts a function to Allocator.
type AllocatorFunc func(ctx context.Context, size int) ([]byte, error)

// Allocate implements Allocator.Allocate
func (f AllocatorFunc) Allocate(ctx context.Context, size int) ([]byte, error) {
	return f(ctx, size)
}

// heapAllocator allocates from the Go heap. max of zero means
// DefaultMaxBufferSize.
type heapAllocator struct {
	max int
}

// Allocate implements Allocator.Allocate
func (a heapAllocator) Allocate(_ context.Context, size int) (b []byte, err error) {
	max := a.max
	if max <= 0 {
		max = DefaultMaxBufferSize
	}
	if size > max {
		return nil, fmt.Errorf("buffer size %d exceeds limit %d", size, max)
	}
	defer func() {
		// makeslice panics with a runtime.Error when size cannot be
		// allocated, for example "makeslice: len out of range".
		if r := recover(); r != nil {
			re, ok := r.(runtime.Error)
			if !ok {
				panic(r)
			}
			b, err = nil, errors.New("not enough memory: "+re.Error())
		}
	}()
	return make([]byte, size), nil
}

func errLengthOverflow(length int64) error {
	return fmt.Errorf("length overflow: %d", length)
}

// Package pread performs positioned reads on file descriptors.
//
// A positioned read reads at an explicit offset and never moves the file
// offset associated with the descriptor. Read adds the conveniences below on
// top of the pread system call:
//
//   - A negative offset (CurrentPosition) reads from the descriptor's current
//     file offset, queried on every call.
//   - A negative length (RestOfFile) reads everything from the offset to the
//     end of the file, as reported by fstat.
//   - Interrupted reads (EINTR) are retried until they complete.
//   - End of file and "would block" (EAGAIN) both result in KindAgain.
//
// # Short reads
//
// Data may hold fewer bytes than requested. This is not an error: call Read
// again with an advanced offset to read more.
//
// # Relationship to WebAssembly
//
// The package iopread exposes Read to WebAssembly guests as a wazero host
// module.
package pread

import (
	"context"
	"fmt"
	"runtime"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/iopread/pread/internal/sysfs"
)

const (
	// RestOfFile as a length reads from the offset to the end of the file.
	RestOfFile int64 = -1

	// CurrentPosition as an offset reads from the current file offset.
	CurrentPosition int64 = -1
)

// Handle is anything backed by a file descriptor, such as *os.File.
//
// The caller owns the handle. It must stay open for the duration of Read.
type Handle interface {
	Fd() uintptr
}

// FD is a Handle for a raw file descriptor.
type FD int

// Fd implements Handle.Fd
func (fd FD) Fd() uintptr {
	return uintptr(fd)
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the logger used for debug output. Defaults to
// logrus.StandardLogger().
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Reader) {
		r.logger = logger
	}
}

// WithAllocator sets where read buffers come from. Defaults to the Go heap,
// limited by WithMaxBufferSize.
func WithAllocator(allocator Allocator) Option {
	return func(r *Reader) {
		r.allocator = allocator
	}
}

// WithMaxBufferSize limits the default heap allocator to size bytes per read.
// Larger requests fail with KindOutOfMemory. Zero or negative means
// DefaultMaxBufferSize.
//
// This has no effect when WithAllocator is also given.
func WithMaxBufferSize(size int) Option {
	return func(r *Reader) {
		r.maxBufferSize = size
	}
}

func withSyscalls(sc sysfs.Syscalls) Option {
	return func(r *Reader) {
		r.sc = sc
	}
}

// Reader performs positioned reads. It holds no per-call state and is safe
// for concurrent use, though concurrent use of the same descriptor is up to
// the caller.
type Reader struct {
	sc            sysfs.Syscalls
	allocator     Allocator
	maxBufferSize int
	logger        logrus.FieldLogger
}

// NewReader returns a Reader configured by opts.
func NewReader(opts ...Option) *Reader {
	r := &Reader{sc: sysfs.Host(), logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(r)
	}
	if r.allocator == nil {
		r.allocator = heapAllocator{max: r.maxBufferSize}
	}
	return r
}

var defaultReader = NewReader()

// Read calls Reader.Read on a Reader with default options.
func Read(ctx context.Context, h Handle, length, offset int64) Outcome {
	return defaultReader.Read(ctx, h, length, offset)
}

// Read reads up to length bytes from h at offset.
//
// # Parameters
//
//   - length: bytes to read, or RestOfFile (any negative value) to read to the
//     end of the file. Zero returns KindEmpty without touching h.
//   - offset: where to read from, or CurrentPosition (any negative value) to
//     use the current file offset of h. The file offset is never changed.
//
// ctx is passed to the Allocator. It does not cancel a blocked read.
func (r *Reader) Read(ctx context.Context, h Handle, length, offset int64) Outcome {
	return r.ReadWith(ctx, h, length, offset, r.allocator)
}

// ReadWith is like Read, except the buffer comes from allocator instead of
// the one the Reader was configured with.
func (r *Reader) ReadWith(ctx context.Context, h Handle, length, offset int64, allocator Allocator) Outcome {
	if length == 0 {
		return Empty()
	}

	fd := int(h.Fd())
	defer runtime.KeepAlive(h)

	logger := r.logger.WithField("fd", fd)

	if offset < 0 {
		off, errno := r.sc.Tell(fd)
		if errno != 0 {
			logger.WithField("op", OpLseek).Debugf("position query failed: %v", errno)
			return Failed(newErrno(KindPositionQueryFailed, OpLseek, errno))
		}
		offset = off
	}

	if length < 0 {
		size, errno := r.sc.Size(fd)
		if errno != 0 {
			logger.WithField("op", OpFstat).Debugf("size query failed: %v", errno)
			return Failed(newErrno(KindSizeQueryFailed, OpFstat, errno))
		} else if offset >= size {
			return Again()
		}
		length = size - offset
	}

	logger = logger.WithFields(logrus.Fields{"offset": offset, "length": length})

	if length > int64(maxInt) {
		return Failed(newOutOfMemory(errLengthOverflow(length)))
	}
	buf, err := allocator.Allocate(ctx, int(length))
	if err == nil && len(buf) != int(length) {
		err = fmt.Errorf("allocator returned %d bytes, want %d", len(buf), length)
	}
	if err != nil {
		logger.WithField("op", OpAlloc).Debugf("allocation failed: %v", err)
		return Failed(newOutOfMemory(err))
	}

	for retries := 0; ; retries++ {
		n, errno := r.sc.Pread(fd, buf, offset)
		switch {
		case errno == 0 && n > 0:
			return Data(buf[:n])
		case errno == 0, errno == syscall.EAGAIN, errno == syscall.EWOULDBLOCK:
			return Again()
		case errno == syscall.EINTR:
			logger.WithField("retries", retries+1).Debug("pread interrupted, retrying")
			continue
		}
		logger.WithField("op", OpPread).Debugf("read failed: %v", errno)
		return Failed(newErrno(KindReadFailed, OpPread, errno))
	}
}

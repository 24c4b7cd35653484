package iopread

import (
	"fmt"

	"github.com/iopread/pread"
)

// Status is the result of the pread function. Statuses from
// StatusPositionQueryFailed up write an errno (u32le) to $result.errno.
type Status uint32

const (
	// StatusData means data was read. The buffer pointer (u32le) is written
	// to $result.buf and the number of bytes read (u32le) to $result.size.
	// There may be fewer bytes than requested.
	StatusData Status = iota
	// StatusEmpty means $length was zero. Nothing was read or written.
	StatusEmpty
	// StatusAgain means end of file or, on a non-blocking descriptor, that no
	// data is available yet.
	StatusAgain
	// StatusPositionQueryFailed means the current file offset could not be
	// read (lseek).
	StatusPositionQueryFailed
	// StatusSizeQueryFailed means the file size could not be read (fstat).
	StatusSizeQueryFailed
	// StatusReadFailed means the read failed, including for an unregistered
	// fd (EBADF) or a result pointer out of range (EFAULT).
	StatusReadFailed
	// StatusOutOfMemory means the guest allocator could not provide a buffer.
	// The errno is ENOMEM.
	StatusOutOfMemory
)

// String implements fmt.Stringer
func (s Status) String() string {
	switch s {
	case StatusData:
		return "data"
	case StatusEmpty:
		return "empty"
	case StatusAgain:
		return "again"
	case StatusPositionQueryFailed:
		return "position_query_failed"
	case StatusSizeQueryFailed:
		return "size_query_failed"
	case StatusReadFailed:
		return "read_failed"
	case StatusOutOfMemory:
		return "out_of_memory"
	}
	return fmt.Sprintf("Status(%d)", uint32(s))
}

func statusOf(kind pread.ErrorKind) Status {
	switch kind {
	case pread.KindPositionQueryFailed:
		return StatusPositionQueryFailed
	case pread.KindSizeQueryFailed:
		return StatusSizeQueryFailed
	case pread.KindOutOfMemory:
		return StatusOutOfMemory
	}
	return StatusReadFailed
}

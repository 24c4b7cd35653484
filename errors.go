package pread

import (
	"errors"
	"fmt"
	"syscall"
)

// ErrorKind says which step of Read failed.
type ErrorKind uint8

const (
	// KindPositionQueryFailed means the current file offset could not be
	// read (lseek).
	KindPositionQueryFailed ErrorKind = iota + 1
	// KindSizeQueryFailed means the file size could not be read (fstat).
	KindSizeQueryFailed
	// KindReadFailed means the pread system call failed.
	KindReadFailed
	// KindOutOfMemory means the read buffer could not be allocated.
	KindOutOfMemory
)

// String implements fmt.Stringer
func (k ErrorKind) String() string {
	switch k {
	case KindPositionQueryFailed:
		return "PositionQueryFailed"
	case KindSizeQueryFailed:
		return "SizeQueryFailed"
	case KindReadFailed:
		return "ReadFailed"
	case KindOutOfMemory:
		return "OutOfMemory"
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// Operation names reported in Error.Op.
const (
	OpLseek = "lseek"
	OpFstat = "fstat"
	OpPread = "pread"
	OpAlloc = "alloc"
)

// Error is the error returned in an Outcome of KindError.
type Error struct {
	// Kind is the step that failed.
	Kind ErrorKind
	// Op is the name of the operation that failed, one of OpLseek, OpFstat,
	// OpPread or OpAlloc.
	Op string
	// Errno is the error number reported by the operating system, verbatim.
	// Allocation failures report syscall.ENOMEM.
	Errno syscall.Errno
	// Message is a human-readable description.
	Message string
}

func newErrno(kind ErrorKind, op string, errno syscall.Errno) *Error {
	return &Error{Kind: kind, Op: op, Errno: errno, Message: errno.Error()}
}

func newOutOfMemory(cause error) *Error {
	return &Error{Kind: KindOutOfMemory, Op: OpAlloc, Errno: syscall.ENOMEM, Message: cause.Error()}
}

// Error implements error
func (e *Error) Error() string {
	return e.Op + ": " + e.Message
}

// Unwrap returns Errno, so errors.Is matches on syscall.Errno values.
func (e *Error) Unwrap() error {
	return e.Errno
}

// AsError returns the *Error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

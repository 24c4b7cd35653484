// Package sysfs holds the raw syscalls behind a positioned read. Each
// primitive returns a syscall.Errno instead of an error so callers can branch
// on errno values without unwrapping.
package sysfs

import (
	"errors"
	"io/fs"
	"os"
	"syscall"
)

// Syscalls is the set of primitives a positioned read needs. Calls are made
// with the exact arguments given; none of them retry.
type Syscalls interface {
	// Tell returns the current file offset of fd, like lseek(fd, 0, SEEK_CUR).
	Tell(fd int) (int64, syscall.Errno)

	// Size returns the size in bytes reported by fstat(fd).
	Size(fd int) (int64, syscall.Errno)

	// Pread reads up to len(buf) bytes at offset without moving the file
	// offset of fd. A return of (0, 0) means end of file.
	Pread(fd int, buf []byte, offset int64) (int, syscall.Errno)
}

// Host returns the Syscalls of the current platform.
func Host() Syscalls {
	return hostSyscalls{}
}

type hostSyscalls struct{}

// UnwrapOSError returns the syscall.Errno inside err, or zero when err is nil.
// Errors that carry no errno map to EIO.
func UnwrapOSError(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	switch {
	case errors.Is(err, fs.ErrInvalid):
		return syscall.EINVAL
	case errors.Is(err, fs.ErrPermission):
		return syscall.EPERM
	case errors.Is(err, fs.ErrNotExist):
		return syscall.ENOENT
	case errors.Is(err, fs.ErrClosed), errors.Is(err, os.ErrClosed):
		return syscall.EBADF
	}
	return syscall.EIO
}

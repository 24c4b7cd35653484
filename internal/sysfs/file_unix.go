//go:build unix

package sysfs

import (
	"io"
	"syscall"

	"golang.org/x/sys/unix"
)

// Tell implements Syscalls.Tell
func (hostSyscalls) Tell(fd int) (int64, syscall.Errno) {
	off, err := unix.Seek(fd, 0, io.SeekCurrent)
	if err != nil {
		return -1, UnwrapOSError(err)
	}
	return off, 0
}

// Size implements Syscalls.Size
func (hostSyscalls) Size(fd int) (int64, syscall.Errno) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return -1, UnwrapOSError(err)
	}
	return st.Size, 0
}

// Pread implements Syscalls.Pread
func (hostSyscalls) Pread(fd int, buf []byte, offset int64) (int, syscall.Errno) {
	n, err := unix.Pread(fd, buf, offset)
	if err != nil {
		return -1, UnwrapOSError(err)
	}
	return n, 0
}

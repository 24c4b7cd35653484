//go:build !unix

package sysfs

import "syscall"

// Tell returns ENOSYS on unsupported platforms.
func (hostSyscalls) Tell(int) (int64, syscall.Errno) {
	return -1, syscall.ENOSYS
}

// Size returns ENOSYS on unsupported platforms.
func (hostSyscalls) Size(int) (int64, syscall.Errno) {
	return -1, syscall.ENOSYS
}

// Pread returns ENOSYS on unsupported platforms.
func (hostSyscalls) Pread(int, []byte, int64) (int, syscall.Errno) {
	return -1, syscall.ENOSYS
}

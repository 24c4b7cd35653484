//go:build unix

package sysfs

import (
	"io"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestFile(t *testing.T, contents string) *os.File {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestHost_Tell(t *testing.T) {
	f := openTestFile(t, "wazero")
	fd := int(f.Fd())

	off, errno := Host().Tell(fd)
	require.Zero(t, errno)
	require.Equal(t, int64(0), off)

	_, err := f.Seek(3, io.SeekStart)
	require.NoError(t, err)

	off, errno = Host().Tell(fd)
	require.Zero(t, errno)
	require.Equal(t, int64(3), off)
}

func TestHost_Size(t *testing.T) {
	f := openTestFile(t, "wazero")

	size, errno := Host().Size(int(f.Fd()))
	require.Zero(t, errno)
	require.Equal(t, int64(6), size)
}

func TestHost_Pread(t *testing.T) {
	f := openTestFile(t, "wazero")
	fd := int(f.Fd())

	buf := make([]byte, 3)
	n, errno := Host().Pread(fd, buf, 2)
	require.Zero(t, errno)
	require.Equal(t, 3, n)
	require.Equal(t, "zer", string(buf))

	// The file offset is untouched.
	off, errno := Host().Tell(fd)
	require.Zero(t, errno)
	require.Equal(t, int64(0), off)

	n, errno = Host().Pread(fd, buf, 6)
	require.Zero(t, errno)
	require.Zero(t, n)
}

func TestHost_badFd(t *testing.T) {
	_, errno := Host().Tell(-1)
	require.Equal(t, syscall.EBADF, errno)

	_, errno = Host().Size(-1)
	require.Equal(t, syscall.EBADF, errno)

	_, errno = Host().Pread(-1, make([]byte, 1), 0)
	require.Equal(t, syscall.EBADF, errno)
}

func TestHost_Pread_pipe(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	_, errno := Host().Pread(int(r.Fd()), make([]byte, 1), 0)
	require.Equal(t, syscall.ESPIPE, errno)
}

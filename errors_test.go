package pread

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorKind_String(t *testing.T) {
	require.Equal(t, "PositionQueryFailed", KindPositionQueryFailed.String())
	require.Equal(t, "SizeQueryFailed", KindSizeQueryFailed.String())
	require.Equal(t, "ReadFailed", KindReadFailed.String())
	require.Equal(t, "OutOfMemory", KindOutOfMemory.String())
	require.Equal(t, "ErrorKind(0)", ErrorKind(0).String())
}

func TestError(t *testing.T) {
	err := newErrno(KindReadFailed, OpPread, syscall.EIO)
	require.EqualError(t, err, "pread: "+syscall.EIO.Error())
	require.True(t, errors.Is(err, syscall.EIO))
	require.False(t, errors.Is(err, syscall.EBADF))

	wrapped := fmt.Errorf("reading header: %w", err)
	e, ok := AsError(wrapped)
	require.True(t, ok)
	require.Same(t, err, e)

	_, ok = AsError(errors.New("other"))
	require.False(t, ok)
}

func TestError_sameErrnoDifferentOp(t *testing.T) {
	lseek := newErrno(KindPositionQueryFailed, OpLseek, syscall.EBADF)
	fstat := newErrno(KindSizeQueryFailed, OpFstat, syscall.EBADF)
	pread := newErrno(KindReadFailed, OpPread, syscall.EBADF)

	require.NotEqual(t, lseek.Error(), fstat.Error())
	require.NotEqual(t, fstat.Error(), pread.Error())
	require.NotEqual(t, lseek.Kind, pread.Kind)
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		outcome            Outcome
		expectedKind       Kind
		expectedString     string
		expectedData       []byte
		expectedWouldBlock bool
		expectedErr        bool
	}{
		{outcome: Empty(), expectedKind: KindEmpty, expectedString: "empty"},
		{outcome: Data([]byte("abc")), expectedKind: KindData, expectedString: "data(3 bytes)", expectedData: []byte("abc")},
		{outcome: Again(), expectedKind: KindAgain, expectedString: "again", expectedWouldBlock: true},
		{
			outcome:        Failed(newErrno(KindReadFailed, OpPread, syscall.EIO)),
			expectedKind:   KindError,
			expectedString: "error(pread: " + syscall.EIO.Error() + ")",
			expectedErr:    true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.expectedString, func(t *testing.T) {
			require.Equal(t, tc.expectedKind, tc.outcome.Kind())
			require.Equal(t, tc.expectedString, tc.outcome.String())

			data, wouldBlock, err := tc.outcome.Result()
			require.Equal(t, tc.expectedData, data)
			require.Equal(t, tc.expectedWouldBlock, wouldBlock)
			if tc.expectedErr {
				require.Error(t, err)
				require.NotNil(t, tc.outcome.Failure())
			} else {
				// A nil *Error must not leak as a non-nil error.
				require.Nil(t, err)
				require.Nil(t, tc.outcome.Failure())
			}
		})
	}
}

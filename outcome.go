package pread

import "fmt"

// Kind is the shape of an Outcome.
type Kind uint8

const (
	// KindEmpty is the result of a zero-length read. The descriptor was not
	// used.
	KindEmpty Kind = iota
	// KindData means bytes were read. There may be fewer than requested.
	KindData
	// KindAgain means end of file, or no data is available yet on a
	// non-blocking descriptor. The two are not distinguished.
	KindAgain
	// KindError means the read failed. See Outcome.Err.
	KindError
)

// String implements fmt.Stringer
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindData:
		return "data"
	case KindAgain:
		return "again"
	case KindError:
		return "error"
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Outcome is the result of Read. Only the accessors matching Kind return
// non-zero values.
type Outcome struct {
	kind Kind
	data []byte
	err  *Error
}

// Empty returns an Outcome of KindEmpty.
func Empty() Outcome {
	return Outcome{kind: KindEmpty}
}

// Data returns an Outcome of KindData holding b.
func Data(b []byte) Outcome {
	return Outcome{kind: KindData, data: b}
}

// Again returns an Outcome of KindAgain.
func Again() Outcome {
	return Outcome{kind: KindAgain}
}

// Failed returns an Outcome of KindError.
func Failed(err *Error) Outcome {
	return Outcome{kind: KindError, err: err}
}

// Kind returns the shape of this outcome.
func (o Outcome) Kind() Kind {
	return o.kind
}

// Data returns the bytes read, or nil unless Kind is KindData.
func (o Outcome) Data() []byte {
	return o.data
}

// WouldBlock returns true when Kind is KindAgain.
func (o Outcome) WouldBlock() bool {
	return o.kind == KindAgain
}

// Err returns the failure, or nil unless Kind is KindError.
func (o Outcome) Err() error {
	if o.err == nil {
		return nil
	}
	return o.err
}

// Failure returns the failure as *Error, or nil unless Kind is KindError.
func (o Outcome) Failure() *Error {
	return o.err
}

// Result returns the outcome as a tuple. At most one of the values is
// non-zero; all are zero for KindEmpty.
func (o Outcome) Result() (data []byte, wouldBlock bool, err error) {
	return o.Data(), o.WouldBlock(), o.Err()
}

// String implements fmt.Stringer
func (o Outcome) String() string {
	switch o.kind {
	case KindData:
		return fmt.Sprintf("data(%d bytes)", len(o.data))
	case KindError:
		return "error(" + o.err.Error() + ")"
	}
	return o.kind.String()
}

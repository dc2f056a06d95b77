package vm

import (
	"errors"
	"fmt"
)

// Error kinds raised by builtin operations. Each is fatal to the builtin
// call that raised it and propagates to the capability that made the call.
var (
	ErrInvalidSize      = errors.New("invalid size")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrBufferNotFound   = errors.New("buffer not found")
	ErrOverflow         = errors.New("overflow")
	ErrUnderflow        = errors.New("underflow")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrRange            = errors.New("range error")

	// ErrUnknownBuiltin is returned by Library.Call for names outside the
	// operation table.
	ErrUnknownBuiltin = errors.New("unknown builtin")
)

// Error describes a failed builtin call. Kind is one of the sentinel errors
// above; errors.Is(err, ErrOverflow) and friends match on it.
type Error struct {
	Op     string // builtin name, e.g. "push"
	Kind   error  // sentinel kind
	Buffer int32  // buffer id involved, -1 if none
	Detail string
}

func (e *Error) Error() string {
	msg := "semigrafx: " + e.Op + ": " + e.Kind.Error()
	if e.Buffer >= 0 {
		msg += fmt.Sprintf(" (buffer %d)", e.Buffer)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func opError(op string, kind error, buffer int32, format string, args ...any) *Error {
	return &Error{
		Op:     op,
		Kind:   kind,
		Buffer: buffer,
		Detail: fmt.Sprintf(format, args...),
	}
}

package client

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/mkv/lib/codec"
	"github.com/ValentinKolb/mkv/lib/db"
)

// --------------------------------------------------------------------------
// Custom Error Types
// --------------------------------------------------------------------------

// ReplyError is an error reply of the store. Code is the first word of the
// reply (e.g. "ERR" or "WRONGTYPE") and can be used to tell failures apart.
type ReplyError struct {
	Code string // The error code
	Msg  string // The error message (may be empty)
}

// Error implements the error interface.
func (e *ReplyError) Error() string {
	if e.Msg == "" {
		return e.Code
	}
	return fmt.Sprintf("%s %s", e.Code, e.Msg)
}

// NewReplyError creates a new ReplyError with the given code and message.
func NewReplyError(code, msg string) *ReplyError {
	return &ReplyError{
		Code: code,
		Msg:  msg,
	}
}

// ArgumentError is returned for arguments of the wrong type or shape.
// It is always returned before the engine is touched.
type ArgumentError struct {
	Op  string // The operation that rejected the argument
	Msg string
	Err error // optional cause
}

func (e *ArgumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// ErrWatch is the cause of every *WatchError
var ErrWatch = errors.New("watched variable changed")

// WatchError is returned by Pipeline.Execute if a watched key was modified after it was watched.
type WatchError struct {
	Key string
}

func (e *WatchError) Error() string {
	return fmt.Sprintf("%v: %q", ErrWatch, e.Key)
}

func (e *WatchError) Unwrap() error {
	return ErrWatch
}

// ExecError is returned by Pipeline.Execute if a queued operation failed.
// The operations before Index have been applied and are not undone.
type ExecError struct {
	Index int
	Err   error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("pipeline operation %d failed: %v", e.Index, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// --------------------------------------------------------------------------
// Error translation
// --------------------------------------------------------------------------

var (
	errWrongType     = NewReplyError("WRONGTYPE", "Operation against a key holding the wrong kind of value")
	errNotInteger    = NewReplyError("ERR", "value is not an integer or out of range")
	errIndexRange    = NewReplyError("ERR", "index out of range")
	errSyntax        = NewReplyError("ERR", "syntax error")
	errInvalidExpire = NewReplyError("ERR", "invalid expire time in set")
)

// translate maps engine and codec errors to the errors returned to callers.
// Every type mismatch results in the same WRONGTYPE reply regardless of the operation.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, db.ErrWrongType):
		return errWrongType
	case errors.Is(err, db.ErrNotInteger):
		return errNotInteger
	case errors.Is(err, db.ErrSyntax):
		return errSyntax
	case errors.Is(err, codec.ErrUnsupportedType):
		return &ArgumentError{Op: op, Msg: "invalid argument", Err: err}
	default:
		return err
	}
}

func unsupported(op string) error {
	return NewReplyError("ERR", fmt.Sprintf("%s is not supported by the engine", op))
}

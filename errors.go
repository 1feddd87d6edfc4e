package tcltk

import (
	"errors"
	"fmt"
)

// Sentinels for matching error kinds with [errors.Is].
var (
	ErrInterp  = errors.New("interpreter error")
	ErrNotList = errors.New("not a list")
	ErrDecode  = errors.New("decode error")
	ErrNumeric = errors.New("numeric range error")
)

// Control sentinels. A callback returning ErrBreak or ErrContinue completes
// with the interpreter's break or continue code instead of an error.
var (
	ErrBreak    = errors.New("break")
	ErrContinue = errors.New("continue")
)

var (
	// ErrClosed is returned by operations on a closed Interp.
	ErrClosed = errors.New("tcltk: interpreter closed")
	// ErrNameInUse is returned when binding a name that is already registered.
	ErrNameInUse = errors.New("tcltk: command name in use")
)

// ReturnCode is a TCL completion code.
type ReturnCode int

const (
	ReturnOK       ReturnCode = 0
	ReturnError    ReturnCode = 1
	ReturnReturn   ReturnCode = 2
	ReturnBreak    ReturnCode = 3
	ReturnContinue ReturnCode = 4
)

func (c ReturnCode) String() string {
	switch c {
	case ReturnOK:
		return "ok"
	case ReturnError:
		return "error"
	case ReturnReturn:
		return "return"
	case ReturnBreak:
		return "break"
	case ReturnContinue:
		return "continue"
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// InterpError is returned when the interpreter executes a command and
// reports failure.
type InterpError struct {
	Message string
	// Code is the machine-readable -errorcode list, or nil when the
	// interpreter supplied none.
	Code *Obj
	// Info is the -errorinfo stack trace, if any.
	Info string
	// ReturnCode is the completion code; ReturnError unless a break or
	// continue escaped to the top level.
	ReturnCode ReturnCode

	cause error
}

func (e *InterpError) Error() string { return e.Message }

// Unwrap returns the Go error that caused the failure, if the failure
// originated in a Go command.
func (e *InterpError) Unwrap() error { return e.cause }

func (e *InterpError) Is(target error) bool { return target == ErrInterp }

// NewInterpError creates an InterpError carrying cause, which stays
// reachable through errors.Is and errors.As.
func NewInterpError(msg string, code *Obj, cause error) *InterpError {
	return &InterpError{Message: msg, Code: code, ReturnCode: ReturnError, cause: cause}
}

// NotListError is returned when a value expected to be list-shaped fails the
// list grammar.
type NotListError struct {
	Value  string
	Reason string
	// Incomplete is set when the text ended inside an open brace or quote,
	// so more input could complete it.
	Incomplete bool
}

func (e *NotListError) Error() string { return e.Reason }

func (e *NotListError) Is(target error) bool { return target == ErrNotList }

// DecodeError is returned when a value is well-formed text but does not
// match the grammar of the requested type.
type DecodeError struct {
	Value string
	Type  string
	Msg   string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return fmt.Sprintf("expected %s but got %q: %v", e.Type, e.Value, e.Err)
	}
	return fmt.Sprintf("expected %s but got %q", e.Type, e.Value)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// NumericError is returned when text is a valid number that does not fit the
// requested type.
type NumericError struct {
	Value string
	Type  string
	Err   error
}

func (e *NumericError) Error() string {
	switch e.Type {
	case "double", "float32", "float64":
		return fmt.Sprintf("floating-point value too large to represent as %s: %q", e.Type, e.Value)
	}
	return fmt.Sprintf("integer value too large to represent as %s: %q", e.Type, e.Value)
}

func (e *NumericError) Unwrap() error { return e.Err }

func (e *NumericError) Is(target error) bool { return target == ErrNumeric }

// ErrorKind classifies errors produced by this package.
type ErrorKind int

const (
	ErrKindNone ErrorKind = iota
	ErrKindInterp
	ErrKindNotList
	ErrKindDecode
	ErrKindNumeric
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindInterp:
		return "interp"
	case ErrKindNotList:
		return "notlist"
	case ErrKindDecode:
		return "decode"
	case ErrKindNumeric:
		return "numeric"
	}
	return "none"
}

// KindOf reports the kind of the outermost classified error in err's chain.
// An InterpError wrapping a decode failure reports ErrKindInterp; use
// errors.As to reach the inner one.
//
//	switch tcltk.KindOf(err) {
//	case tcltk.ErrKindNotList:
//	    ...
//	}
func KindOf(err error) ErrorKind {
	for err != nil {
		switch err.(type) {
		case *InterpError:
			return ErrKindInterp
		case *NotListError:
			return ErrKindNotList
		case *DecodeError:
			return ErrKindDecode
		case *NumericError:
			return ErrKindNumeric
		}
		switch u := err.(type) {
		case interface{ Unwrap() error }:
			err = u.Unwrap()
		case interface{ Unwrap() []error }:
			for _, e := range u.Unwrap() {
				if k := KindOf(e); k != ErrKindNone {
					return k
				}
			}
			return ErrKindNone
		default:
			return ErrKindNone
		}
	}
	return ErrKindNone
}

package gifn

import (
	"errors"
	"fmt"
)

// Standard error types for GIF decoding.
var (
	ErrNoGIF         = errors.New("not a GIF file")
	ErrUnsupported   = errors.New("unsupported format")
	ErrOpen          = errors.New("open failed")
	ErrSlurp         = errors.New("decode failed")
	ErrNoFrames      = errors.New("no frames")
	ErrClose         = errors.New("close failed")
	ErrUnrecoverable = errors.New("unrecoverable error")
	ErrPaletteIndex  = errors.New("palette index out of range")
)

// Kind classifies a decode failure.
type Kind int

const (
	KindFormatMismatch Kind = iota + 1
	KindUnsupported
	KindOpenFailed
	KindSlurpFailed
	KindNoFrames
	KindPaletteIndex
	KindCloseFailed
	KindUnrecoverable
)

var kindNames = map[Kind]string{
	KindFormatMismatch: "FormatMismatch",
	KindUnsupported:    "Unsupported",
	KindOpenFailed:     "OpenFailed",
	KindSlurpFailed:    "SlurpFailed",
	KindNoFrames:       "NoFrames",
	KindPaletteIndex:   "PaletteIndex",
	KindCloseFailed:    "CloseFailed",
	KindUnrecoverable:  "Unrecoverable",
}

var kindErrors = map[Kind]error{
	KindFormatMismatch: ErrNoGIF,
	KindUnsupported:    ErrUnsupported,
	KindOpenFailed:     ErrOpen,
	KindSlurpFailed:    ErrSlurp,
	KindNoFrames:       ErrNoFrames,
	KindPaletteIndex:   ErrPaletteIndex,
	KindCloseFailed:    ErrClose,
	KindUnrecoverable:  ErrUnrecoverable,
}

// String returns the kind name, e.g. "OpenFailed".
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// Native error codes reported by codec engines.
// The numbering follows the classic GIF library decoder codes.
const (
	CodeNone         = 0
	CodeOpenFailed   = 101
	CodeReadFailed   = 102
	CodeNotGIF       = 103
	CodeNoScreenDesc = 104
	CodeNoImageDesc  = 105
	CodeNoColorMap   = 106
	CodeWrongRecord  = 107
	CodeDataTooBig   = 108
	CodeNotEnoughMem = 109
	CodeCloseFailed  = 110
	CodeNotReadable  = 111
	CodeImageDefect  = 112
	CodeEOFTooSoon   = 113
)

// CodecError is a failure reported by a codec engine together with its native code.
type CodecError struct {
	Code int
	Msg  string
}

// Error returns the native code and message.
func (e *CodecError) Error() string {
	return fmt.Sprintf("gif codec error %d: %s", e.Code, e.Msg)
}

// DecodeError is the single error value returned by a failed decode.
// It matches both its kind sentinel (e.g. ErrNoFrames) and the underlying cause with errors.Is/As.
type DecodeError struct {
	Kind Kind
	Code int   // Native codec code, CodeNone when not available.
	Err  error // Underlying cause, may be nil.
}

// Error returns the kind, native code and cause as one message.
func (e *DecodeError) Error() string {
	msg := "gifn: " + e.Kind.String()
	if sentinel, ok := kindErrors[e.Kind]; ok {
		msg = "gifn: " + sentinel.Error()
	}

	if e.Code != CodeNone {
		msg += fmt.Sprintf(" (code %d)", e.Code)
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the kind sentinel and the underlying cause, when present.
func (e *DecodeError) Unwrap() []error {
	var errs []error
	if sentinel, ok := kindErrors[e.Kind]; ok {
		errs = append(errs, sentinel)
	}

	if e.Err != nil {
		errs = append(errs, e.Err)
	}

	return errs
}

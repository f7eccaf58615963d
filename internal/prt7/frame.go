package prt7

import (
	"errors"
	"fmt"
)

// FrameKind identifies the two PRT-7 frame types.
type FrameKind int

const (
	// KindLoad delivers one encoded payload character.
	KindLoad FrameKind = iota
	// KindMap rotates the decoding rotor by a signed delta.
	KindMap
)

func (k FrameKind) String() string {
	switch k {
	case KindLoad:
		return "load"
	case KindMap:
		return "map"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Frame is one parsed PRT-7 frame. Symbol is meaningful for load frames
// and Shift for map frames; a Frame is immutable once constructed.
type Frame struct {
	Kind   FrameKind
	Symbol rune
	Shift  int
}

var (
	// ErrUnknownFrameType reports a type token other than L or M.
	ErrUnknownFrameType = errors.New("unknown frame type")
	// ErrMissingArgument reports a frame with no argument after the type token.
	ErrMissingArgument = errors.New("missing frame argument")
	// ErrBadShift reports a map argument that is not a whole signed integer.
	// Only returned when strict map number parsing is enabled.
	ErrBadShift = errors.New("malformed rotation delta")
)

// ParseError describes why a line could not be parsed into a frame. It
// wraps one of the sentinel parse errors and carries the offending token
// and the raw line for diagnostics.
type ParseError struct {
	Reason error
	Token  string
	Line   string
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%v: %q", e.Reason, e.Token)
	}
	return e.Reason.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Reason
}

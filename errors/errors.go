package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseEncode    Phase = "encode"    // builder writing values
	PhaseDecode    Phase = "decode"    // parser reading values
	PhaseTransport Phase = "transport" // moving encoded buffers
	PhaseTooling   Phase = "tooling"   // debug rendering, transcoding
)

// Kind categorizes the error
type Kind string

const (
	// KindOutOfBounds: a requested offset/size exceeds the buffer. Fatal
	// to the current operation, never silently clamped.
	KindOutOfBounds Kind = "out_of_bounds"
	// KindTruncated: a value's declared size implies bytes beyond the
	// buffer end. Distinct from KindOutOfBounds so callers can tell
	// "buffer too small" from "length field is corrupt".
	KindTruncated Kind = "truncated"
	// KindTypeMismatch: an accessor's kind disagrees with the on-wire
	// tag. Recoverable; the caller may try another accessor or skip the
	// value using its declared size.
	KindTypeMismatch Kind = "type_mismatch"
	// KindMalformedContainer: frame-stack misuse or a container whose
	// contents violate its declared bounds. Unrecoverable for the
	// current pass, but engine state stays valid for a reset.
	KindMalformedContainer Kind = "malformed_container"
	// KindGrowthFailure: the growth callback could not supply more
	// capacity. Fails the specific write; prior writes remain valid.
	KindGrowthFailure Kind = "growth_failure"
	// KindInvalidData: data that is structurally addressable but not
	// interpretable (missing NUL terminator, bad element stride, ...).
	KindInvalidData Kind = "invalid_data"
)

// Error is the structured error type used throughout the library
type Error struct {
	Cause    error
	Phase    Phase
	Kind     Kind
	WantType string
	GotType  string
	Detail   string
	Offset   int64 // byte offset in the buffer, -1 when not applicable
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Offset >= 0 {
		fmt.Fprintf(&b, " at offset %d", e.Offset)
	}

	if e.WantType != "" || e.GotType != "" {
		b.WriteString(": ")
		if e.WantType != "" && e.GotType != "" {
			b.WriteString("want ")
			b.WriteString(e.WantType)
			b.WriteString(", got ")
			b.WriteString(e.GotType)
		} else if e.WantType != "" {
			b.WriteString("want ")
			b.WriteString(e.WantType)
		} else {
			b.WriteString("got ")
			b.WriteString(e.GotType)
		}
	}

	if e.Detail != "" {
		if e.WantType != "" || e.GotType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. Two Errors match when
// their Phase and Kind agree, so sentinel-style comparisons like
// errors.Is(err, &Error{Phase: PhaseDecode, Kind: KindTruncated}) work.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether err is an *Error of the given kind, in any phase.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// At returns a copy of the error annotated with a buffer offset.
func (e *Error) At(offset uint32) *Error {
	c := *e
	c.Offset = int64(offset)
	return &c
}

// Convenience constructors for common error patterns

// OutOfBounds creates an out-of-bounds error for a span request
func OutOfBounds(phase Phase, offset, size, bound uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Offset: int64(offset),
		Detail: fmt.Sprintf("need %d bytes, buffer holds %d", size, bound),
	}
}

// Truncated creates an error for a value whose declared size overruns the buffer
func Truncated(phase Phase, offset, declared, bound uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTruncated,
		Offset: int64(offset),
		Detail: fmt.Sprintf("declared size %d exceeds remaining %d bytes", declared, bound-offset),
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, want, got string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		WantType: want,
		GotType:  got,
		Offset:   -1,
	}
}

// MalformedContainer creates a frame-stack or container-bounds violation error
func MalformedContainer(phase Phase, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  phase,
		Kind:   KindMalformedContainer,
		Detail: detail,
		Offset: -1,
	}
}

// GrowthFailure creates an error for a write that could not get capacity
func GrowthFailure(needed uint32, cause error) *Error {
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindGrowthFailure,
		Detail: fmt.Sprintf("could not grow buffer to %d bytes", needed),
		Cause:  cause,
		Offset: -1,
	}
}

// InvalidData creates an error for structurally unusable data
func InvalidData(phase Phase, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Detail: detail,
		Offset: -1,
	}
}

// Wrap wraps an existing error with phase and kind context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
		Offset: -1,
	}
}

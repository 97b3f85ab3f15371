package vm

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Error kinds
// ---------------------------------------------------------------------------

// ErrorKind classifies a failure raised at the primitive boundary.
type ErrorKind uint8

const (
	BoundsExceeded ErrorKind = iota + 1
	InvalidArgument
	FrozenObject
	UnsupportedType
	PrimitiveFailed
	InternalConsistency
)

var errorKindNames = map[ErrorKind]string{
	BoundsExceeded:      "ObjectBoundsExceededError",
	InvalidArgument:     "ArgumentError",
	FrozenObject:        "FrozenError",
	UnsupportedType:     "TypeError",
	PrimitiveFailed:     "PrimitiveFailure",
	InternalConsistency: "InternalConsistencyError",
}

// String returns the language-level exception class name for the kind.
func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// Recoverable reports whether interpreted code may rescue the kind.
func (k ErrorKind) Recoverable() bool {
	return k != InternalConsistency
}

// Sentinels for errors.Is matching against *Exception values.
var (
	ErrBoundsExceeded      = errors.New("object bounds exceeded")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrFrozenObject        = errors.New("can't modify frozen object")
	ErrUnsupportedType     = errors.New("unsupported type")
	ErrPrimitiveFailed     = errors.New("primitive failed")
	ErrInternalConsistency = errors.New("internal consistency violation")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case BoundsExceeded:
		return ErrBoundsExceeded
	case InvalidArgument:
		return ErrInvalidArgument
	case FrozenObject:
		return ErrFrozenObject
	case UnsupportedType:
		return ErrUnsupportedType
	case PrimitiveFailed:
		return ErrPrimitiveFailed
	case InternalConsistency:
		return ErrInternalConsistency
	}
	return nil
}

// ---------------------------------------------------------------------------
// Exception: recoverable VM-level failures
// ---------------------------------------------------------------------------

// Exception is a recoverable failure raised by a primitive. The interpreter
// turns it into a language-level exception; it never aborts the process.
type Exception struct {
	Kind    ErrorKind
	Message string
	Object  Value // receiver or offending object; Nil if none
	Index   int64 // offending index for BoundsExceeded
	Bound   int64 // valid bound for BoundsExceeded
}

func (e *Exception) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches the sentinel for the exception's kind.
func (e *Exception) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// Unwrap exposes the kind sentinel.
func (e *Exception) Unwrap() error {
	return e.Kind.sentinel()
}

func boundsExceeded(obj Value, index, bound int64) *Exception {
	return &Exception{
		Kind:    BoundsExceeded,
		Message: fmt.Sprintf("index %d out of bounds for %d fields", index, bound),
		Object:  obj,
		Index:   index,
		Bound:   bound,
	}
}

func rangeExceeded(obj Value, start, end, bound int64) *Exception {
	return &Exception{
		Kind:    BoundsExceeded,
		Message: fmt.Sprintf("range %d..%d out of bounds for %d fields", start, end, bound),
		Object:  obj,
		Index:   start,
		Bound:   bound,
	}
}

func invalidArgument(format string, args ...any) *Exception {
	return &Exception{Kind: InvalidArgument, Message: fmt.Sprintf(format, args...), Object: Nil}
}

func frozenObject(obj Value) *Exception {
	return &Exception{Kind: FrozenObject, Message: "can't modify frozen object", Object: obj}
}

func unsupportedType(obj Value, format string, args ...any) *Exception {
	return &Exception{Kind: UnsupportedType, Message: fmt.Sprintf(format, args...), Object: obj}
}

func primitiveFailed(format string, args ...any) *Exception {
	return &Exception{Kind: PrimitiveFailed, Message: fmt.Sprintf(format, args...), Object: Nil}
}

// AsException extracts an *Exception from err.
func AsException(err error) (*Exception, bool) {
	var ex *Exception
	if errors.As(err, &ex) {
		return ex, true
	}
	return nil, false
}

// ---------------------------------------------------------------------------
// InternalError: fatal runtime bugs
// ---------------------------------------------------------------------------

// InternalError is panicked when an invariant the runtime itself relies on
// is broken. It is never converted into an Exception: continuing would risk
// a heap the collector cannot trust.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return "internal consistency violation: " + e.Message
}

// Is matches ErrInternalConsistency.
func (e *InternalError) Is(target error) bool {
	return target == ErrInternalConsistency
}

func internalErrorf(format string, args ...any) *InternalError {
	return &InternalError{Message: fmt.Sprintf(format, args...)}
}

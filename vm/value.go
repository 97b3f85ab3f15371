package vm

import "fmt"

// Value is a tagged machine word.
//
// The low three bits hold the tag and the remaining 61 bits the payload:
//   - Object:  tag 000, payload is a Handle into the object memory
//   - Fixnum:  tag 001, payload is a 61-bit signed integer
//   - Special: tag 010, payload selects nil/true/false/undef
//   - Symbol:  tag 011, payload is an interned symbol ID
//
// The all-zero word is Null: an object reference with handle 0. It is the
// raw "no pointer" representation and is distinct from Nil.
type Value uint64

// Tagging constants
const (
	tagBits           = 3
	tagMask    uint64 = 0x7
	tagObject  uint64 = 0x0
	tagFixnum  uint64 = 0x1
	tagSpecial uint64 = 0x2
	tagSymbol  uint64 = 0x3
)

// Special value payloads
const (
	specialNil   uint64 = 0
	specialTrue  uint64 = 1
	specialFalse uint64 = 2
	specialUndef uint64 = 3
)

// Pre-defined values
const (
	Null  Value = 0
	Nil   Value = Value(specialNil<<tagBits | tagSpecial)
	True  Value = Value(specialTrue<<tagBits | tagSpecial)
	False Value = Value(specialFalse<<tagBits | tagSpecial)
	Undef Value = Value(specialUndef<<tagBits | tagSpecial)
)

// Fixnum range (61-bit signed)
const (
	MaxFixnum int64 = (1 << 60) - 1
	MinFixnum int64 = -(1 << 60)
)

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

// IsReference returns true if v is tagged as an object reference, including Null.
func (v Value) IsReference() bool {
	return uint64(v)&tagMask == tagObject
}

// IsObject returns true if v refers to a heap object. Null is not an object.
func (v Value) IsObject() bool {
	return v.IsReference() && v != Null
}

// IsNull returns true for the zero word.
func (v Value) IsNull() bool {
	return v == Null
}

// IsFixnum returns true if v is a fixed-width integer.
func (v Value) IsFixnum() bool {
	return uint64(v)&tagMask == tagFixnum
}

// IsSpecial returns true if v is nil, true, false or undef.
func (v Value) IsSpecial() bool {
	return uint64(v)&tagMask == tagSpecial
}

// IsSymbol returns true if v is an interned symbol.
func (v Value) IsSymbol() bool {
	return uint64(v)&tagMask == tagSymbol
}

// IsNil returns true if v is the nil sentinel.
func (v Value) IsNil() bool {
	return v == Nil
}

// IsImmediate returns true for values that carry their payload in the word
// itself. Immediates have no heap identity.
func (v Value) IsImmediate() bool {
	return !v.IsReference()
}

// ---------------------------------------------------------------------------
// Fixnum operations
// ---------------------------------------------------------------------------

// Fixnum returns v as an int64.
// Panics if v is not a fixnum.
func (v Value) Fixnum() int64 {
	if !v.IsFixnum() {
		panic("Value.Fixnum: not a fixnum")
	}
	return int64(v) >> tagBits
}

// FromFixnum creates a Value from an int64.
// Panics if n is outside the fixnum range.
func FromFixnum(n int64) Value {
	if n > MaxFixnum || n < MinFixnum {
		panic("FromFixnum: value out of range")
	}
	return Value(uint64(n)<<tagBits | tagFixnum)
}

// TryFromFixnum creates a Value from an int64, returning false if out of range.
func TryFromFixnum(n int64) (Value, bool) {
	if n > MaxFixnum || n < MinFixnum {
		return Nil, false
	}
	return Value(uint64(n)<<tagBits | tagFixnum), true
}

// ---------------------------------------------------------------------------
// Object handles
// ---------------------------------------------------------------------------

// Handle identifies an object in the object memory. Handle 0 is never
// allocated.
type Handle uint32

// Handle returns the object handle encoded in v.
// Panics if v is not a reference.
func (v Value) Handle() Handle {
	if !v.IsReference() {
		panic("Value.Handle: not an object reference")
	}
	return Handle(uint64(v) >> tagBits)
}

// FromHandle creates an object reference.
func FromHandle(h Handle) Value {
	return Value(uint64(h)<<tagBits | tagObject)
}

// ---------------------------------------------------------------------------
// Symbols
// ---------------------------------------------------------------------------

// SymbolID returns the symbol ID encoded in v.
// Panics if v is not a symbol.
func (v Value) SymbolID() uint32 {
	if !v.IsSymbol() {
		panic("Value.SymbolID: not a symbol")
	}
	return uint32(uint64(v) >> tagBits)
}

// FromSymbolID creates a Value from a symbol ID.
func FromSymbolID(id uint32) Value {
	return Value(uint64(id)<<tagBits | tagSymbol)
}

// ---------------------------------------------------------------------------
// Booleans
// ---------------------------------------------------------------------------

// FromBool creates a Value from a bool.
func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// IsTruthy returns true if v is considered "truthy" in conditionals.
// Only false and nil are falsy.
func (v Value) IsTruthy() bool {
	return v != False && v != Nil
}

// String renders immediates; objects are rendered by handle only. Use
// State.ShowSimple for a class-aware rendering.
func (v Value) String() string {
	switch {
	case v == Null:
		return "NULL"
	case v == Nil:
		return "nil"
	case v == True:
		return "true"
	case v == False:
		return "false"
	case v == Undef:
		return "undef"
	case v.IsFixnum():
		return fmt.Sprintf("%d", v.Fixnum())
	case v.IsSymbol():
		return fmt.Sprintf("#<symbol:%d>", v.SymbolID())
	case v.IsObject():
		return fmt.Sprintf("#<0x%x>", uint32(v.Handle()))
	}
	return fmt.Sprintf("<unknown:0x%016x>", uint64(v))
}

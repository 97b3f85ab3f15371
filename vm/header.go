package vm

// ---------------------------------------------------------------------------
// Object types
// ---------------------------------------------------------------------------

// ObjType tags the concrete layout of a heap object. The collector and
// the primitive boundary dispatch on it through the TypeInfo table.
type ObjType uint8

const (
	InvalidType ObjType = iota
	ObjectType
	TupleType
	ClassType
	ByteArrayType

	numObjectTypes
)

var objectTypeNames = [numObjectTypes]string{
	InvalidType:   "Invalid",
	ObjectType:    "Object",
	TupleType:     "Tuple",
	ClassType:     "Class",
	ByteArrayType: "ByteArray",
}

// String returns the type name.
func (t ObjType) String() string {
	if t >= numObjectTypes {
		return "Unknown"
	}
	return objectTypeNames[t]
}

// ---------------------------------------------------------------------------
// Flags
// ---------------------------------------------------------------------------

// Flags packs the header's boolean attributes, one bit each.
type Flags uint16

const (
	FlagForwarded Flags = 1 << iota
	FlagForeverYoung
	FlagStoresBytes
	FlagRequiresCleanup
	FlagIsBlockContext
	FlagIsMeta
	FlagIsTainted
	FlagIsFrozen
	FlagRefsAreWeak
)

// Has reports whether every bit in mask is set.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// With returns f with mask set or cleared.
func (f Flags) With(mask Flags, on bool) Flags {
	if on {
		return f | mask
	}
	return f &^ mask
}

func (f Flags) Forwarded() bool       { return f.Has(FlagForwarded) }
func (f Flags) ForeverYoung() bool    { return f.Has(FlagForeverYoung) }
func (f Flags) StoresBytes() bool     { return f.Has(FlagStoresBytes) }
func (f Flags) RequiresCleanup() bool { return f.Has(FlagRequiresCleanup) }
func (f Flags) IsBlockContext() bool  { return f.Has(FlagIsBlockContext) }
func (f Flags) IsMeta() bool          { return f.Has(FlagIsMeta) }
func (f Flags) IsTainted() bool       { return f.Has(FlagIsTainted) }
func (f Flags) IsFrozen() bool        { return f.Has(FlagIsFrozen) }
func (f Flags) RefsAreWeak() bool     { return f.Has(FlagRefsAreWeak) }

// ---------------------------------------------------------------------------
// Header
// ---------------------------------------------------------------------------

// Header is the fixed metadata prefix embedded in every heap object.
//
// klass and ivars are shared references; the header never owns them.
type Header struct {
	objType    ObjType
	age        uint8
	flags      Flags
	fieldCount uint32
	klass      Value
	ivars      Value
}

// Type returns the object's type tag.
func (h *Header) Type() ObjType { return h.objType }

// Age returns the object's generation counter.
func (h *Header) Age() uint8 { return h.age }

// NumFields returns the number of inline slots.
func (h *Header) NumFields() int { return int(h.fieldCount) }

// Klass returns the class reference.
func (h *Header) Klass() Value { return h.klass }

// SetKlass replaces the class reference.
func (h *Header) SetKlass(k Value) { h.klass = k }

// Ivars returns the instance-variable table reference, or Nil.
func (h *Header) Ivars() Value { return h.ivars }

// SetIvars replaces the instance-variable table reference.
func (h *Header) SetIvars(v Value) { h.ivars = v }

// Flags returns a copy of the flag bits.
func (h *Header) Flags() Flags { return h.flags }

// SetFlag sets or clears the given flag bits.
func (h *Header) SetFlag(mask Flags, on bool) { h.flags = h.flags.With(mask, on) }

func (h *Header) IsForwarded() bool { return h.flags.Forwarded() }
func (h *Header) IsFrozen() bool    { return h.flags.IsFrozen() }
func (h *Header) RefsAreWeak() bool { return h.flags.RefsAreWeak() }
func (h *Header) StoresBytes() bool { return h.flags.StoresBytes() }

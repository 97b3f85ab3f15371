package vm

// Object is a heap-allocated value: a Header followed by an inline body of
// exactly fieldCount slots.
//
// The body is sized once at allocation and never grows or shrinks, so every
// index check can use NumFields directly. Objects are reached through their
// Handle; when the collector relocates an object it flags the old storage as
// forwarded and points forwardee at the copy.
type Object struct {
	Header

	handle    Handle
	forwardee *Object
	body      []Value
}

// newObjectStorage returns zero-header storage with a body of n Null slots.
// Callers must set the type and fill the body before the object is visible.
func newObjectStorage(n int) *Object {
	return &Object{
		Header: Header{fieldCount: uint32(n), klass: Nil, ivars: Nil},
		body:   make([]Value, n),
	}
}

// Handle returns the object's identity in the object memory.
func (obj *Object) Handle() Handle {
	return obj.handle
}

// ToValue returns a reference to the object.
func (obj *Object) ToValue() Value {
	return FromHandle(obj.handle)
}

// Forwardee returns the storage this object was relocated to, or nil.
func (obj *Object) Forwardee() *Object {
	return obj.forwardee
}

// Resolve follows forwarding links to the current storage.
func (obj *Object) Resolve() *Object {
	for obj.IsForwarded() && obj.forwardee != nil {
		obj = obj.forwardee
	}
	return obj
}

// ---------------------------------------------------------------------------
// Body access
// ---------------------------------------------------------------------------

// Field returns slot i. The index must already have been validated; an out
// of range index is an internal consistency failure.
func (obj *Object) Field(i int) Value {
	if i < 0 || i >= obj.NumFields() {
		panic(internalErrorf("Object.Field: index %d outside body of %d", i, obj.NumFields()))
	}
	return obj.body[i]
}

// SetField stores v in slot i with the same contract as Field.
func (obj *Object) SetField(i int, v Value) {
	if i < 0 || i >= obj.NumFields() {
		panic(internalErrorf("Object.SetField: index %d outside body of %d", i, obj.NumFields()))
	}
	obj.body[i] = v
}

// Fields returns a copy of the body.
func (obj *Object) Fields() []Value {
	out := make([]Value, len(obj.body))
	copy(out, obj.body)
	return out
}

// ForEachField calls fn for each slot in order.
func (obj *Object) ForEachField(fn func(index int, value Value)) {
	for i, v := range obj.body {
		fn(i, v)
	}
}

// ---------------------------------------------------------------------------
// Header copy contract
// ---------------------------------------------------------------------------

// InitializeAsCopy copies the type, field count, class, ivars and every
// flag except forwarded from source, and sets the age to newAge. The body
// is left untouched; see CopyBody.
func (obj *Object) InitializeAsCopy(source *Object, newAge uint8) {
	obj.objType = source.objType
	obj.age = newAge
	obj.fieldCount = source.fieldCount
	obj.klass = source.klass
	obj.ivars = source.ivars
	obj.flags = source.flags.With(FlagForwarded, false)
	obj.forwardee = nil

	if len(obj.body) != int(obj.fieldCount) {
		obj.body = make([]Value, obj.fieldCount)
	}
}

// CopyBody copies source's slots verbatim. Slot contents are not
// interpreted, so raw byte bodies copy the same way reference bodies do.
// Panics with an *InternalError if the field counts differ.
func (obj *Object) CopyBody(source *Object) {
	if obj.fieldCount != source.fieldCount {
		panic(internalErrorf("copy body: field count %d does not match source %d",
			obj.fieldCount, source.fieldCount))
	}
	copy(obj.body, source.body)
}

// ClearFields sets every slot, and the ivars reference, to Nil. Safe on a
// live object.
func (obj *Object) ClearFields() {
	obj.ivars = Nil
	for i := range obj.body {
		obj.body[i] = Nil
	}
}

// ClearBodyToNull sets every slot to Null. Only for objects that are about
// to be reclaimed or are not yet visible to any reader.
func (obj *Object) ClearBodyToNull() {
	for i := range obj.body {
		obj.body[i] = Null
	}
}

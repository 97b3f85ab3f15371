package vm

import "io"

// ---------------------------------------------------------------------------
// Tuple: fixed-length inline array of references
// ---------------------------------------------------------------------------

// Tuple is an Object of TupleType viewed as a fixed-length array. The
// field count is set at allocation and never changes, so every bounds check
// reads it from the header.
//
// A Tuple flagged RefsAreWeak holds weak references: the collector does not
// trace its slots and replaces references to reclaimed objects with Nil.
type Tuple Object

// AsTuple downcasts obj if its type tag is TupleType.
func AsTuple(obj *Object) (*Tuple, bool) {
	if obj == nil || obj.objType != TupleType {
		return nil, false
	}
	return (*Tuple)(obj), true
}

// TupleOf returns the tuple v refers to.
func (st *State) TupleOf(v Value) (*Tuple, bool) {
	obj, ok := st.Memory.Object(v)
	if !ok {
		return nil, false
	}
	return AsTuple(obj)
}

// Object returns the underlying object.
func (t *Tuple) Object() *Object {
	return (*Object)(t)
}

// ToValue returns a reference to the tuple.
func (t *Tuple) ToValue() Value {
	return FromHandle(t.handle)
}

// NumFields returns the tuple's length.
func (t *Tuple) NumFields() int {
	return int(t.fieldCount)
}

// live returns the tuple's current storage. A *Tuple obtained before a
// collection may point at storage the collector has since forwarded.
func (t *Tuple) live() *Tuple {
	return (*Tuple)(t.Object().Resolve())
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

// CreateTuple allocates a tuple of n Nil slots. n is trusted; a negative
// count is an internal error. Primitives use AllocateTuple.
func (st *State) CreateTuple(n int) *Tuple {
	if n < 0 || int64(n) > MaxFields {
		panic(internalErrorf("CreateTuple: bad field count %d", n))
	}
	obj := st.Memory.allocate(TupleType, st.TupleClass, n)
	for i := range obj.body {
		obj.body[i] = Nil
	}
	return (*Tuple)(obj)
}

// AllocateTuple allocates a tuple of n Nil slots, failing with
// InvalidArgument if n is negative.
func (st *State) AllocateTuple(n int64) (*Tuple, error) {
	if err := st.checkSize("tuple", n); err != nil {
		return nil, err
	}
	return st.CreateTuple(int(n)), nil
}

// TupleFrom allocates a tuple holding values in order.
func (st *State) TupleFrom(values ...Value) *Tuple {
	t := st.CreateTuple(len(values))
	copy(t.body, values)
	return t
}

// TuplePattern allocates a tuple of n slots each holding v.
func (st *State) TuplePattern(n int64, v Value) (*Tuple, error) {
	if err := st.checkSize("tuple", n); err != nil {
		return nil, err
	}
	obj := st.Memory.allocate(TupleType, st.TupleClass, int(n))
	for i := range obj.body {
		obj.body[i] = v
	}
	return (*Tuple)(obj), nil
}

// CreateWeakref returns a one-slot weak tuple referring to v. Reading slot
// 0 yields v while it is reachable elsewhere and Nil once it has been
// reclaimed. Immediates and dead references cannot be weakly referenced.
func (st *State) CreateWeakref(v Value) (*Tuple, error) {
	if !v.IsObject() {
		return nil, unsupportedType(v, "cannot create a weak reference to %s", st.Inspect(v))
	}
	if _, ok := st.Memory.Object(v); !ok {
		return nil, unsupportedType(v, "cannot create a weak reference to reclaimed object %s", v)
	}
	t := st.CreateTuple(1)
	t.body[0] = v
	t.SetFlag(FlagRefsAreWeak, true)
	return t, nil
}

// ---------------------------------------------------------------------------
// Access
// ---------------------------------------------------------------------------

// At returns the value at index i.
func (t *Tuple) At(i int64) (Value, error) {
	t = t.live()
	if i < 0 || i >= int64(t.fieldCount) {
		return Nil, boundsExceeded(t.ToValue(), i, int64(t.fieldCount))
	}
	return t.body[i], nil
}

// Put stores v at index i and returns v.
func (t *Tuple) Put(i int64, v Value) (Value, error) {
	t = t.live()
	if t.IsFrozen() {
		return Nil, frozenObject(t.ToValue())
	}
	if i < 0 || i >= int64(t.fieldCount) {
		return Nil, boundsExceeded(t.ToValue(), i, int64(t.fieldCount))
	}
	t.body[i] = v
	return v, nil
}

// Fields returns the tuple's length as a fixnum.
func (t *Tuple) Fields() Value {
	return FromFixnum(int64(t.live().fieldCount))
}

// CopyFrom copies as many slots as fit from other, starting at start, into
// t starting at dest. Overlapping ranges of the same tuple copy as if the
// source had been read in full first.
func (t *Tuple) CopyFrom(other *Tuple, start, dest int64) error {
	t, other = t.live(), other.live()
	srcLen, dstLen := int64(other.fieldCount), int64(t.fieldCount)

	if start < 0 || start > srcLen {
		return boundsExceeded(other.ToValue(), start, srcLen)
	}
	if dest < 0 || dest > dstLen {
		return boundsExceeded(t.ToValue(), dest, dstLen)
	}
	if t.IsFrozen() {
		return frozenObject(t.ToValue())
	}

	n := min(srcLen-start, dstLen-dest)
	copy(t.body[dest:dest+n], other.body[start:start+n])
	return nil
}

// CopyRange copies slots start through end of other, both inclusive, into t
// at dest. start == end+1 names the empty range. Unlike CopyFrom it never
// truncates: the whole range must fit.
func (t *Tuple) CopyRange(other *Tuple, start, end, dest int64) error {
	t, other = t.live(), other.live()
	srcLen, dstLen := int64(other.fieldCount), int64(t.fieldCount)

	if start < 0 || start > end+1 || end >= srcLen {
		return rangeExceeded(other.ToValue(), start, end, srcLen)
	}
	n := end - start + 1
	if dest < 0 || dest > dstLen || n > dstLen-dest {
		return rangeExceeded(t.ToValue(), dest, dest+n-1, dstLen)
	}
	if t.IsFrozen() {
		return frozenObject(t.ToValue())
	}

	copy(t.body[dest:dest+n], other.body[start:end+1])
	return nil
}

// ---------------------------------------------------------------------------
// TypeInfo
// ---------------------------------------------------------------------------

func markTuple(obj *Object, mark ObjectMark) {
	if obj.RefsAreWeak() {
		mark.MarkWeak(obj)
		return
	}
	for _, v := range obj.body {
		mark.Mark(v)
	}
}

func showTuple(st *State, w io.Writer, obj *Object, level int) {
	showSlots(st, w, obj, level, "[", "]")
}

func showSimpleTuple(st *State, w io.Writer, obj *Object, level int) {
	showSimpleSlots(st, w, obj, level, "[", "]")
}

func init() {
	registerTypeInfo(&TypeInfo{
		Type:       TupleType,
		Mark:       markTuple,
		Show:       showTuple,
		ShowSimple: showSimpleTuple,
	})
}

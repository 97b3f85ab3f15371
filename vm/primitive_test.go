package vm

import (
	"errors"
	"slices"
	"testing"
)

func TestPrimitiveNamesRegistered(t *testing.T) {
	st := newTestState(t)
	want := []string{
		"bytearray_allocate",
		"bytearray_get_byte",
		"bytearray_set_byte",
		"bytearray_size",
		"object_clear_fields",
		"object_dup",
		"object_freeze",
		"object_frozen_p",
		"tuple_allocate",
		"tuple_at",
		"tuple_copy_from",
		"tuple_copy_range",
		"tuple_create_weakref",
		"tuple_fields",
		"tuple_pattern",
		"tuple_put",
	}
	if got := st.Primitives.Names(); !slices.Equal(got, want) {
		t.Errorf("Names() = %v\nwant %v", got, want)
	}
}

func TestPrimitiveSignature(t *testing.T) {
	st := newTestState(t)

	tests := map[string]string{
		"tuple_at":         "tuple_at(Tuple, Fixnum)",
		"tuple_allocate":   "tuple_allocate(Tuple class, Fixnum)",
		"tuple_copy_range": "tuple_copy_range(Tuple, Tuple, Fixnum, Fixnum, Fixnum)",
		"object_dup":       "object_dup(Object)",
	}
	for name, want := range tests {
		p, ok := st.Primitives.Lookup(name)
		if !ok {
			t.Fatalf("%s not registered", name)
		}
		if got := p.Signature(); got != want {
			t.Errorf("Signature() = %q, want %q", got, want)
		}
	}
}

func TestRegisterRejectsDuplicatesAndIncomplete(t *testing.T) {
	table := NewPrimitiveTable()
	noop := func(*State, Value, []Value) (Value, error) { return Nil, nil }

	if err := table.Register(&Primitive{Name: "x", invoke: noop}); err != nil {
		t.Fatal(err)
	}
	if err := table.Register(&Primitive{Name: "x", invoke: noop}); err == nil {
		t.Error("duplicate name should be rejected")
	}
	if err := table.Register(&Primitive{Name: "y"}); err == nil {
		t.Error("entry without a body should be rejected")
	}
	if table.Len() != 1 {
		t.Errorf("Len() = %d, want 1", table.Len())
	}
}

// ---------------------------------------------------------------------------
// Dispatch contract checks
// ---------------------------------------------------------------------------

func expectPrimitiveFailed(t *testing.T, err error) {
	t.Helper()
	expectKind(t, err, PrimitiveFailed)
	if !errors.Is(err, ErrPrimitiveFailed) {
		t.Error("errors.Is should match ErrPrimitiveFailed")
	}
}

func TestCallUnknownPrimitive(t *testing.T) {
	st := newTestState(t)
	_, err := st.Call("tuple_frobnicate", st.TupleClass)
	expectPrimitiveFailed(t, err)
}

func TestCallWrongArity(t *testing.T) {
	st := newTestState(t)
	tup := st.TupleFrom(FromFixnum(1))

	_, err := st.Call("tuple_put", tup.ToValue(), FromFixnum(0))
	expectPrimitiveFailed(t, err)
	_, err = st.Call("tuple_fields", tup.ToValue(), Nil)
	expectPrimitiveFailed(t, err)
	assertSlots(t, tup, fixnums(1))
}

func TestCallArgumentKindValidatedBeforeMutation(t *testing.T) {
	st := newTestState(t)
	a := st.TupleFrom(fixnums(0, 1, 2)...)
	b := st.TupleFrom(fixnums(7, 7, 7)...)

	// Index is not a fixnum.
	_, err := st.Call("tuple_put", a.ToValue(), Nil, FromFixnum(5))
	expectPrimitiveFailed(t, err)

	// Source is not a tuple; the last argument is also wrong.
	_, err = st.Call("tuple_copy_range", b.ToValue(), FromFixnum(1), FromFixnum(0), FromFixnum(2), FromFixnum(0))
	expectPrimitiveFailed(t, err)

	// Last argument wrong, everything before it valid.
	_, err = st.Call("tuple_copy_range", b.ToValue(), a.ToValue(), FromFixnum(0), FromFixnum(2), True)
	expectPrimitiveFailed(t, err)

	assertSlots(t, a, fixnums(0, 1, 2))
	assertSlots(t, b, fixnums(7, 7, 7))
}

func TestCallRejectsDeadReferences(t *testing.T) {
	st := newTestState(t)
	tup := st.TupleFrom(fixnums(1, 2)...)
	st.Memory.AddRoot(tup.ToValue())

	dead := st.TupleFrom().ToValue()
	st.Collect()
	if _, ok := st.Memory.Object(dead); ok {
		t.Fatal("unreferenced tuple survived collection")
	}

	_, err := st.Call("tuple_put", tup.ToValue(), FromFixnum(0), dead)
	expectPrimitiveFailed(t, err)
	_, err = st.Call("tuple_put", tup.ToValue(), FromFixnum(1), Null)
	expectPrimitiveFailed(t, err)
	_, err = st.Call("tuple_pattern", st.TupleClass, FromFixnum(2), dead)
	expectPrimitiveFailed(t, err)
	assertSlots(t, tup, fixnums(1, 2))

	// Immediates and live objects are still accepted.
	other := st.TupleFrom()
	if _, err := st.Call("tuple_put", tup.ToValue(), FromFixnum(0), other.ToValue()); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Call("tuple_put", tup.ToValue(), FromFixnum(1), True); err != nil {
		t.Fatal(err)
	}
	st.Collect()
	if _, ok := st.Memory.Object(other.ToValue()); !ok {
		t.Error("object stored through tuple_put was reclaimed")
	}
}

func TestCallReceiverChecked(t *testing.T) {
	st := newTestState(t)
	tup := st.TupleFrom(FromFixnum(1))

	tests := []struct {
		name string
		prim string
		recv Value
		args []Value
	}{
		{"instance primitive on class", "tuple_at", st.TupleClass, fixnums(0)},
		{"class primitive on instance", "tuple_allocate", tup.ToValue(), fixnums(2)},
		{"class primitive on wrong class", "tuple_allocate", st.ByteArrayClass, fixnums(2)},
		{"immediate receiver", "tuple_at", FromFixnum(3), fixnums(0)},
		{"nil receiver", "object_dup", Nil, nil},
		{"dead receiver", "tuple_fields", FromHandle(77777), nil},
		{"byte array primitive on tuple", "bytearray_size", tup.ToValue(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			live := st.Memory.Live()
			_, err := st.Call(tt.prim, tt.recv, tt.args...)
			expectPrimitiveFailed(t, err)
			if st.Memory.Live() != live {
				t.Error("failed call allocated")
			}
		})
	}
}

func TestCallInternalErrorPropagates(t *testing.T) {
	st := newTestState(t)
	st.Primitives.Add0("test_corrupt", AnyObject, func(st *State, recv Value) (Value, error) {
		a := st.CreateTuple(1).Object()
		b := st.CreateTuple(2).Object()
		a.CopyBody(b)
		return recv, nil
	})

	expectInternalError(t, func() {
		st.Call("test_corrupt", st.TupleFrom().ToValue())
	})
}

// ---------------------------------------------------------------------------
// Tuple primitives
// ---------------------------------------------------------------------------

func TestTuplePrimitives(t *testing.T) {
	st := newTestState(t)

	tv, err := st.Call("tuple_allocate", st.TupleClass, FromFixnum(3))
	if err != nil {
		t.Fatalf("tuple_allocate: %v", err)
	}
	if n, _ := st.Call("tuple_fields", tv); n != FromFixnum(3) {
		t.Errorf("tuple_fields = %s, want 3", n)
	}

	got, err := st.Call("tuple_put", tv, FromFixnum(1), FromFixnum(42))
	if err != nil || got != FromFixnum(42) {
		t.Fatalf("tuple_put = %s, %v", got, err)
	}
	if got, _ := st.Call("tuple_at", tv, FromFixnum(1)); got != FromFixnum(42) {
		t.Errorf("tuple_at = %s, want 42", got)
	}

	_, err = st.Call("tuple_at", tv, FromFixnum(3))
	expectKind(t, err, BoundsExceeded)

	_, err = st.Call("tuple_allocate", st.TupleClass, FromFixnum(-1))
	expectKind(t, err, InvalidArgument)

	pv, err := st.Call("tuple_pattern", st.TupleClass, FromFixnum(5), True)
	if err != nil {
		t.Fatalf("tuple_pattern: %v", err)
	}
	pt, _ := st.TupleOf(pv)
	assertSlots(t, pt, []Value{True, True, True, True, True})
	if pt.Klass() != st.TupleClass {
		t.Error("tuple_pattern should use the receiver as class")
	}
}

func TestTupleCopyPrimitives(t *testing.T) {
	st := newTestState(t)
	a := st.TupleFrom(fixnums(0, 1, 2, 3, 4)...)
	b, _ := st.AllocateTuple(5)

	ret, err := st.Call("tuple_copy_range", b.ToValue(), a.ToValue(),
		FromFixnum(1), FromFixnum(4), FromFixnum(0))
	if err != nil {
		t.Fatalf("tuple_copy_range: %v", err)
	}
	if ret != b.ToValue() {
		t.Error("tuple_copy_range should return the receiver")
	}
	assertSlots(t, b, append(fixnums(1, 2, 3, 4), Nil))

	if _, err := st.Call("tuple_copy_from", a.ToValue(), a.ToValue(), FromFixnum(0), FromFixnum(1)); err != nil {
		t.Fatalf("tuple_copy_from: %v", err)
	}
	assertSlots(t, a, fixnums(0, 0, 1, 2, 3))

	_, err = st.Call("tuple_copy_range", b.ToValue(), a.ToValue(), FromFixnum(3), FromFixnum(1), FromFixnum(0))
	expectKind(t, err, BoundsExceeded)
}

func TestTupleCreateWeakrefPrimitive(t *testing.T) {
	st := newTestState(t)
	target := st.TupleFrom().ToValue()

	rv, err := st.Call("tuple_create_weakref", st.TupleClass, target)
	if err != nil {
		t.Fatalf("tuple_create_weakref: %v", err)
	}
	st.Memory.AddRoot(rv)
	st.Collect()

	if got, _ := st.Call("tuple_at", rv, FromFixnum(0)); got != Nil {
		t.Errorf("weak slot = %s after collection, want nil", got)
	}

	_, err = st.Call("tuple_create_weakref", st.TupleClass, FromFixnum(1))
	expectKind(t, err, UnsupportedType)
}

// ---------------------------------------------------------------------------
// Object primitives
// ---------------------------------------------------------------------------

func TestObjectDup(t *testing.T) {
	st := newTestState(t)
	src := st.TupleFrom(fixnums(1, 2)...)
	src.SetIvars(FromFixnum(8))
	src.SetFlag(FlagIsTainted, true)

	dv, err := st.Call("object_dup", src.ToValue())
	if err != nil {
		t.Fatal(err)
	}
	if dv == src.ToValue() {
		t.Fatal("dup should have a new identity")
	}
	dup, ok := st.TupleOf(dv)
	if !ok {
		t.Fatal("dup of a tuple should be a tuple")
	}
	assertSlots(t, dup, fixnums(1, 2))
	if dup.Ivars() != FromFixnum(8) || !dup.Flags().IsTainted() || dup.Age() != 0 {
		t.Error("dup should copy ivars and flags and start at age 0")
	}

	dup.Put(0, FromFixnum(5))
	assertSlots(t, src, fixnums(1, 2))
}

func TestObjectFreezePrimitives(t *testing.T) {
	st := newTestState(t)
	tv := st.TupleFrom(FromFixnum(1)).ToValue()

	if got, _ := st.Call("object_frozen_p", tv); got != False {
		t.Errorf("object_frozen_p = %s, want false", got)
	}
	if got, _ := st.Call("object_freeze", tv); got != tv {
		t.Error("object_freeze should return the receiver")
	}
	if got, _ := st.Call("object_frozen_p", tv); got != True {
		t.Errorf("object_frozen_p = %s, want true", got)
	}

	_, err := st.Call("tuple_put", tv, FromFixnum(0), Nil)
	expectKind(t, err, FrozenObject)
	_, err = st.Call("object_clear_fields", tv)
	expectKind(t, err, FrozenObject)

	if !st.IsFrozen(FromFixnum(1)) {
		t.Error("immediates are always frozen")
	}
}

func TestObjectClearFieldsPrimitive(t *testing.T) {
	st := newTestState(t)
	tup := st.TupleFrom(fixnums(1, 2, 3)...)

	if _, err := st.Call("object_clear_fields", tup.ToValue()); err != nil {
		t.Fatal(err)
	}
	assertSlots(t, tup, []Value{Nil, Nil, Nil})

	ba := st.ByteArrayFrom([]byte{1})
	_, err := st.Call("object_clear_fields", ba.ToValue())
	expectKind(t, err, UnsupportedType)
}

func TestObjectClearFieldsRefusesClasses(t *testing.T) {
	st := newTestState(t)
	point := st.DefineClass("Point", Nil)

	for _, cls := range []Value{st.TupleClass, st.ClassClass, point} {
		_, err := st.Call("object_clear_fields", cls)
		expectKind(t, err, UnsupportedType)
	}

	// The class still works afterwards.
	tv, err := st.Call("tuple_allocate", st.TupleClass, FromFixnum(2))
	if err != nil {
		t.Fatalf("tuple_allocate after refused clear: %v", err)
	}
	if n, _ := st.Call("tuple_fields", tv); n != FromFixnum(2) {
		t.Errorf("tuple_fields = %s, want 2", n)
	}
	if st.Superclass(point) != st.ObjectClass {
		t.Error("class slots were modified")
	}
}

// ---------------------------------------------------------------------------
// ByteArray primitives
// ---------------------------------------------------------------------------

func TestByteArrayPrimitives(t *testing.T) {
	st := newTestState(t)

	bv, err := st.Call("bytearray_allocate", st.ByteArrayClass, FromFixnum(10))
	if err != nil {
		t.Fatal(err)
	}
	if size, _ := st.Call("bytearray_size", bv); size != FromFixnum(16) {
		t.Errorf("bytearray_size = %s, want 16", size)
	}

	for i := int64(0); i < 16; i++ {
		if _, err := st.Call("bytearray_set_byte", bv, FromFixnum(i), FromFixnum(255-i)); err != nil {
			t.Fatalf("set_byte(%d): %v", i, err)
		}
	}
	for i := int64(0); i < 16; i++ {
		if got, _ := st.Call("bytearray_get_byte", bv, FromFixnum(i)); got != FromFixnum(255-i) {
			t.Errorf("get_byte(%d) = %s, want %d", i, got, 255-i)
		}
	}

	_, err = st.Call("bytearray_get_byte", bv, FromFixnum(16))
	expectKind(t, err, BoundsExceeded)
	_, err = st.Call("bytearray_set_byte", bv, FromFixnum(0), FromFixnum(256))
	expectKind(t, err, InvalidArgument)
	_, err = st.Call("bytearray_allocate", st.ByteArrayClass, FromFixnum(-8))
	expectKind(t, err, InvalidArgument)

	st.Freeze(bv)
	_, err = st.Call("bytearray_set_byte", bv, FromFixnum(0), FromFixnum(1))
	expectKind(t, err, FrozenObject)
}

func TestByteArrayRoundTrip(t *testing.T) {
	st := newTestState(t)
	ba := st.ByteArrayFrom([]byte("hello"))

	got := ba.Bytes()
	if len(got) != 8 || string(got[:5]) != "hello" {
		t.Errorf("Bytes() = %q", got)
	}
	for _, b := range got[5:] {
		if b != 0 {
			t.Error("padding should be zero")
		}
	}
	if !ba.StoresBytes() {
		t.Error("byte arrays must be flagged StoresBytes")
	}
}

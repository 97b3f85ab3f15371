package vm

// ---------------------------------------------------------------------------
// Tuple Primitives
// ---------------------------------------------------------------------------

func (st *State) registerTuplePrimitives() {
	p := st.Primitives

	// Tuple class>>allocate: n
	p.Add1("tuple_allocate", ClassSide(TupleType), ArgFixnum, func(st *State, recv, n Value) (Value, error) {
		t, err := st.AllocateTuple(n.Fixnum())
		if err != nil {
			return Nil, err
		}
		t.SetKlass(recv)
		return t.ToValue(), nil
	})

	// Tuple>>at: index
	p.Add1("tuple_at", Instance(TupleType), ArgFixnum, func(st *State, recv, index Value) (Value, error) {
		t, _ := st.TupleOf(recv)
		return t.At(index.Fixnum())
	})

	// Tuple>>put: index value
	p.Add2("tuple_put", Instance(TupleType), ArgFixnum, ArgAny, func(st *State, recv, index, value Value) (Value, error) {
		t, _ := st.TupleOf(recv)
		return t.Put(index.Fixnum(), value)
	})

	// Tuple>>fields
	p.Add0("tuple_fields", Instance(TupleType), func(st *State, recv Value) (Value, error) {
		t, _ := st.TupleOf(recv)
		return t.Fields(), nil
	})

	// Tuple class>>pattern: size value
	p.Add2("tuple_pattern", ClassSide(TupleType), ArgFixnum, ArgAny, func(st *State, recv, size, value Value) (Value, error) {
		t, err := st.TuplePattern(size.Fixnum(), value)
		if err != nil {
			return Nil, err
		}
		t.SetKlass(recv)
		return t.ToValue(), nil
	})

	// Tuple>>copy_from: other start dest
	p.Add3("tuple_copy_from", Instance(TupleType), ArgTuple, ArgFixnum, ArgFixnum,
		func(st *State, recv, other, start, dest Value) (Value, error) {
			t, _ := st.TupleOf(recv)
			src, _ := st.TupleOf(other)
			if err := t.CopyFrom(src, start.Fixnum(), dest.Fixnum()); err != nil {
				return Nil, err
			}
			return recv, nil
		})

	// Tuple>>copy_range: other start end dest
	p.Add4("tuple_copy_range", Instance(TupleType), ArgTuple, ArgFixnum, ArgFixnum, ArgFixnum,
		func(st *State, recv, other, start, end, dest Value) (Value, error) {
			t, _ := st.TupleOf(recv)
			src, _ := st.TupleOf(other)
			if err := t.CopyRange(src, start.Fixnum(), end.Fixnum(), dest.Fixnum()); err != nil {
				return Nil, err
			}
			return recv, nil
		})

	// Tuple class>>create_weakref: object
	p.Add1("tuple_create_weakref", ClassSide(TupleType), ArgAny, func(st *State, recv, target Value) (Value, error) {
		t, err := st.CreateWeakref(target)
		if err != nil {
			return Nil, err
		}
		return t.ToValue(), nil
	})
}

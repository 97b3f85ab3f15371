package vm

// ---------------------------------------------------------------------------
// ByteArray Primitives
// ---------------------------------------------------------------------------

func (st *State) registerByteArrayPrimitives() {
	p := st.Primitives

	// ByteArray class>>allocate: bytes
	p.Add1("bytearray_allocate", ClassSide(ByteArrayType), ArgFixnum, func(st *State, recv, n Value) (Value, error) {
		ba, err := st.NewByteArray(n.Fixnum())
		if err != nil {
			return Nil, err
		}
		ba.SetKlass(recv)
		return ba.ToValue(), nil
	})

	// ByteArray>>size
	p.Add0("bytearray_size", Instance(ByteArrayType), func(st *State, recv Value) (Value, error) {
		ba, _ := st.ByteArrayOf(recv)
		return FromFixnum(int64(ba.Size())), nil
	})

	// ByteArray>>get_byte: index
	p.Add1("bytearray_get_byte", Instance(ByteArrayType), ArgFixnum, func(st *State, recv, index Value) (Value, error) {
		ba, _ := st.ByteArrayOf(recv)
		return ba.GetByte(index.Fixnum())
	})

	// ByteArray>>set_byte: index value
	p.Add2("bytearray_set_byte", Instance(ByteArrayType), ArgFixnum, ArgFixnum, func(st *State, recv, index, b Value) (Value, error) {
		ba, _ := st.ByteArrayOf(recv)
		return ba.SetByte(index.Fixnum(), b.Fixnum())
	})
}

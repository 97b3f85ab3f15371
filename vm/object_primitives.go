package vm

// ---------------------------------------------------------------------------
// Object operations
// ---------------------------------------------------------------------------

// Dup returns a shallow copy of the object v refers to. The copy has the
// same type, class, ivars and flags (forwarded excepted), a fresh identity
// and age zero. Its body is a verbatim copy of the source's.
func (st *State) Dup(v Value) (Value, error) {
	src, ok := st.Memory.Object(v)
	if !ok {
		return Nil, unsupportedType(v, "can't dup %s", st.Inspect(v))
	}
	dup := st.Memory.allocate(src.objType, src.klass, src.NumFields())
	dup.InitializeAsCopy(src, 0)
	dup.CopyBody(src)
	return dup.ToValue(), nil
}

// Freeze marks the object v refers to as frozen. Immediates are already
// immutable and are returned unchanged.
func (st *State) Freeze(v Value) Value {
	if obj, ok := st.Memory.Object(v); ok {
		obj.SetFlag(FlagIsFrozen, true)
	}
	return v
}

// IsFrozen reports whether v may be mutated. Immediates are always frozen.
func (st *State) IsFrozen(v Value) bool {
	obj, ok := st.Memory.Object(v)
	if !ok {
		return true
	}
	return obj.IsFrozen()
}

// ---------------------------------------------------------------------------
// Object Primitives
// ---------------------------------------------------------------------------

func (st *State) registerObjectPrimitives() {
	p := st.Primitives

	// Object>>dup
	p.Add0("object_dup", AnyObject, func(st *State, recv Value) (Value, error) {
		return st.Dup(recv)
	})

	// Object>>freeze
	p.Add0("object_freeze", AnyObject, func(st *State, recv Value) (Value, error) {
		return st.Freeze(recv), nil
	})

	// Object>>frozen?
	p.Add0("object_frozen_p", AnyObject, func(st *State, recv Value) (Value, error) {
		return FromBool(st.IsFrozen(recv)), nil
	})

	// Object>>clear_fields: drops every reference the body holds. Class
	// descriptors are refused; their slots are what makes them a class.
	p.Add0("object_clear_fields", AnyObject, func(st *State, recv Value) (Value, error) {
		obj, _ := st.Memory.Object(recv)
		if obj.IsFrozen() {
			return Nil, frozenObject(recv)
		}
		if obj.StoresBytes() || obj.Type() == ClassType {
			return Nil, unsupportedType(recv, "can't clear fields of %s", st.Inspect(recv))
		}
		obj.ClearFields()
		return recv, nil
	})
}

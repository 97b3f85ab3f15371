package vm

// ---------------------------------------------------------------------------
// Class descriptors
// ---------------------------------------------------------------------------

// Class objects are heap objects of ClassType so the collector traces them
// like any other object. Method resolution lives outside this package; a
// class here only records what the object memory needs.
const (
	classNameSlot     = 0 // Symbol
	classSuperSlot    = 1 // superclass or Nil
	classInstTypeSlot = 2 // Fixnum ObjType of instances
	classNumSlots     = 3
)

// newClass allocates a class descriptor. klass is the metaclass reference;
// it is Nil only while bootstrapping the Class class itself.
func (st *State) newClass(name string, super Value, instType ObjType, klass Value) Value {
	obj := st.Memory.allocate(ClassType, klass, classNumSlots)
	obj.body[classNameSlot] = st.Symbols.Symbol(name)
	obj.body[classSuperSlot] = super
	obj.body[classInstTypeSlot] = FromFixnum(int64(instType))
	v := obj.ToValue()
	st.Memory.AddRoot(v)
	st.classes[name] = v
	return v
}

// DefineClass creates a named class whose instances are plain objects.
// Redefining an existing name returns the existing class.
func (st *State) DefineClass(name string, super Value) Value {
	if cls, ok := st.classes[name]; ok {
		return cls
	}
	if super == Nil {
		super = st.ObjectClass
	}
	return st.newClass(name, super, ObjectType, st.ClassClass)
}

// LookupClass returns the class registered under name.
func (st *State) LookupClass(name string) (Value, bool) {
	cls, ok := st.classes[name]
	return cls, ok
}

// ClassOf returns the class of v. Immediates have no class in this layer
// and return Nil.
func (st *State) ClassOf(v Value) Value {
	obj, ok := st.Memory.Object(v)
	if !ok {
		return Nil
	}
	return obj.klass
}

// IsClass reports whether v refers to a class descriptor.
func (st *State) IsClass(v Value) bool {
	obj, ok := st.Memory.Object(v)
	return ok && obj.objType == ClassType
}

// instanceType returns the ObjType instances of cls are allocated with.
func (st *State) instanceType(cls Value) (ObjType, bool) {
	obj, ok := st.Memory.Object(cls)
	if !ok || obj.objType != ClassType {
		return InvalidType, false
	}
	t := obj.body[classInstTypeSlot]
	if !t.IsFixnum() {
		return InvalidType, false
	}
	return ObjType(t.Fixnum()), true
}

// Superclass returns the superclass of cls, or Nil.
func (st *State) Superclass(cls Value) Value {
	obj, ok := st.Memory.Object(cls)
	if !ok || obj.objType != ClassType {
		return Nil
	}
	return obj.body[classSuperSlot]
}

// NewInstance allocates a plain object of class cls with n instance slots,
// all Nil.
func (st *State) NewInstance(cls Value, n int64) (Value, error) {
	t, ok := st.instanceType(cls)
	if !ok {
		return Nil, unsupportedType(cls, "%s is not a class", st.Inspect(cls))
	}
	if t != ObjectType {
		return Nil, unsupportedType(cls, "%s instances are not plain objects", st.Inspect(cls))
	}
	if err := st.checkSize("instance", n); err != nil {
		return Nil, err
	}
	obj := st.Memory.allocate(ObjectType, cls, int(n))
	obj.ClearFields()
	return obj.ToValue(), nil
}

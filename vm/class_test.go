package vm

import "testing"

func TestBootstrapClasses(t *testing.T) {
	st := newTestState(t)

	for name, cls := range map[string]Value{
		"Object":    st.ObjectClass,
		"Class":     st.ClassClass,
		"Tuple":     st.TupleClass,
		"ByteArray": st.ByteArrayClass,
	} {
		got, ok := st.LookupClass(name)
		if !ok || got != cls {
			t.Errorf("LookupClass(%q) = %s, %v", name, got, ok)
		}
		if !st.IsClass(cls) {
			t.Errorf("%s is not a class", name)
		}
		if !st.Memory.IsRoot(cls) {
			t.Errorf("%s should be a root", name)
		}
		if st.ClassOf(cls) != st.ClassClass {
			t.Errorf("class of %s should be Class", name)
		}
	}

	if st.Superclass(st.ObjectClass) != Nil {
		t.Error("Object has no superclass")
	}
	if st.Superclass(st.TupleClass) != st.ObjectClass {
		t.Error("Tuple should inherit from Object")
	}
	if st.Superclass(st.ClassClass) != st.ObjectClass {
		t.Error("Class should inherit from Object")
	}

	classObj, _ := st.Memory.Object(st.ClassClass)
	if !classObj.Flags().IsMeta() {
		t.Error("Class should be flagged meta")
	}
}

func TestDefineClass(t *testing.T) {
	st := newTestState(t)

	point := st.DefineClass("Point", Nil)
	if st.Superclass(point) != st.ObjectClass {
		t.Error("default superclass should be Object")
	}
	if again := st.DefineClass("Point", Nil); again != point {
		t.Error("redefinition should return the existing class")
	}

	p3 := st.DefineClass("Point3", point)
	if st.Superclass(p3) != point {
		t.Error("explicit superclass ignored")
	}

	st.Collect()
	if !st.IsClass(point) {
		t.Error("defined classes survive collection")
	}
}

func TestNewInstance(t *testing.T) {
	st := newTestState(t)
	point := st.DefineClass("Point", Nil)

	p, err := st.NewInstance(point, 2)
	if err != nil {
		t.Fatal(err)
	}
	obj, _ := st.Memory.Object(p)
	if obj.Type() != ObjectType || obj.NumFields() != 2 || st.ClassOf(p) != point {
		t.Errorf("instance has type %s, %d fields", obj.Type(), obj.NumFields())
	}
	for i := 0; i < 2; i++ {
		if obj.Field(i) != Nil {
			t.Errorf("slot %d = %s, want nil", i, obj.Field(i))
		}
	}

	if _, err := st.NewInstance(st.TupleClass, 1); err == nil {
		t.Error("Tuple instances are not plain objects")
	}
	if _, err := st.NewInstance(FromFixnum(1), 1); err == nil {
		t.Error("a fixnum is not a class")
	}
	_, err = st.NewInstance(point, -1)
	expectKind(t, err, InvalidArgument)
}

func TestClassOfImmediate(t *testing.T) {
	st := newTestState(t)
	if st.ClassOf(FromFixnum(1)) != Nil {
		t.Error("immediates have no class at this layer")
	}
	tup := st.TupleFrom()
	if st.ClassName(tup.Object()) != "Tuple" {
		t.Errorf("ClassName = %q", st.ClassName(tup.Object()))
	}
}

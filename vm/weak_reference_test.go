package vm

import "testing"

func TestWeakRegistryProcessGC(t *testing.T) {
	st := newTestState(t)
	alive := st.TupleFrom().ToValue()
	dead := st.TupleFrom().ToValue()

	holder := st.TupleFrom(alive, dead, FromFixnum(1), Nil)
	reg := NewWeakRegistry()
	reg.Register(holder.Object())
	if reg.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", reg.Count())
	}

	cleared := reg.ProcessGC(func(v Value) bool { return v == alive })

	if cleared != 1 {
		t.Errorf("cleared %d slots, want 1", cleared)
	}
	assertSlots(t, holder, []Value{alive, Nil, FromFixnum(1), Nil})

	reg.Reset()
	if reg.Count() != 0 {
		t.Error("Reset should empty the registry")
	}
}

func TestWeakRegistryIgnoresImmediates(t *testing.T) {
	st := newTestState(t)
	holder := st.TupleFrom(True, FromFixnum(3), st.Symbols.Symbol("s"))
	reg := NewWeakRegistry()
	reg.Register(holder.Object())

	if n := reg.ProcessGC(func(Value) bool { return false }); n != 0 {
		t.Errorf("cleared %d immediates", n)
	}
}

package main

import (
	"fmt"

	"github.com/chazu/objmem/vm"
)

// workload drives the primitive table the way an interpreter would: it
// builds a rooted chain of tuples, leaves garbage behind and holds weak
// references to both.
type workload struct {
	st *vm.State

	chain    vm.Value
	weakLive vm.Value
	weakDead vm.Value
	blob     vm.Value
}

type workloadResult struct {
	Stats       *vm.CollectionStats
	ChainLength int
	WeakLive    bool
	WeakCleared bool
}

func (w *workload) call(name string, recv vm.Value, args ...vm.Value) vm.Value {
	v, err := w.st.Call(name, recv, args...)
	if err != nil {
		panic(fmt.Errorf("%s: %w", name, err))
	}
	return v
}

func (w *workload) run(links, garbage int) (res workloadResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			// Only VM exceptions are reported; anything else is a bug.
			e, ok := r.(error)
			if !ok {
				panic(r)
			}
			if _, isException := vm.AsException(e); !isException {
				panic(r)
			}
			err = e
		}
	}()

	st := w.st
	fix := vm.FromFixnum

	// Chain of [index, next] pairs, rooted at the head.
	w.chain = vm.Nil
	for i := links - 1; i >= 0; i-- {
		node := w.call("tuple_allocate", st.TupleClass, fix(2))
		w.call("tuple_put", node, fix(0), fix(int64(i)))
		w.call("tuple_put", node, fix(1), w.chain)
		w.chain = node
		st.Safepoint(w.chain)
	}
	st.Memory.AddRoot(w.chain)

	var lastGarbage vm.Value
	for i := 0; i < garbage; i++ {
		lastGarbage = w.call("tuple_pattern", st.TupleClass, fix(4), fix(int64(i)))
		st.Safepoint(lastGarbage)
	}

	if links > 0 {
		w.weakLive = w.call("tuple_create_weakref", st.TupleClass, w.chain)
		st.Memory.AddRoot(w.weakLive)
	}
	if lastGarbage != vm.Null {
		w.weakDead = w.call("tuple_create_weakref", st.TupleClass, lastGarbage)
		st.Memory.AddRoot(w.weakDead)
	}

	w.blob = w.call("bytearray_allocate", st.ByteArrayClass, fix(16))
	for i := int64(0); i < 16; i++ {
		w.call("bytearray_set_byte", w.blob, fix(i), fix(i*i%256))
	}
	st.Memory.AddRoot(w.blob)

	res.Stats = st.Collect()

	for node := w.chain; node != vm.Nil; {
		res.ChainLength++
		node = w.call("tuple_at", node, fix(1))
	}
	if w.weakLive != vm.Null {
		res.WeakLive = w.call("tuple_at", w.weakLive, fix(0)) == w.chain
	}
	if w.weakDead != vm.Null {
		res.WeakCleared = w.call("tuple_at", w.weakDead, fix(0)) == vm.Nil
	}
	return res, nil
}

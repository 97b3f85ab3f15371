package vm

import (
	"fmt"
	"sort"
)

// ---------------------------------------------------------------------------
// Argument and receiver constraints
// ---------------------------------------------------------------------------

// ArgKind constrains one primitive argument.
type ArgKind uint8

const (
	ArgAny       ArgKind = iota // any immediate or live heap object
	ArgFixnum                   // fixed-width integer
	ArgObject                   // live heap object
	ArgTuple                    // live Tuple
	ArgByteArray                // live ByteArray
)

func (k ArgKind) String() string {
	switch k {
	case ArgAny:
		return "Any"
	case ArgFixnum:
		return "Fixnum"
	case ArgObject:
		return "Object"
	case ArgTuple:
		return "Tuple"
	case ArgByteArray:
		return "ByteArray"
	}
	return fmt.Sprintf("ArgKind(%d)", uint8(k))
}

// Receiver constrains a primitive's receiver. With ClassSide set the
// receiver must be a class whose instances have Type; otherwise it must be
// an instance of Type. InvalidType accepts any heap object.
type Receiver struct {
	Type      ObjType
	ClassSide bool
}

// Instance constrains the receiver to objects of type t.
func Instance(t ObjType) Receiver { return Receiver{Type: t} }

// ClassSide constrains the receiver to classes whose instances have type t.
func ClassSide(t ObjType) Receiver { return Receiver{Type: t, ClassSide: true} }

// AnyObject accepts any live heap object as receiver.
var AnyObject = Receiver{Type: InvalidType}

func (r Receiver) String() string {
	name := "Object"
	if r.Type != InvalidType {
		name = r.Type.String()
	}
	if r.ClassSide {
		return name + " class"
	}
	return name
}

// ---------------------------------------------------------------------------
// Arity-specialised primitive functions
// ---------------------------------------------------------------------------

type (
	Prim0Func func(st *State, recv Value) (Value, error)
	Prim1Func func(st *State, recv, a1 Value) (Value, error)
	Prim2Func func(st *State, recv, a1, a2 Value) (Value, error)
	Prim3Func func(st *State, recv, a1, a2, a3 Value) (Value, error)
	Prim4Func func(st *State, recv, a1, a2, a3, a4 Value) (Value, error)
)

// Primitive is one entry in the dispatch table: a name, the declared
// receiver and argument constraints, and the body.
type Primitive struct {
	Name     string
	Receiver Receiver
	Args     []ArgKind

	invoke func(st *State, recv Value, args []Value) (Value, error)
}

// Arity returns the number of arguments, not counting the receiver.
func (p *Primitive) Arity() int {
	return len(p.Args)
}

// Signature renders the declared contract, e.g. "tuple_at(Tuple, Fixnum)".
func (p *Primitive) Signature() string {
	s := p.Name + "(" + p.Receiver.String()
	for _, a := range p.Args {
		s += ", " + a.String()
	}
	return s + ")"
}

// ---------------------------------------------------------------------------
// PrimitiveTable
// ---------------------------------------------------------------------------

// PrimitiveTable maps primitive names to their entries. It is filled once
// when a State is created and read-only afterwards.
type PrimitiveTable struct {
	byName map[string]*Primitive
}

// NewPrimitiveTable creates an empty table.
func NewPrimitiveTable() *PrimitiveTable {
	return &PrimitiveTable{byName: make(map[string]*Primitive)}
}

// Register adds p. Names are unique.
func (t *PrimitiveTable) Register(p *Primitive) error {
	if p.Name == "" || p.invoke == nil {
		return fmt.Errorf("register primitive %q: incomplete entry", p.Name)
	}
	if _, exists := t.byName[p.Name]; exists {
		return fmt.Errorf("register primitive %q: already registered", p.Name)
	}
	t.byName[p.Name] = p
	return nil
}

func (t *PrimitiveTable) mustRegister(p *Primitive) {
	if err := t.Register(p); err != nil {
		panic(err)
	}
}

// Add0 registers a primitive taking no arguments.
func (t *PrimitiveTable) Add0(name string, recv Receiver, fn Prim0Func) {
	t.mustRegister(&Primitive{Name: name, Receiver: recv,
		invoke: func(st *State, r Value, _ []Value) (Value, error) {
			return fn(st, r)
		}})
}

// Add1 registers a primitive taking one argument.
func (t *PrimitiveTable) Add1(name string, recv Receiver, a1 ArgKind, fn Prim1Func) {
	t.mustRegister(&Primitive{Name: name, Receiver: recv, Args: []ArgKind{a1},
		invoke: func(st *State, r Value, args []Value) (Value, error) {
			return fn(st, r, args[0])
		}})
}

// Add2 registers a primitive taking two arguments.
func (t *PrimitiveTable) Add2(name string, recv Receiver, a1, a2 ArgKind, fn Prim2Func) {
	t.mustRegister(&Primitive{Name: name, Receiver: recv, Args: []ArgKind{a1, a2},
		invoke: func(st *State, r Value, args []Value) (Value, error) {
			return fn(st, r, args[0], args[1])
		}})
}

// Add3 registers a primitive taking three arguments.
func (t *PrimitiveTable) Add3(name string, recv Receiver, a1, a2, a3 ArgKind, fn Prim3Func) {
	t.mustRegister(&Primitive{Name: name, Receiver: recv, Args: []ArgKind{a1, a2, a3},
		invoke: func(st *State, r Value, args []Value) (Value, error) {
			return fn(st, r, args[0], args[1], args[2])
		}})
}

// Add4 registers a primitive taking four arguments.
func (t *PrimitiveTable) Add4(name string, recv Receiver, a1, a2, a3, a4 ArgKind, fn Prim4Func) {
	t.mustRegister(&Primitive{Name: name, Receiver: recv, Args: []ArgKind{a1, a2, a3, a4},
		invoke: func(st *State, r Value, args []Value) (Value, error) {
			return fn(st, r, args[0], args[1], args[2], args[3])
		}})
}

// Lookup returns the primitive registered under name.
func (t *PrimitiveTable) Lookup(name string) (*Primitive, bool) {
	p, ok := t.byName[name]
	return p, ok
}

// Names returns every registered name in sorted order.
func (t *PrimitiveTable) Names() []string {
	names := make([]string, 0, len(t.byName))
	for name := range t.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered primitives.
func (t *PrimitiveTable) Len() int {
	return len(t.byName)
}

// ---------------------------------------------------------------------------
// Dispatch
// ---------------------------------------------------------------------------

// Call invokes the primitive name on recv. The arity, receiver and argument
// kinds are checked before the body runs; a contract violation returns a
// PrimitiveFailed exception and nothing is mutated. Failures from the body
// are returned as *Exception. Internal consistency failures are not
// recovered: they panic with *InternalError.
func (st *State) Call(name string, recv Value, args ...Value) (Value, error) {
	p, ok := st.Primitives.Lookup(name)
	if !ok {
		return Nil, primitiveFailed("unknown primitive %s", name)
	}
	if len(args) != len(p.Args) {
		return Nil, primitiveFailed("%s: wrong number of arguments (given %d, expected %d)",
			name, len(args), len(p.Args))
	}
	if !st.receiverMatches(p.Receiver, recv) {
		return Nil, primitiveFailed("%s: receiver %s is not a %s", name, st.Inspect(recv), p.Receiver)
	}
	for i, kind := range p.Args {
		if !st.argMatches(kind, args[i]) {
			return Nil, primitiveFailed("%s: argument %d must be a %s, got %s",
				name, i+1, kind, st.Inspect(args[i]))
		}
	}
	return p.invoke(st, recv, args)
}

func (st *State) receiverMatches(r Receiver, recv Value) bool {
	obj, ok := st.Memory.Object(recv)
	if !ok {
		return false
	}
	if r.ClassSide {
		t, ok := st.instanceType(recv)
		return ok && (r.Type == InvalidType || t == r.Type)
	}
	return r.Type == InvalidType || obj.objType == r.Type
}

func (st *State) argMatches(kind ArgKind, v Value) bool {
	switch kind {
	case ArgAny:
		if !v.IsReference() {
			return true
		}
		// Null and reclaimed handles never reach a slot from outside.
		_, ok := st.Memory.Object(v)
		return ok
	case ArgFixnum:
		return v.IsFixnum()
	case ArgObject:
		_, ok := st.Memory.Object(v)
		return ok
	case ArgTuple:
		_, ok := st.TupleOf(v)
		return ok
	case ArgByteArray:
		_, ok := st.ByteArrayOf(v)
		return ok
	}
	return false
}

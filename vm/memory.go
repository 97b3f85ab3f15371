package vm

import (
	"fmt"
	"math"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("objmem.vm")

// MaxFields bounds the body of a single object.
const MaxFields = math.MaxUint32

// ---------------------------------------------------------------------------
// Memory: handle table, roots and finalizers
// ---------------------------------------------------------------------------

// Memory owns every heap object. Objects are addressed by Handle so a
// relocation only has to swap the storage behind the handle; Values held
// elsewhere stay valid.
//
// Memory is not safe for concurrent mutation. The surrounding runtime must
// keep the mutator and Collect mutually exclusive.
type Memory struct {
	objects    []*Object // handle -> current storage; index 0 is never used
	free       []Handle
	live       int
	roots      map[Handle]int
	finalizers map[Handle]func(*Object)

	// allocated counts allocations since the last collection
	allocated int
}

// NewMemory creates an empty object memory.
func NewMemory() *Memory {
	return &Memory{
		objects:    make([]*Object, 1, 256),
		roots:      make(map[Handle]int),
		finalizers: make(map[Handle]func(*Object)),
	}
}

// allocate returns storage for a new object of type t with n slots. The
// header is zeroed apart from type, class and field count and every slot
// holds Null; the caller fills the body before handing the object out.
func (m *Memory) allocate(t ObjType, klass Value, n int) *Object {
	obj := newObjectStorage(n)
	obj.objType = t
	obj.klass = klass

	if k := len(m.free); k > 0 {
		obj.handle = m.free[k-1]
		m.free = m.free[:k-1]
		m.objects[obj.handle] = obj
	} else {
		if uint64(len(m.objects)) >= uint64(math.MaxUint32) {
			panic(internalErrorf("object memory exhausted: %d handles", len(m.objects)))
		}
		obj.handle = Handle(len(m.objects))
		m.objects = append(m.objects, obj)
	}
	m.live++
	m.allocated++
	return obj
}

// install points a handle at new storage. Used when relocating.
func (m *Memory) install(obj *Object) {
	if int(obj.handle) >= len(m.objects) || m.objects[obj.handle] == nil {
		panic(internalErrorf("install: handle %d is not live", obj.handle))
	}
	m.objects[obj.handle] = obj
}

// release drops a reclaimed handle and recycles it.
func (m *Memory) release(h Handle) {
	m.objects[h] = nil
	delete(m.roots, h)
	delete(m.finalizers, h)
	m.free = append(m.free, h)
	m.live--
}

// Lookup returns the current storage for h, or nil if h is not live.
func (m *Memory) Lookup(h Handle) *Object {
	if h == 0 || int(h) >= len(m.objects) {
		return nil
	}
	return m.objects[h]
}

// Object returns the object v refers to. It returns false for immediates,
// Null and handles that are no longer live.
func (m *Memory) Object(v Value) (*Object, bool) {
	if !v.IsObject() {
		return nil, false
	}
	obj := m.Lookup(v.Handle())
	return obj, obj != nil
}

// Live returns the number of live objects.
func (m *Memory) Live() int {
	return m.live
}

// AllocatedSinceCollection returns the allocation count since the last
// collection.
func (m *Memory) AllocatedSinceCollection() int {
	return m.allocated
}

// Each calls fn for every live object in handle order until fn returns false.
func (m *Memory) Each(fn func(obj *Object) bool) {
	for _, obj := range m.objects {
		if obj == nil {
			continue
		}
		if !fn(obj) {
			return
		}
	}
}

// ---------------------------------------------------------------------------
// Roots
// ---------------------------------------------------------------------------

// AddRoot keeps v alive across collections until a matching RemoveRoot.
// Roots are counted, so nested AddRoot/RemoveRoot pairs compose.
// Immediates are ignored.
func (m *Memory) AddRoot(v Value) {
	if !v.IsObject() {
		return
	}
	m.roots[v.Handle()]++
}

// RemoveRoot undoes one AddRoot.
func (m *Memory) RemoveRoot(v Value) {
	if !v.IsObject() {
		return
	}
	h := v.Handle()
	if n := m.roots[h]; n > 1 {
		m.roots[h] = n - 1
	} else {
		delete(m.roots, h)
	}
}

// IsRoot reports whether v is currently rooted.
func (m *Memory) IsRoot(v Value) bool {
	if !v.IsObject() {
		return false
	}
	_, ok := m.roots[v.Handle()]
	return ok
}

// ---------------------------------------------------------------------------
// Finalizers
// ---------------------------------------------------------------------------

// SetFinalizer registers fn to run once, at the end of the first collection
// that finds v unreachable, and flags the object as requiring cleanup. The
// object and everything it references survive that collection; storing it
// somewhere reachable from fn keeps it alive. Passing a nil fn removes the
// finalizer and clears the flag.
func (m *Memory) SetFinalizer(v Value, fn func(*Object)) error {
	obj, ok := m.Object(v)
	if !ok {
		return fmt.Errorf("set finalizer on %s: %w", v, ErrUnsupportedType)
	}
	if fn == nil {
		delete(m.finalizers, obj.handle)
		obj.SetFlag(FlagRequiresCleanup, false)
		return nil
	}
	m.finalizers[obj.handle] = fn
	obj.SetFlag(FlagRequiresCleanup, true)
	return nil
}

package vm

// ---------------------------------------------------------------------------
// State: the execution context handed to every primitive
// ---------------------------------------------------------------------------

// Options tunes a State.
type Options struct {
	// TenureAge is the age at which collection survivors stop being copied.
	TenureAge uint8
	// CollectEvery makes Safepoint collect after this many allocations.
	// Zero disables automatic collection.
	CollectEvery int
	// ShowLevel bounds the nesting depth of Show and ShowSimple.
	ShowLevel int
	// MaxFields caps the slot count a single allocation may ask for.
	// Zero selects DefaultMaxFields; the cap never exceeds MaxFields.
	MaxFields int64
}

// DefaultMaxFields is the allocation cap used when Options leaves it unset.
const DefaultMaxFields = 1 << 24

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		TenureAge:    DefaultTenureAge,
		CollectEvery: 10000,
		ShowLevel:    3,
		MaxFields:    DefaultMaxFields,
	}
}

// State owns an object memory and everything needed to operate on it: the
// symbol table, the bootstrap classes, the collector and the primitive
// table. It is the implicit context argument of every primitive.
type State struct {
	Memory     *Memory
	Symbols    *SymbolTable
	Collector  *Collector
	Primitives *PrimitiveTable

	// Well-known classes
	ObjectClass    Value
	ClassClass     Value
	TupleClass     Value
	ByteArrayClass Value

	classes map[string]Value
	opts    Options
}

// NewState creates and bootstraps a State.
func NewState(opts Options) *State {
	if opts.ShowLevel <= 0 {
		opts.ShowLevel = DefaultOptions().ShowLevel
	}
	if opts.CollectEvery < 0 {
		opts.CollectEvery = 0
	}
	if opts.MaxFields <= 0 {
		opts.MaxFields = DefaultMaxFields
	}
	opts.MaxFields = min(opts.MaxFields, MaxFields)

	mem := NewMemory()
	st := &State{
		Memory:     mem,
		Symbols:    NewSymbolTable(),
		Collector:  NewCollector(mem, opts.TenureAge),
		Primitives: NewPrimitiveTable(),
		classes:    make(map[string]Value),
		opts:       opts,
	}

	st.bootstrap()
	st.registerPrimitives()

	log.Debugf("state ready: %d classes, %d primitives", len(st.classes), st.Primitives.Len())
	return st
}

// Options returns the options the State was created with.
func (st *State) Options() Options {
	return st.opts
}

// checkSize rejects allocation requests outside 0..MaxFields slots.
func (st *State) checkSize(what string, n int64) error {
	if n < 0 {
		return invalidArgument("negative %s size %d", what, n)
	}
	if n > st.opts.MaxFields {
		return invalidArgument("%s size %d exceeds limit of %d fields", what, n, st.opts.MaxFields)
	}
	return nil
}

func (st *State) bootstrap() {
	// Class must exist before anything can have a class; patch its own
	// klass once it does.
	st.ClassClass = st.newClass("Class", Nil, ClassType, Nil)
	classObj, _ := st.Memory.Object(st.ClassClass)
	classObj.klass = st.ClassClass
	classObj.SetFlag(FlagIsMeta, true)

	st.ObjectClass = st.newClass("Object", Nil, ObjectType, st.ClassClass)
	classObj.body[classSuperSlot] = st.ObjectClass

	st.TupleClass = st.newClass("Tuple", st.ObjectClass, TupleType, st.ClassClass)
	st.ByteArrayClass = st.newClass("ByteArray", st.ObjectClass, ByteArrayType, st.ClassClass)
}

func (st *State) registerPrimitives() {
	st.registerTuplePrimitives()
	st.registerObjectPrimitives()
	st.registerByteArrayPrimitives()
}

// Collect runs a full collection. extra values are kept alive for this
// cycle only.
func (st *State) Collect(extra ...Value) *CollectionStats {
	return st.Collector.Collect(extra...)
}

// Safepoint collects if enough allocations have happened since the last
// collection. The interpreter calls it between primitives, when every live
// value it holds is reachable from the root set or passed as extra.
func (st *State) Safepoint(extra ...Value) *CollectionStats {
	if st.opts.CollectEvery == 0 || st.Memory.AllocatedSinceCollection() < st.opts.CollectEvery {
		return nil
	}
	return st.Collect(extra...)
}

package vm

import (
	"sync/atomic"
	"time"
)

// ---------------------------------------------------------------------------
// Collector: stop-the-world mark, sweep and evacuate
// ---------------------------------------------------------------------------

// CollectionStats holds statistics from a single collection.
type CollectionStats struct {
	Marked      int
	Reclaimed   int
	Finalized   int
	WeakCleared int
	Evacuated   int
	Tenured     int
	Live        int
	Duration    time.Duration
	Timestamp   time.Time
}

// DefaultTenureAge is the age at which survivors stop being evacuated.
const DefaultTenureAge = 3

// Collector traces the object memory from its roots through each type's
// Mark function, clears weak slots, reclaims unreachable objects and copies
// young survivors to fresh storage.
//
// Collect must not run concurrently with the mutator. The counters are
// atomic so monitoring code may read them from other goroutines.
type Collector struct {
	mem       *Memory
	tenureAge uint8
	weak      *WeakRegistry

	count     atomic.Uint64
	lastStats atomic.Value // *CollectionStats
}

// NewCollector creates a collector for mem. Survivors younger than
// tenureAge are evacuated each cycle; zero disables evacuation.
func NewCollector(mem *Memory, tenureAge uint8) *Collector {
	return &Collector{
		mem:       mem,
		tenureAge: tenureAge,
		weak:      NewWeakRegistry(),
	}
}

// Count returns the number of completed collections.
func (c *Collector) Count() uint64 {
	return c.count.Load()
}

// LastStats returns statistics from the most recent collection, or nil.
func (c *Collector) LastStats() *CollectionStats {
	v := c.lastStats.Load()
	if v == nil {
		return nil
	}
	return v.(*CollectionStats)
}

// marker is the ObjectMark the collector hands to TypeInfo.Mark.
type marker struct {
	mem    *Memory
	marked []bool
	stack  []*Object
	weak   *WeakRegistry
}

func (mk *marker) Mark(v Value) {
	if !v.IsObject() {
		return
	}
	h := v.Handle()
	if int(h) < len(mk.marked) && mk.marked[h] {
		return
	}
	obj := mk.mem.Lookup(h)
	if obj == nil {
		panic(internalErrorf("mark: reference to reclaimed handle %d", h))
	}
	mk.marked[h] = true
	mk.stack = append(mk.stack, obj)
}

func (mk *marker) MarkWeak(obj *Object) {
	mk.weak.Register(obj)
}

func (mk *marker) isLive(v Value) bool {
	h := v.Handle()
	return int(h) >= len(mk.marked) || mk.marked[h]
}

// drain traces until the gray stack is empty. Header references are traced
// here; the body is left to the type's Mark function unless it stores raw
// bytes.
func (mk *marker) drain() int {
	n := 0
	for len(mk.stack) > 0 {
		obj := mk.stack[len(mk.stack)-1]
		mk.stack = mk.stack[:len(mk.stack)-1]
		n++

		mk.Mark(obj.klass)
		mk.Mark(obj.ivars)
		if obj.StoresBytes() {
			continue
		}
		typeInfoOf(obj).Mark(obj, mk)
	}
	return n
}

// Collect runs one full collection. extra values are treated as roots for
// this cycle only, in addition to the memory's root set.
func (c *Collector) Collect(extra ...Value) *CollectionStats {
	start := time.Now()
	stats := &CollectionStats{Timestamp: start}
	mem := c.mem

	c.weak.Reset()
	mk := &marker{
		mem:    mem,
		marked: make([]bool, len(mem.objects)),
		weak:   c.weak,
	}

	// Mark
	for h := range mem.roots {
		mk.Mark(FromHandle(h))
	}
	for _, v := range extra {
		mk.Mark(v)
	}
	stats.Marked = mk.drain()

	// Weak slots
	stats.WeakCleared = c.weak.ProcessGC(mk.isLive)

	// Unreachable objects with a finalizer survive this cycle together with
	// everything they reference, so the finalizer never sees a reclaimed
	// handle. They are reclaimed by a later cycle once the finalizer is gone.
	var pending []Handle
	for h := 1; h < len(mk.marked); h++ {
		obj := mem.objects[h]
		if obj == nil || mk.marked[h] || !obj.Flags().RequiresCleanup() {
			continue
		}
		if mem.finalizers[obj.handle] != nil {
			pending = append(pending, obj.handle)
			mk.Mark(obj.ToValue())
		}
	}
	if len(pending) > 0 {
		stats.Marked += mk.drain()
		// Weak tuples reached only through a finalizable object
		stats.WeakCleared += c.weak.ProcessGC(mk.isLive)
	}

	// Sweep
	var dead []*Object
	for h := 1; h < len(mk.marked); h++ {
		if obj := mem.objects[h]; obj != nil && !mk.marked[h] {
			dead = append(dead, obj)
		}
	}
	for _, obj := range dead {
		obj.ClearBodyToNull()
		mem.release(obj.handle)
	}
	stats.Reclaimed = len(dead)

	// Evacuate young survivors
	if c.tenureAge > 0 {
		for h := 1; h < len(mk.marked); h++ {
			if !mk.marked[h] {
				continue
			}
			obj := mem.objects[h]
			if obj.age >= c.tenureAge && !obj.Flags().ForeverYoung() {
				continue
			}
			moved := c.evacuate(obj)
			stats.Evacuated++
			if moved.age >= c.tenureAge {
				stats.Tenured++
			}
		}
	}

	mem.allocated = 0

	// Finalizers run once the heap is consistent again. Each runs at most
	// once; the object is an ordinary live object while it runs.
	for _, h := range pending {
		fn := mem.finalizers[h]
		delete(mem.finalizers, h)
		obj := mem.objects[h]
		obj.SetFlag(FlagRequiresCleanup, false)
		fn(obj)
		stats.Finalized++
	}

	stats.Live = mem.live
	stats.Duration = time.Since(start)

	c.count.Add(1)
	c.lastStats.Store(stats)

	log.Debugf("collection %d: marked=%d reclaimed=%d finalized=%d weak-cleared=%d evacuated=%d tenured=%d in %s",
		c.count.Load(), stats.Marked, stats.Reclaimed, stats.Finalized,
		stats.WeakCleared, stats.Evacuated, stats.Tenured, stats.Duration)

	return stats
}

// evacuate copies obj to new storage one generation older, leaves a
// forwarding link in the old storage and repoints the handle.
func (c *Collector) evacuate(obj *Object) *Object {
	age := obj.age + 1
	if obj.Flags().ForeverYoung() && age >= c.tenureAge {
		age = c.tenureAge - 1
	}

	moved := newObjectStorage(obj.NumFields())
	moved.handle = obj.handle
	moved.InitializeAsCopy(obj, age)
	moved.CopyBody(obj)

	obj.forwardee = moved
	obj.SetFlag(FlagForwarded, true)
	c.mem.install(moved)
	return moved
}

package vm

// ---------------------------------------------------------------------------
// WeakRegistry: weak tuples seen during a mark phase
// ---------------------------------------------------------------------------

// WeakRegistry collects the reachable objects whose slots are weak. The
// collector fills it while marking and processes it once marking is done,
// replacing references to unmarked objects with Nil.
type WeakRegistry struct {
	objects []*Object
}

// NewWeakRegistry creates an empty registry.
func NewWeakRegistry() *WeakRegistry {
	return &WeakRegistry{}
}

// Register records obj as holding weak slots.
func (r *WeakRegistry) Register(obj *Object) {
	r.objects = append(r.objects, obj)
}

// Count returns the number of registered objects.
func (r *WeakRegistry) Count() int {
	return len(r.objects)
}

// Reset empties the registry for the next cycle.
func (r *WeakRegistry) Reset() {
	clear(r.objects)
	r.objects = r.objects[:0]
}

// ProcessGC clears every weak slot whose referent isLive rejects and
// returns the number of slots cleared.
func (r *WeakRegistry) ProcessGC(isLive func(Value) bool) int {
	cleared := 0
	for _, obj := range r.objects {
		for i, v := range obj.body {
			if v.IsObject() && !isLive(v) {
				obj.body[i] = Nil
				cleared++
			}
		}
	}
	return cleared
}

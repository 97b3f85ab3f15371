// Package snapshot records the contents of an object memory for offline
// inspection. Snapshots are encoded as canonical CBOR and can be kept in a
// SQLite database.
package snapshot

import (
	"time"

	"github.com/chazu/objmem/vm"
	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("objmem.snapshot")

// ObjectRecord is one live object. Klass, Ivars and Fields hold raw value
// words; the body of a byte array is recorded the same way as references.
type ObjectRecord struct {
	Handle uint32   `cbor:"1,keyasint"`
	Type   uint8    `cbor:"2,keyasint"`
	Age    uint8    `cbor:"3,keyasint"`
	Flags  uint16   `cbor:"4,keyasint"`
	Klass  uint64   `cbor:"5,keyasint"`
	Ivars  uint64   `cbor:"6,keyasint"`
	Fields []uint64 `cbor:"7,keyasint,omitempty"`
}

// Snapshot is a point-in-time copy of every live object.
type Snapshot struct {
	ID      string         `cbor:"1,keyasint"`
	TakenAt time.Time      `cbor:"2,keyasint"`
	Label   string         `cbor:"3,keyasint,omitempty"`
	Objects []ObjectRecord `cbor:"4,keyasint"`
}

// Take records every live object in st in handle order. It must not run
// concurrently with the mutator.
func Take(st *vm.State, label string) *Snapshot {
	s := &Snapshot{
		ID:      uuid.New().String(),
		TakenAt: time.Now().UTC(),
		Label:   label,
	}
	st.Memory.Each(func(obj *vm.Object) bool {
		rec := ObjectRecord{
			Handle: uint32(obj.Handle()),
			Type:   uint8(obj.Type()),
			Age:    obj.Age(),
			Flags:  uint16(obj.Flags()),
			Klass:  uint64(obj.Klass()),
			Ivars:  uint64(obj.Ivars()),
		}
		if n := obj.NumFields(); n > 0 {
			rec.Fields = make([]uint64, 0, n)
			obj.ForEachField(func(_ int, v vm.Value) {
				rec.Fields = append(rec.Fields, uint64(v))
			})
		}
		s.Objects = append(s.Objects, rec)
		return true
	})
	log.Debugf("snapshot %s: %d objects", s.ID, len(s.Objects))
	return s
}

// Find returns the record for handle h.
func (s *Snapshot) Find(h vm.Handle) (*ObjectRecord, bool) {
	for i := range s.Objects {
		if s.Objects[i].Handle == uint32(h) {
			return &s.Objects[i], true
		}
	}
	return nil, false
}

// CountByType returns the number of recorded objects per type name.
func (s *Snapshot) CountByType() map[string]int {
	counts := make(map[string]int)
	for _, rec := range s.Objects {
		counts[vm.ObjType(rec.Type).String()]++
	}
	return counts
}

// References returns the handles this record's slots refer to. Byte array
// bodies hold no references and return nil.
func (r *ObjectRecord) References() []vm.Handle {
	if vm.Flags(r.Flags).StoresBytes() {
		return nil
	}
	var refs []vm.Handle
	for _, w := range r.Fields {
		if v := vm.Value(w); v.IsObject() {
			refs = append(refs, v.Handle())
		}
	}
	return refs
}

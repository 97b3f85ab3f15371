package vm

import (
	"encoding/hex"
	"fmt"
	"io"
)

// ---------------------------------------------------------------------------
// ByteArray: raw byte storage
// ---------------------------------------------------------------------------

// A ByteArray keeps raw bytes in its body, eight to a slot, and is flagged
// StoresBytes so the collector never reads its slots as references. Its
// size is always a whole number of slots.
const bytesPerSlot = 8

// ByteArray is an Object of ByteArrayType.
type ByteArray Object

// ByteArrayOf returns the byte array v refers to.
func (st *State) ByteArrayOf(v Value) (*ByteArray, bool) {
	obj, ok := st.Memory.Object(v)
	if !ok || obj.objType != ByteArrayType {
		return nil, false
	}
	return (*ByteArray)(obj), true
}

// NewByteArray allocates a zeroed byte array holding at least n bytes.
func (st *State) NewByteArray(n int64) (*ByteArray, error) {
	if n < 0 {
		return nil, invalidArgument("negative byte array size %d", n)
	}
	words := n / bytesPerSlot
	if n%bytesPerSlot != 0 {
		words++
	}
	if words > st.opts.MaxFields {
		return nil, invalidArgument("byte array size %d exceeds limit of %d bytes", n, st.opts.MaxFields*bytesPerSlot)
	}
	obj := st.Memory.allocate(ByteArrayType, st.ByteArrayClass, int(words))
	obj.SetFlag(FlagStoresBytes, true)
	return (*ByteArray)(obj), nil
}

// ByteArrayFrom allocates a byte array holding a copy of data.
func (st *State) ByteArrayFrom(data []byte) *ByteArray {
	ba, err := st.NewByteArray(int64(len(data)))
	if err != nil {
		panic(internalErrorf("ByteArrayFrom: %v", err))
	}
	for i, b := range data {
		ba.setByte(i, b)
	}
	return ba
}

// Object returns the underlying object.
func (ba *ByteArray) Object() *Object {
	return (*Object)(ba)
}

// ToValue returns a reference to the byte array.
func (ba *ByteArray) ToValue() Value {
	return FromHandle(ba.handle)
}

// Size returns the capacity in bytes.
func (ba *ByteArray) Size() int {
	return int(ba.fieldCount) * bytesPerSlot
}

func (ba *ByteArray) live() *ByteArray {
	return (*ByteArray)((*Object)(ba).Resolve())
}

func (ba *ByteArray) getByte(i int) byte {
	word := uint64(ba.body[i/bytesPerSlot])
	return byte(word >> (8 * uint(i%bytesPerSlot)))
}

func (ba *ByteArray) setByte(i int, b byte) {
	shift := 8 * uint(i%bytesPerSlot)
	word := uint64(ba.body[i/bytesPerSlot])
	word = word&^(0xFF<<shift) | uint64(b)<<shift
	ba.body[i/bytesPerSlot] = Value(word)
}

// GetByte returns the byte at index i.
func (ba *ByteArray) GetByte(i int64) (Value, error) {
	ba = ba.live()
	if i < 0 || i >= int64(ba.Size()) {
		return Nil, boundsExceeded(ba.ToValue(), i, int64(ba.Size()))
	}
	return FromFixnum(int64(ba.getByte(int(i)))), nil
}

// SetByte stores b at index i. b must fit in a byte.
func (ba *ByteArray) SetByte(i int64, b int64) (Value, error) {
	ba = ba.live()
	if ba.IsFrozen() {
		return Nil, frozenObject(ba.ToValue())
	}
	if i < 0 || i >= int64(ba.Size()) {
		return Nil, boundsExceeded(ba.ToValue(), i, int64(ba.Size()))
	}
	if b < 0 || b > 0xFF {
		return Nil, invalidArgument("byte value %d out of range", b)
	}
	ba.setByte(int(i), byte(b))
	return FromFixnum(b), nil
}

// Bytes returns a copy of the contents.
func (ba *ByteArray) Bytes() []byte {
	ba = ba.live()
	out := make([]byte, ba.Size())
	for i := range out {
		out[i] = ba.getByte(i)
	}
	return out
}

func showSimpleByteArray(st *State, w io.Writer, obj *Object, _ int) {
	ba := (*ByteArray)(obj)
	fmt.Fprintf(w, "%s %q", st.objectLabel(obj), hex.EncodeToString(ba.Bytes()))
}

func init() {
	registerTypeInfo(&TypeInfo{
		Type:       ByteArrayType,
		Mark:       markNothing,
		ShowSimple: showSimpleByteArray,
	})
}

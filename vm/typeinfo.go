package vm

import (
	"fmt"
	"io"
)

// ---------------------------------------------------------------------------
// TypeInfo: per-type GC and debug descriptors
// ---------------------------------------------------------------------------

// ObjectMark is the collector side of marking. A type's Mark function calls
// Mark once per strong reference slot and hands objects whose slots are weak
// to MarkWeak instead.
type ObjectMark interface {
	Mark(v Value)
	MarkWeak(obj *Object)
}

// MarkFunc enumerates the references held in an object's body.
type MarkFunc func(obj *Object, mark ObjectMark)

// ShowFunc renders an object for diagnostics. level is the current nesting
// depth; renderers stop descending once it reaches the configured maximum.
type ShowFunc func(st *State, w io.Writer, obj *Object, level int)

// TypeInfo describes one object type. There is exactly one TypeInfo per
// ObjType, looked up by tag rather than stored in each object.
type TypeInfo struct {
	Type    ObjType
	Cleanup bool

	Mark       MarkFunc
	Show       ShowFunc
	ShowSimple ShowFunc
}

var typeInfos [numObjectTypes]*TypeInfo

// registerTypeInfo installs the descriptor for info.Type. Called from init;
// registering a type twice is a programming error.
func registerTypeInfo(info *TypeInfo) {
	if info.Type == InvalidType || info.Type >= numObjectTypes {
		panic(fmt.Sprintf("registerTypeInfo: invalid type %d", info.Type))
	}
	if typeInfos[info.Type] != nil {
		panic(fmt.Sprintf("registerTypeInfo: %s registered twice", info.Type))
	}
	if info.Mark == nil {
		info.Mark = markFields
	}
	if info.ShowSimple == nil {
		info.ShowSimple = showSimpleDefault
	}
	if info.Show == nil {
		info.Show = showFromSimple(info.ShowSimple)
	}
	typeInfos[info.Type] = info
}

// TypeInfoFor returns the descriptor for t, or nil if none is registered.
func TypeInfoFor(t ObjType) *TypeInfo {
	if t >= numObjectTypes {
		return nil
	}
	return typeInfos[t]
}

// typeInfoOf returns the descriptor for obj. An object without one cannot
// be walked, which means the heap is corrupt.
func typeInfoOf(obj *Object) *TypeInfo {
	info := TypeInfoFor(obj.objType)
	if info == nil {
		panic(internalErrorf("no type info for %s (handle %d)", obj.objType, obj.handle))
	}
	return info
}

// markFields reports every body slot as a strong reference.
func markFields(obj *Object, mark ObjectMark) {
	for _, v := range obj.body {
		mark.Mark(v)
	}
}

// markNothing is used by types whose body holds no references.
func markNothing(*Object, ObjectMark) {}

// ---------------------------------------------------------------------------
// Plain objects and classes
// ---------------------------------------------------------------------------

func init() {
	registerTypeInfo(&TypeInfo{
		Type:       ObjectType,
		ShowSimple: showSimpleInstance,
		Show:       showInstance,
	})
	registerTypeInfo(&TypeInfo{
		Type:       ClassType,
		ShowSimple: showSimpleClass,
	})
}

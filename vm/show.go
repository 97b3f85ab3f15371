package vm

import (
	"fmt"
	"io"
	"strings"
)

// ---------------------------------------------------------------------------
// Diagnostic rendering
// ---------------------------------------------------------------------------

// Show writes a multi-line rendering of v, descending at most
// Options.ShowLevel levels into nested objects.
func (st *State) Show(w io.Writer, v Value) {
	st.show(w, v, 0)
}

// ShowSimple writes a single-line rendering of v followed by a newline.
func (st *State) ShowSimple(w io.Writer, v Value) {
	st.showSimple(w, v, 0)
	fmt.Fprintln(w)
}

// Inspect returns the single-line rendering of v.
func (st *State) Inspect(v Value) string {
	var sb strings.Builder
	st.showSimple(&sb, v, 0)
	return sb.String()
}

func (st *State) show(w io.Writer, v Value, level int) {
	obj, ok := st.Memory.Object(v)
	if !ok {
		fmt.Fprintln(w, st.immediateString(v))
		return
	}
	typeInfoOf(obj).Show(st, w, obj, level)
}

func (st *State) showSimple(w io.Writer, v Value, level int) {
	obj, ok := st.Memory.Object(v)
	if !ok {
		io.WriteString(w, st.immediateString(v))
		return
	}
	typeInfoOf(obj).ShowSimple(st, w, obj, level)
}

func (st *State) immediateString(v Value) string {
	switch {
	case v.IsSymbol():
		if name := st.Symbols.NameOf(v); name != "" {
			return ":" + name
		}
	case v.IsObject():
		return fmt.Sprintf("#<dead:0x%x>", uint32(v.Handle()))
	}
	return v.String()
}

// ClassName returns the name of obj's class, or "?" if it has none.
func (st *State) ClassName(obj *Object) string {
	cls, ok := st.Memory.Object(obj.klass)
	if !ok || cls.objType != ClassType || cls.NumFields() <= classNameSlot {
		return "?"
	}
	if name := st.Symbols.NameOf(cls.body[classNameSlot]); name != "" {
		return name
	}
	return "?"
}

func (st *State) objectLabel(obj *Object) string {
	return fmt.Sprintf("#<%s:0x%x>", st.ClassName(obj), uint32(obj.handle))
}

func writeIndent(w io.Writer, level int) {
	io.WriteString(w, strings.Repeat("  ", level))
}

// showSlots renders a reference body one slot per line.
func showSlots(st *State, w io.Writer, obj *Object, level int, open, close string) {
	label := st.objectLabel(obj)
	n := obj.NumFields()
	switch {
	case n == 0:
		fmt.Fprintf(w, "%s %s%s\n", label, open, close)
		return
	case level >= st.opts.ShowLevel:
		fmt.Fprintf(w, "%s %s...%s (%d)\n", label, open, close, n)
		return
	}

	fmt.Fprintf(w, "%s %s\n", label, open)
	for _, v := range obj.body {
		writeIndent(w, level+1)
		st.show(w, v, level+1)
	}
	writeIndent(w, level)
	fmt.Fprintln(w, close)
}

// showSimpleSlots renders a reference body on one line.
func showSimpleSlots(st *State, w io.Writer, obj *Object, level int, open, close string) {
	label := st.objectLabel(obj)
	if obj.NumFields() > 0 && level >= st.opts.ShowLevel {
		fmt.Fprintf(w, "%s %s...%s", label, open, close)
		return
	}
	fmt.Fprintf(w, "%s %s", label, open)
	for i, v := range obj.body {
		if i > 0 {
			io.WriteString(w, ", ")
		}
		st.showSimple(w, v, level+1)
	}
	io.WriteString(w, close)
}

func showSimpleDefault(st *State, w io.Writer, obj *Object, _ int) {
	io.WriteString(w, st.objectLabel(obj))
}

func showFromSimple(simple ShowFunc) ShowFunc {
	return func(st *State, w io.Writer, obj *Object, level int) {
		simple(st, w, obj, level)
		fmt.Fprintln(w)
	}
}

func showInstance(st *State, w io.Writer, obj *Object, level int) {
	showSlots(st, w, obj, level, "{", "}")
}

func showSimpleInstance(st *State, w io.Writer, obj *Object, level int) {
	showSimpleSlots(st, w, obj, level, "{", "}")
}

func showSimpleClass(st *State, w io.Writer, obj *Object, _ int) {
	name := "?"
	if obj.NumFields() > classNameSlot {
		if n := st.Symbols.NameOf(obj.body[classNameSlot]); n != "" {
			name = n
		}
	}
	fmt.Fprintf(w, "#<Class %s>", name)
}

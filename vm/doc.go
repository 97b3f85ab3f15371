// Package vm implements the object memory of the runtime.
//
// This package contains:
//   - Tagged value representation (object handles, fixnums, specials, symbols)
//   - Object headers, flags and inline slot bodies
//   - Tuple and ByteArray object types
//   - Per-type TypeInfo descriptors for marking and diagnostic output
//   - A stop-the-world collector with weak references and finalizers
//   - The primitive dispatch table used by the interpreter
package vm

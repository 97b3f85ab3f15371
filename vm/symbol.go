package vm

// SymbolTable maps names to dense symbol IDs, assigned in interning order.
// Class names and primitive names are symbols. The table belongs to the
// mutator of its State and is not safe for concurrent use.
type SymbolTable struct {
	ids   map[string]uint32
	names []string
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{ids: make(map[string]uint32)}
}

// Intern returns the ID for name, assigning the next free one on first use.
func (s *SymbolTable) Intern(name string) uint32 {
	id, ok := s.ids[name]
	if !ok {
		id = uint32(len(s.names))
		s.ids[name] = id
		s.names = append(s.names, name)
	}
	return id
}

// Symbol interns name and returns it as a symbol Value.
func (s *SymbolTable) Symbol(name string) Value {
	return FromSymbolID(s.Intern(name))
}

// Name returns the name interned under id, or "" for an unknown id.
func (s *SymbolTable) Name(id uint32) string {
	if int(id) < len(s.names) {
		return s.names[id]
	}
	return ""
}

// NameOf is Name for a symbol Value; non-symbols have no name.
func (s *SymbolTable) NameOf(v Value) string {
	if v.IsSymbol() {
		return s.Name(v.SymbolID())
	}
	return ""
}

// Len returns the number of interned symbols.
func (s *SymbolTable) Len() int { return len(s.names) }

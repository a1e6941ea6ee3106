package lattice

// Map merges as: keys present in both operands delegate to the value's own
// Merge; keys present in only one operand carry through unchanged, adopted
// by reference rather than by deep copy -- the map is then free to mutate
// them.
type Map struct {
	elemKind Kind
	entries  map[string]Lattice
}

// NewMap constructs an empty Map whose values must all be of elemKind.
func NewMap(elemKind Kind) *Map {
	return &Map{elemKind: elemKind, entries: make(map[string]Lattice)}
}

func (m *Map) Kind() Kind { return KindMap }

// ElemKind is the concrete kind shared by every value in the map.
func (m *Map) ElemKind() Kind { return m.elemKind }

func (m *Map) Reveal() any {
	out := make(map[string]any, len(m.entries))
	for k, v := range m.entries {
		out[k] = v.Reveal()
	}
	return out
}

// Assign replaces the map's entries. Every value must be of elemKind.
func (m *Map) Assign(v any) error {
	entries, ok := v.(map[string]Lattice)
	if !ok {
		return ErrInvalidValue
	}
	for _, val := range entries {
		if val.Kind() != m.elemKind {
			return ErrInvalidValue
		}
	}
	m.entries = entries
	return nil
}

// Get returns the value stored for key, if any.
func (m *Map) Get(key []byte) (Lattice, bool) {
	v, ok := m.entries[string(key)]
	return v, ok
}

// Put stores a value for key; it must be of elemKind.
func (m *Map) Put(key []byte, v Lattice) error {
	if v.Kind() != m.elemKind {
		return ErrInvalidValue
	}
	if m.entries == nil {
		m.entries = make(map[string]Lattice)
	}
	m.entries[string(key)] = v
	return nil
}

// Keys returns the map's keys in unspecified order.
func (m *Map) Keys() [][]byte {
	out := make([][]byte, 0, len(m.entries))
	for k := range m.entries {
		out = append(out, []byte(k))
	}
	return out
}

func (m *Map) Len() int { return len(m.entries) }

// Merge combines two maps of the same element kind: shared keys delegate
// to the value's own Merge; keys unique to other are adopted by reference.
// The receiver is mutated; other is left untouched.
func (m *Map) Merge(other Lattice) error {
	o, ok := other.(*Map)
	if !ok {
		return ErrKindMismatch
	}
	if o.elemKind != m.elemKind {
		return ErrKindMismatch
	}
	if m.entries == nil {
		m.entries = make(map[string]Lattice, len(o.entries))
	}
	for k, v := range o.entries {
		if existing, ok := m.entries[k]; ok {
			if err := existing.Merge(v); err != nil {
				return err
			}
		} else {
			m.entries[k] = v
		}
	}
	return nil
}

// Clone returns a shallow copy: a new top-level map referencing the
// same value objects.
func (m *Map) Clone() *Map {
	clone := NewMap(m.elemKind)
	for k, v := range m.entries {
		clone.entries[k] = v
	}
	return clone
}

package lattice

import "sort"

// Set is an unordered collection of byte-string elements merged by union.
type Set struct {
	elems map[string]struct{}
}

// NewSet constructs a Set lattice from the given elements (duplicates
// collapse, as a real set requires).
func NewSet(values ...[]byte) *Set {
	s := &Set{elems: make(map[string]struct{}, len(values))}
	for _, v := range values {
		s.elems[string(v)] = struct{}{}
	}
	return s
}

func (s *Set) Kind() Kind { return KindSet }

// Reveal returns the elements in ascending sorted order so equality and
// tests are deterministic; set membership itself carries no order.
func (s *Set) Reveal() any {
	out := make([][]byte, 0, len(s.elems))
	for k := range s.elems {
		out = append(out, []byte(k))
	}
	sort.Slice(out, func(i, j int) bool { return string(out[i]) < string(out[j]) })
	return out
}

func (s *Set) Assign(v any) error {
	values, ok := v.([][]byte)
	if !ok {
		return ErrInvalidValue
	}
	elems := make(map[string]struct{}, len(values))
	for _, b := range values {
		elems[string(b)] = struct{}{}
	}
	s.elems = elems
	return nil
}

// Add inserts a single element; a no-op if already present.
func (s *Set) Add(v []byte) {
	if s.elems == nil {
		s.elems = make(map[string]struct{})
	}
	s.elems[string(v)] = struct{}{}
}

// Merge computes the union of both operands into the receiver.
func (s *Set) Merge(other Lattice) error {
	o, ok := other.(*Set)
	if !ok {
		return ErrKindMismatch
	}
	if s.elems == nil {
		s.elems = make(map[string]struct{}, len(o.elems))
	}
	for k := range o.elems {
		s.elems[k] = struct{}{}
	}
	return nil
}

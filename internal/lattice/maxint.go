package lattice

// MaxInt is an integer lattice whose merge rule is the maximum. It backs
// the per-node counters of a VectorClock.
type MaxInt struct {
	Value int64
}

func NewMaxInt(value int64) *MaxInt { return &MaxInt{Value: value} }

func (m *MaxInt) Kind() Kind { return KindMaxInt }

func (m *MaxInt) Reveal() any { return m.Value }

func (m *MaxInt) Assign(v any) error {
	i, ok := v.(int64)
	if !ok {
		return ErrInvalidValue
	}
	m.Value = i
	return nil
}

func (m *MaxInt) Merge(other Lattice) error {
	o, ok := other.(*MaxInt)
	if !ok {
		return ErrKindMismatch
	}
	if o.Value > m.Value {
		m.Value = o.Value
	}
	return nil
}

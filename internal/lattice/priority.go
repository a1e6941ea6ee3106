package lattice

// Priority is a (priority, opaque bytes) pair where the operand with
// the smaller priority number wins. Ties fall to the receiver,
// mirroring the LWW tie policy.
type Priority struct {
	Priority uint64
	Value    []byte
}

func NewPriority(priority uint64, value []byte) *Priority {
	return &Priority{Priority: priority, Value: value}
}

func (p *Priority) Kind() Kind { return KindPriority }

func (p *Priority) Reveal() any { return p.Value }

func (p *Priority) Assign(v any) error {
	val, ok := v.(Priority)
	if !ok {
		vp, ok2 := v.(*Priority)
		if !ok2 {
			return ErrInvalidValue
		}
		val = *vp
	}
	p.Priority = val.Priority
	p.Value = val.Value
	return nil
}

func (p *Priority) Merge(other Lattice) error {
	o, ok := other.(*Priority)
	if !ok {
		return ErrKindMismatch
	}
	if o.Priority < p.Priority {
		p.Priority = o.Priority
		p.Value = o.Value
	}
	return nil
}

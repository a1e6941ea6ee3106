package lattice

// LWWPair is a (timestamp, opaque bytes) pair that resolves concurrent
// writes by keeping the operand with the larger timestamp. Equal
// timestamps are legal input (two writers racing on the same millisecond)
// and must not crash; ties are broken deterministically in favor of the
// receiver.
type LWWPair struct {
	Timestamp uint64
	Value     []byte
}

// NewLWWPair constructs an LWWPair lattice.
func NewLWWPair(timestamp uint64, value []byte) *LWWPair {
	return &LWWPair{Timestamp: timestamp, Value: value}
}

func (l *LWWPair) Kind() Kind { return KindLWW }

func (l *LWWPair) Reveal() any { return l.Value }

func (l *LWWPair) Assign(v any) error {
	p, ok := v.(LWWPair)
	if !ok {
		pp, ok2 := v.(*LWWPair)
		if !ok2 {
			return ErrInvalidValue
		}
		p = *pp
	}
	l.Timestamp = p.Timestamp
	l.Value = p.Value
	return nil
}

// Merge keeps the operand with the larger timestamp; on a tie the receiver
// is kept.
func (l *LWWPair) Merge(other Lattice) error {
	o, ok := other.(*LWWPair)
	if !ok {
		return ErrKindMismatch
	}
	if o.Timestamp > l.Timestamp {
		l.Timestamp = o.Timestamp
		l.Value = o.Value
	}
	return nil
}

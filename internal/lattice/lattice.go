// Package lattice implements the closed family of CRDT value types used by
// the key-value store: each concrete kind exposes Kind, Reveal, Assign and
// Merge, and Merge only ever accepts an operand of the same kind.
// Serialization of every kind lives in internal/codec (codec.Serialize).
package lattice

import (
	"errors"
	"fmt"
)

// Kind is the wire discriminant for a concrete lattice type. It is
// preserved across serialization and never changes as a result of Merge.
type Kind uint8

const (
	KindLWW Kind = iota + 1
	KindSet
	KindOrderedSet
	KindMaxInt
	KindMap
	KindVectorClock
	KindSingleCausal
	KindMultiCausal
	KindPriority
)

func (k Kind) String() string {
	switch k {
	case KindLWW:
		return "LWW"
	case KindSet:
		return "SET"
	case KindOrderedSet:
		return "ORDERED_SET"
	case KindMaxInt:
		return "MAX_INT"
	case KindMap:
		return "MAP"
	case KindVectorClock:
		return "VECTOR_CLOCK"
	case KindSingleCausal:
		return "SINGLE_CAUSAL"
	case KindMultiCausal:
		return "MULTI_CAUSAL"
	case KindPriority:
		return "PRIORITY"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(k))
	}
}

// Sentinel errors shared across every concrete lattice's Merge/Assign.
var (
	ErrKindMismatch           = errors.New("lattice: merge operand is a different concrete kind")
	ErrInvalidValue           = errors.New("lattice: invalid value for this kind")
	ErrUnsupportedLatticeKind = errors.New("lattice: unsupported or unknown lattice kind")
)

// Lattice is a value equipped with a commutative, associative, idempotent
// merge. Reveal projects the lattice to its plain underlying value; Assign
// replaces the contents; Merge combines two lattices of the same concrete
// kind into their least upper bound, mutating the receiver in place and
// returning an error only on a kind mismatch or malformed operand.
type Lattice interface {
	Kind() Kind
	Reveal() any
	Assign(v any) error
	Merge(other Lattice) error
}

// Equal reports whether two lattices reveal equal values. nil is never
// equal to a non-nil lattice.
func Equal(a, b Lattice) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	return revealEqual(a.Reveal(), b.Reveal())
}

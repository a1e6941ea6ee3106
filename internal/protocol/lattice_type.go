package protocol

import (
	"fmt"

	"github.com/hydro-project/anna-go/internal/lattice"
)

// FromKind maps an internal lattice.Kind to its wire-level LatticeType.
// MAP and VECTOR_CLOCK never appear on the wire as a KeyTuple's own
// lattice_type; they only ever occur nested inside a causal value's
// payload.
func FromKind(k lattice.Kind) (LatticeType, error) {
	switch k {
	case lattice.KindLWW:
		return LatticeLWW, nil
	case lattice.KindSet:
		return LatticeSet, nil
	case lattice.KindOrderedSet:
		return LatticeOrderedSet, nil
	case lattice.KindSingleCausal:
		return LatticeSingleCausal, nil
	case lattice.KindMultiCausal:
		return LatticeMultiCausal, nil
	case lattice.KindPriority:
		return LatticePriority, nil
	default:
		return "", fmt.Errorf("%w: %s is not a top-level wire lattice type", lattice.ErrUnsupportedLatticeKind, k)
	}
}

// ToKind is the inverse of FromKind.
func ToKind(t LatticeType) (lattice.Kind, error) {
	switch t {
	case LatticeLWW:
		return lattice.KindLWW, nil
	case LatticeSet:
		return lattice.KindSet, nil
	case LatticeOrderedSet:
		return lattice.KindOrderedSet, nil
	case LatticeSingleCausal:
		return lattice.KindSingleCausal, nil
	case LatticeMultiCausal:
		return lattice.KindMultiCausal, nil
	case LatticePriority:
		return lattice.KindPriority, nil
	default:
		return 0, fmt.Errorf("%w: unrecognized wire lattice type %q", lattice.ErrUnsupportedLatticeKind, t)
	}
}

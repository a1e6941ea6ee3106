// Package codec serializes and deserializes lattice.Lattice values to and
// from a compact, length-prefixed binary envelope tagged with the
// lattice's Kind. This format is internal to the client: it exists only
// to give KeyTuple payloads a bit-exact, round-trippable encoding, not
// to describe the routing/worker tiers' own wire schema.
package codec

import (
	"errors"
	"fmt"

	"github.com/hydro-project/anna-go/internal/lattice"
)

// ErrTruncatedPayload is returned when a payload ends before a length-
// prefixed field can be fully read.
var ErrTruncatedPayload = errors.New("codec: truncated payload")

// Serialize encodes l into a binary payload tagged with its own Kind.
func Serialize(l lattice.Lattice) ([]byte, lattice.Kind, error) {
	if l == nil {
		return nil, 0, fmt.Errorf("codec: %w: nil lattice", lattice.ErrInvalidValue)
	}
	payload, err := encode(l, l.Kind())
	if err != nil {
		return nil, 0, err
	}
	return payload, l.Kind(), nil
}

// Deserialize decodes payload into a fresh lattice.Lattice of the given
// kind. An unrecognized kind yields lattice.ErrUnsupportedLatticeKind.
func Deserialize(payload []byte, kind lattice.Kind) (lattice.Lattice, error) {
	r := newReader(payload)
	l, err := decode(r, kind)
	if err != nil {
		return nil, err
	}
	if !r.done() {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrTruncatedPayload, len(r.buf))
	}
	return l, nil
}

// encode dispatches on kind rather than on l's concrete Go type so that
// nested values inside MAP/VECTOR_CLOCK/*_CAUSAL lattices -- whose
// concrete type is only known via their container's elemKind -- can be
// encoded the same way as a top-level value.
func encode(l lattice.Lattice, kind lattice.Kind) ([]byte, error) {
	w := &writer{}
	switch kind {
	case lattice.KindLWW:
		v, ok := l.(*lattice.LWWPair)
		if !ok {
			return nil, lattice.ErrKindMismatch
		}
		w.putUint64(v.Timestamp)
		w.putBytes(v.Value)

	case lattice.KindSet:
		v, ok := l.(*lattice.Set)
		if !ok {
			return nil, lattice.ErrKindMismatch
		}
		elems := v.Reveal().([][]byte)
		w.putUint32(uint32(len(elems)))
		for _, e := range elems {
			w.putBytes(e)
		}

	case lattice.KindOrderedSet:
		v, ok := l.(*lattice.OrderedSet)
		if !ok {
			return nil, lattice.ErrKindMismatch
		}
		elems := v.Reveal().([][]byte)
		w.putUint32(uint32(len(elems)))
		for _, e := range elems {
			w.putBytes(e)
		}

	case lattice.KindMaxInt:
		v, ok := l.(*lattice.MaxInt)
		if !ok {
			return nil, lattice.ErrKindMismatch
		}
		w.putInt64(v.Value)

	case lattice.KindMap:
		v, ok := l.(*lattice.Map)
		if !ok {
			return nil, lattice.ErrKindMismatch
		}
		if err := encodeMap(w, v); err != nil {
			return nil, err
		}

	case lattice.KindVectorClock:
		v, ok := l.(*lattice.VectorClock)
		if !ok {
			return nil, lattice.ErrKindMismatch
		}
		encodeVectorClock(w, v)

	case lattice.KindSingleCausal:
		v, ok := l.(*lattice.SingleCausal)
		if !ok {
			return nil, lattice.ErrKindMismatch
		}
		encodeVectorClock(w, v.VC)
		setPayload, err := encode(v.Value, lattice.KindSet)
		if err != nil {
			return nil, err
		}
		w.putBytes(setPayload)

	case lattice.KindMultiCausal:
		v, ok := l.(*lattice.MultiCausal)
		if !ok {
			return nil, lattice.ErrKindMismatch
		}
		encodeVectorClock(w, v.VC)
		deps := v.Deps
		if deps == nil {
			deps = lattice.NewMap(lattice.KindVectorClock)
		}
		if err := encodeMap(w, deps); err != nil {
			return nil, err
		}
		setPayload, err := encode(v.Value, lattice.KindSet)
		if err != nil {
			return nil, err
		}
		w.putBytes(setPayload)

	case lattice.KindPriority:
		v, ok := l.(*lattice.Priority)
		if !ok {
			return nil, lattice.ErrKindMismatch
		}
		w.putUint64(v.Priority)
		w.putBytes(v.Value)

	default:
		return nil, lattice.ErrUnsupportedLatticeKind
	}
	return w.bytes(), nil
}

func encodeMap(w *writer, m *lattice.Map) error {
	w.putByte(byte(m.ElemKind()))
	keys := m.Keys()
	w.putUint32(uint32(len(keys)))
	for _, k := range keys {
		w.putBytes(k)
		val, _ := m.Get(k)
		payload, err := encode(val, m.ElemKind())
		if err != nil {
			return err
		}
		w.putBytes(payload)
	}
	return nil
}

func encodeVectorClock(w *writer, vc *lattice.VectorClock) {
	nodes := vc.Nodes()
	w.putUint32(uint32(len(nodes)))
	for _, n := range nodes {
		w.putBytes([]byte(n))
		w.putInt64(vc.Get(n))
	}
}

func decode(r *reader, kind lattice.Kind) (lattice.Lattice, error) {
	switch kind {
	case lattice.KindLWW:
		ts, err := r.getUint64()
		if err != nil {
			return nil, err
		}
		val, err := r.getBytes()
		if err != nil {
			return nil, err
		}
		return lattice.NewLWWPair(ts, val), nil

	case lattice.KindSet:
		n, err := r.getUint32()
		if err != nil {
			return nil, err
		}
		elems := make([][]byte, 0, n)
		for i := uint32(0); i < n; i++ {
			e, err := r.getBytes()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		return lattice.NewSet(elems...), nil

	case lattice.KindOrderedSet:
		n, err := r.getUint32()
		if err != nil {
			return nil, err
		}
		elems := make([][]byte, 0, n)
		for i := uint32(0); i < n; i++ {
			e, err := r.getBytes()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		return lattice.NewOrderedSet(elems...), nil

	case lattice.KindMaxInt:
		v, err := r.getInt64()
		if err != nil {
			return nil, err
		}
		return lattice.NewMaxInt(v), nil

	case lattice.KindMap:
		return decodeMap(r)

	case lattice.KindVectorClock:
		return decodeVectorClock(r)

	case lattice.KindSingleCausal:
		vc, err := decodeVectorClock(r)
		if err != nil {
			return nil, err
		}
		setPayload, err := r.getBytes()
		if err != nil {
			return nil, err
		}
		setL, err := Deserialize(setPayload, lattice.KindSet)
		if err != nil {
			return nil, err
		}
		return lattice.NewSingleCausal(vc, setL.(*lattice.Set)), nil

	case lattice.KindMultiCausal:
		vc, err := decodeVectorClock(r)
		if err != nil {
			return nil, err
		}
		deps, err := decodeMap(r)
		if err != nil {
			return nil, err
		}
		setPayload, err := r.getBytes()
		if err != nil {
			return nil, err
		}
		setL, err := Deserialize(setPayload, lattice.KindSet)
		if err != nil {
			return nil, err
		}
		return lattice.NewMultiCausal(vc, deps, setL.(*lattice.Set)), nil

	case lattice.KindPriority:
		p, err := r.getUint64()
		if err != nil {
			return nil, err
		}
		val, err := r.getBytes()
		if err != nil {
			return nil, err
		}
		return lattice.NewPriority(p, val), nil

	default:
		return nil, lattice.ErrUnsupportedLatticeKind
	}
}

func decodeMap(r *reader) (*lattice.Map, error) {
	elemKindByte, err := r.getByte()
	if err != nil {
		return nil, err
	}
	elemKind := lattice.Kind(elemKindByte)
	n, err := r.getUint32()
	if err != nil {
		return nil, err
	}
	m := lattice.NewMap(elemKind)
	for i := uint32(0); i < n; i++ {
		key, err := r.getBytes()
		if err != nil {
			return nil, err
		}
		payload, err := r.getBytes()
		if err != nil {
			return nil, err
		}
		val, err := Deserialize(payload, elemKind)
		if err != nil {
			return nil, err
		}
		if err := m.Put(key, val); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func decodeVectorClock(r *reader) (*lattice.VectorClock, error) {
	n, err := r.getUint32()
	if err != nil {
		return nil, err
	}
	vc := lattice.NewVectorClock()
	for i := uint32(0); i < n; i++ {
		node, err := r.getBytes()
		if err != nil {
			return nil, err
		}
		count, err := r.getInt64()
		if err != nil {
			return nil, err
		}
		vc.Update(string(node), count)
	}
	return vc, nil
}

package lattice

import "testing"

func TestLWWMergeLargerTimestampWins(t *testing.T) {
	a := NewLWWPair(7, []byte("a"))
	b := NewLWWPair(9, []byte("b"))

	if err := a.Merge(b); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if a.Timestamp != 9 || string(a.Value) != "b" {
		t.Errorf("expected (9, b), got (%d, %s)", a.Timestamp, a.Value)
	}
}

func TestLWWMergeSmallerTimestampLoses(t *testing.T) {
	a := NewLWWPair(9, []byte("a"))
	b := NewLWWPair(7, []byte("b"))

	if err := a.Merge(b); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if a.Timestamp != 9 || string(a.Value) != "a" {
		t.Errorf("expected (9, a), got (%d, %s)", a.Timestamp, a.Value)
	}
}

func TestLWWMergeTieKeepsReceiver(t *testing.T) {
	a := NewLWWPair(5, []byte("a"))
	b := NewLWWPair(5, []byte("b"))

	if err := a.Merge(b); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if string(a.Value) != "a" {
		t.Errorf("expected tie to keep receiver's value, got %s", a.Value)
	}
}

func TestLWWMergeKindMismatch(t *testing.T) {
	a := NewLWWPair(1, []byte("a"))
	if err := a.Merge(NewSet([]byte("x"))); err != ErrKindMismatch {
		t.Errorf("expected ErrKindMismatch, got %v", err)
	}
}

func TestLWWIdempotentCommutativeAssociative(t *testing.T) {
	mk := func() Lattice { return NewLWWPair(3, []byte("x")) }
	checkLatticeLaws(t, mk, func() Lattice { return NewLWWPair(4, []byte("y")) }, func() Lattice { return NewLWWPair(2, []byte("z")) })
}

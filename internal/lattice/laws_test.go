package lattice

import "testing"

// checkLatticeLaws verifies idempotence, commutativity and associativity
// of Merge for a concrete kind, given three constructors that each return
// a fresh, independent instance (Merge mutates its receiver, so every
// operand must be freshly built).
func checkLatticeLaws(t *testing.T, mkA, mkB, mkC func() Lattice) {
	t.Helper()

	// Idempotence: merge(a, a) == a.
	a1, a2 := mkA(), mkA()
	if err := a1.Merge(a2); err != nil {
		t.Fatalf("idempotence merge failed: %v", err)
	}
	if !Equal(a1, mkA()) {
		t.Errorf("idempotence violated: merge(a,a) = %v, want %v", a1.Reveal(), mkA().Reveal())
	}

	// Commutativity: merge(a, b) == merge(b, a).
	ab := mkA()
	if err := ab.Merge(mkB()); err != nil {
		t.Fatalf("commutativity merge(a,b) failed: %v", err)
	}
	ba := mkB()
	if err := ba.Merge(mkA()); err != nil {
		t.Fatalf("commutativity merge(b,a) failed: %v", err)
	}
	if !Equal(ab, ba) {
		t.Errorf("commutativity violated: merge(a,b) = %v, merge(b,a) = %v", ab.Reveal(), ba.Reveal())
	}

	// Associativity: merge(merge(a,b), c) == merge(a, merge(b,c)).
	abThenC := mkA()
	if err := abThenC.Merge(mkB()); err != nil {
		t.Fatalf("associativity left merge(a,b) failed: %v", err)
	}
	if err := abThenC.Merge(mkC()); err != nil {
		t.Fatalf("associativity left merge((a,b),c) failed: %v", err)
	}

	bc := mkB()
	if err := bc.Merge(mkC()); err != nil {
		t.Fatalf("associativity right merge(b,c) failed: %v", err)
	}
	aThenBc := mkA()
	if err := aThenBc.Merge(bc); err != nil {
		t.Fatalf("associativity right merge(a,(b,c)) failed: %v", err)
	}

	if !Equal(abThenC, aThenBc) {
		t.Errorf("associativity violated: (a,b),c = %v, a,(b,c) = %v", abThenC.Reveal(), aThenBc.Reveal())
	}
}

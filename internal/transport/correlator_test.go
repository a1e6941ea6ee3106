package transport

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestNextRequestIDFormatAndWraparound(t *testing.T) {
	c := NewCorrelator("10.0.0.1", 3)
	ids := []string{c.NextRequestID(), c.NextRequestID(), c.NextRequestID(), c.NextRequestID()}
	want := []string{"10.0.0.1:0", "10.0.0.1:1", "10.0.0.1:2", "10.0.0.1:0"}
	for i, id := range ids {
		if id != want[i] {
			t.Errorf("id %d: got %q, want %q", i, id, want[i])
		}
	}
}

func TestNextRequestIDDefaultModulus(t *testing.T) {
	c := NewCorrelator("1.2.3.4", 0)
	if !strings.HasSuffix(c.NextRequestID(), ":0") {
		t.Fatalf("expected counter to start at 0")
	}
}

func TestAwaitCollectsAllIDs(t *testing.T) {
	c := NewCorrelator("1.1.1.1", 10000)
	id1, id2 := c.NextRequestID(), c.NextRequestID()

	go func() {
		c.Deliver(id2, "second")
		c.Deliver(id1, "first")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	results, err := c.Await(ctx, []string{id1, id2})
	if err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	if results[id1] != "first" || results[id2] != "second" {
		t.Errorf("unexpected results: %v", results)
	}
}

func TestAwaitDiscardsUnmatchedReplies(t *testing.T) {
	c := NewCorrelator("1.1.1.1", 10000)
	id := c.NextRequestID()

	if c.Deliver("not-outstanding", "x") {
		t.Error("expected Deliver for an unregistered id to report false")
	}

	go c.Deliver(id, "value")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	results, err := c.Await(ctx, []string{id})
	if err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	if results[id] != "value" {
		t.Errorf("unexpected results: %v", results)
	}
}

func TestAwaitDuplicateYieldsExactlyOneEntry(t *testing.T) {
	c := NewCorrelator("1.1.1.1", 10000)
	id := c.NextRequestID()

	go func() {
		c.Deliver(id, "first")
		c.Deliver(id, "second") // already satisfied: must be discarded
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	results, err := c.Await(ctx, []string{id})
	if err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	if len(results) != 1 || results[id] != "first" {
		t.Errorf("expected exactly one entry with the first value, got %v", results)
	}
}

func TestInstanceIDIsStableAndDistinctAcrossCorrelators(t *testing.T) {
	c := NewCorrelator("1.1.1.1", 10000)
	if c.InstanceID() == "" {
		t.Fatal("expected a non-empty instance id")
	}
	if c.InstanceID() != c.InstanceID() {
		t.Error("expected InstanceID to be stable across calls")
	}

	other := NewCorrelator("1.1.1.1", 10000)
	if other.InstanceID() == c.InstanceID() {
		t.Error("expected distinct correlators to mint distinct instance ids")
	}
}

func TestAwaitTimesOut(t *testing.T) {
	c := NewCorrelator("1.1.1.1", 10000)
	id := c.NextRequestID()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Await(ctx, []string{id})
	if err != ErrTimeout {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

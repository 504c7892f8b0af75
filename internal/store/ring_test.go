package store

import (
	"testing"

	"pgregory.net/rapid"
)

// The eviction bound holds for any capacity and any write sequence:
// size never exceeds capacity, and once overflow happens the
// oldest-inserted item is gone.
func TestRingEvictionBound(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(2, 64).Draw(t, "capacity")
		writes := rapid.IntRange(1, 500).Draw(t, "writes")

		r := newRing[int](capacity)
		for i := 0; i < writes; i++ {
			r.push(i)
			if r.len() > capacity {
				t.Fatalf("size %d exceeds capacity %d", r.len(), capacity)
			}
		}

		if writes > capacity {
			for i := 0; i < r.len(); i++ {
				if r.at(i) == 0 {
					t.Fatalf("oldest-inserted item still present after overflow")
				}
			}
		}
	})
}

func TestRingOrderPreserved(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(2, 32).Draw(t, "capacity")
		writes := rapid.IntRange(0, 200).Draw(t, "writes")

		r := newRing[int](capacity)
		for i := 0; i < writes; i++ {
			r.push(i)
		}

		all := r.all()
		for i := 1; i < len(all); i++ {
			if all[i] <= all[i-1] {
				t.Fatalf("order not preserved: %v", all)
			}
		}
		if len(all) > 0 && all[len(all)-1] != writes-1 {
			t.Fatalf("newest element missing: got %d want %d", all[len(all)-1], writes-1)
		}
	})
}

func TestRingDropOldest(t *testing.T) {
	r := newRing[int](8)
	for i := 0; i < 8; i++ {
		r.push(i)
	}
	dropped := r.dropOldest(3)
	if dropped != 3 || r.len() != 5 {
		t.Fatalf("dropOldest: dropped=%d len=%d", dropped, r.len())
	}
	if r.at(0) != 3 {
		t.Fatalf("expected oldest 3, got %d", r.at(0))
	}

	// dropping more than held drops everything
	if got := r.dropOldest(100); got != 5 {
		t.Fatalf("expected 5 dropped, got %d", got)
	}
	if r.len() != 0 {
		t.Fatalf("expected empty ring")
	}
}

package bbrplus

import "testing"

func TestMaxFilterKeepsLargestWithinWindow(t *testing.T) {
	f := newMaxFilter[uint64, uint32](10)
	f.Reset(0, 0)

	f.Update(5, 1)
	f.Update(9, 2)
	f.Update(3, 3)

	if got := f.Best(); got != 9 {
		t.Fatalf("Best() = %d, want 9", got)
	}
}

func TestMaxFilterExpiresOldBest(t *testing.T) {
	f := newMaxFilter[uint64, uint32](10)
	f.Reset(100, 0)

	// A long run of smaller samples should eventually expire the initial
	// best once its age exceeds the window.
	var last uint64
	for k := uint32(1); k <= 12; k++ {
		f.Update(uint64(k), k)
		last = f.Best()
	}
	if last >= 100 {
		t.Fatalf("Best() = %d, want the stale 100 sample to have expired", last)
	}
}

func TestMinFilterKeepsSmallest(t *testing.T) {
	f := newMinFilter[uint64, uint32](10)
	f.Reset(50, 0)

	f.Update(40, 1)
	f.Update(60, 2)

	if got := f.Best(); got != 40 {
		t.Fatalf("Best() = %d, want 40", got)
	}
}

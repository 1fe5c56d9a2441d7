package bbrplus

import (
	"golang.org/x/exp/constraints"
)

// windowedFilter tracks the best, second-best, and third-best sample seen
// within a sliding key window, per Kathleen Nichols' algorithm for tracking a
// running min (or max) over a window without rescanning history on every
// update. best/2nd/3rd are kept in non-decreasing age order so that when the
// best estimate expires it can be replaced by the next-best without losing
// track of the window's tail.
//
// A fresh best sample replaces all three slots, since it dominates
// everything else currently held and is the most recent observation — the
// window effectively restarts on every new best. Samples that only beat the
// second or third slot replace just that slot and the ones after it.
type windowedFilter[V constraints.Ordered, T constraints.Integer] struct {
	window     T
	best       entry[V, T]
	secondBest entry[V, T]
	thirdBest  entry[V, T]
	better     func(V, V) bool
	seeded     bool
}

type entry[V constraints.Ordered, T constraints.Integer] struct {
	sample V
	at     T
}

// newMaxFilter builds a windowed filter that keeps the largest sample within
// window, keyed by an arbitrary monotone counter (round count or a clock).
func newMaxFilter[V constraints.Ordered, T constraints.Integer](window T) *windowedFilter[V, T] {
	return &windowedFilter[V, T]{
		window: window,
		better: func(a, b V) bool { return a >= b },
	}
}

// newMinFilter is the dual of newMaxFilter: it keeps the smallest sample.
func newMinFilter[V constraints.Ordered, T constraints.Integer](window T) *windowedFilter[V, T] {
	return &windowedFilter[V, T]{
		window: window,
		better: func(a, b V) bool { return a <= b },
	}
}

func (f *windowedFilter[V, T]) Best() V { return f.best.sample }

// Update folds in a new sample observed at time/round at, expiring anything
// that has fallen outside the window.
func (f *windowedFilter[V, T]) Update(sample V, at T) {
	if !f.seeded || f.better(sample, f.best.sample) || at-f.thirdBest.at > f.window {
		f.Reset(sample, at)
		return
	}

	if f.better(sample, f.secondBest.sample) {
		f.secondBest = entry[V, T]{sample, at}
		f.thirdBest = f.secondBest
	} else if f.better(sample, f.thirdBest.sample) {
		f.thirdBest = entry[V, T]{sample, at}
	}

	if at-f.best.at > f.window {
		// The best estimate has aged out of the window; promote the runners-up.
		f.best = f.secondBest
		f.secondBest = f.thirdBest
		f.thirdBest = entry[V, T]{sample, at}
		if at-f.best.at > f.window {
			f.best = f.secondBest
			f.secondBest = f.thirdBest
		}
		return
	}
	if f.secondBest == f.best && at-f.secondBest.at > f.window/4 {
		f.secondBest = entry[V, T]{sample, at}
		f.thirdBest = f.secondBest
		return
	}
	if f.thirdBest == f.secondBest && at-f.thirdBest.at > f.window/2 {
		f.thirdBest = entry[V, T]{sample, at}
	}
}

// Reset discards history and seeds all three slots with sample.
func (f *windowedFilter[V, T]) Reset(sample V, at T) {
	f.best = entry[V, T]{sample, at}
	f.secondBest = f.best
	f.thirdBest = f.best
	f.seeded = true
}

package bbrplus

import "math/rand"

// defaultRand is Config.Rand's default: a process-global source, good enough
// for picking a PROBE_BW cycle's starting phase. Tests inject a stub that
// always returns 0 to make cycling deterministic.
func defaultRand(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	return uint32(rand.Int63n(int64(n)))
}

package bbrplus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Invariant 1: cwnd_min_target <= published cwnd <= snd_cwnd_clamp, for all
// event sequences.
func TestInvariantCwndWithinBounds(t *testing.T) {
	host := newFakeHost()
	host.srttUs = 10_000
	c := NewController(deterministicConfig(), nil)
	c.Init(host)

	for i := 0; i < 200; i++ {
		host.advance(5_000, 37)
		host.inFlight = host.cwnd
		rs := RateSample{
			Delivered:      37,
			IntervalUs:     5_000,
			RTTUs:          10_000,
			AckedSacked:    37,
			PriorDelivered: host.delivered - 37,
			PriorInFlight:  host.inFlight,
		}
		c.CongControl(host, rs)
		require.GreaterOrEqual(t, host.SndCwnd(), c.cfg.CwndMinTarget)
		require.LessOrEqual(t, host.SndCwnd(), host.SndCwndClamp())
	}
}

// Invariant 2: mode == PROBE_RTT implies published cwnd <= 4.
func TestInvariantProbeRTTCapsCwnd(t *testing.T) {
	host := newFakeHost()
	host.srttUs = 10_000
	c := NewController(deterministicConfig(), nil)
	c.Init(host)
	c.mode = ProbeRTT
	host.cwnd = 100
	host.inFlight = 100

	rs := RateSample{Delivered: 10, IntervalUs: 10_000, RTTUs: 10_000, AckedSacked: 10, PriorDelivered: host.delivered, PriorInFlight: 100}
	c.setCwnd(host, rs, rs.AckedSacked, c.bandwidth(), c.cwndGain)

	require.LessOrEqual(t, host.SndCwnd(), uint32(4))
}

// Invariant 3: the bandwidth max-filter's returned value never exceeds the
// largest sample admitted within the window.
func TestInvariantMaxFilterNeverExceedsAdmittedSamples(t *testing.T) {
	f := newMaxFilter[uint64, uint32](10)
	f.Reset(0, 0)

	samples := []uint64{3, 7, 2, 9, 1, 5}
	var maxSeen uint64
	for i, s := range samples {
		f.Update(s, uint32(i))
		if s > maxSeen {
			maxSeen = s
		}
		require.LessOrEqual(t, f.Best(), maxSeen)
	}
}

// Invariant 4: once lt_use_bw latches, pacing_gain stays at unity for every
// subsequent ACK until the LT estimator is reset.
func TestInvariantLTUseBwHoldsUnityGain(t *testing.T) {
	host := newFakeHost()
	host.srttUs = 10_000
	c := NewController(deterministicConfig(), nil)
	c.Init(host)
	c.ltUseBw = true
	c.ltBw = 1 << 20
	c.pacingGain = gainUnit
	c.mode = ProbeBW

	for i := 0; i < 5; i++ {
		host.advance(10_000, 50)
		host.inFlight = 50
		rs := RateSample{
			Delivered:      50,
			IntervalUs:     10_000,
			RTTUs:          10_000,
			AckedSacked:    50,
			PriorDelivered: host.delivered - 50,
			PriorInFlight:  host.inFlight,
		}
		c.CongControl(host, rs)
		require.True(t, c.ltUseBw)
		require.Equal(t, uint32(gainUnit), c.pacingGain)
	}
}

// Invariant 6: cycle_idx stays within [0,7] and cycle_len within [2,8]
// throughout PROBE_BW operation.
func TestInvariantCycleIdxAndLenBounded(t *testing.T) {
	host := newFakeHost()
	host.srttUs = 10_000
	c := NewController(deterministicConfig(), nil)
	c.Init(host)
	c.fullBwCnt = c.cfg.FullBwRounds
	c.resetProbeBWMode(host)

	for i := 0; i < 100; i++ {
		host.advance(2_000, 50)
		host.inFlight = 50
		rs := RateSample{
			Delivered:      50,
			IntervalUs:     2_000,
			RTTUs:          10_000,
			AckedSacked:    50,
			PriorDelivered: host.delivered - 50,
			PriorInFlight:  host.inFlight,
		}
		c.CongControl(host, rs)
		require.Less(t, c.cycleIdx, uint32(cycleLen))
		require.GreaterOrEqual(t, c.cycleLen, uint32(2))
		require.LessOrEqual(t, c.cycleLen, uint32(8))
	}
}

// Invariant 7: once full_bw_cnt reaches the threshold, full_bw_reached stays
// true thereafter (it is never decremented back below threshold by later
// ACKs within the same STARTUP/DRAIN lifetime).
func TestInvariantFullBwReachedIsSticky(t *testing.T) {
	host := newFakeHost()
	host.srttUs = 10_000
	c := NewController(deterministicConfig(), nil)
	c.Init(host)

	for i := 0; i < 10; i++ {
		host.advance(10_000, 100)
		host.inFlight = 100
		rs := RateSample{
			Delivered:      100,
			IntervalUs:     10_000,
			RTTUs:          10_000,
			AckedSacked:    100,
			PriorDelivered: host.delivered - 100,
			PriorInFlight:  host.inFlight,
		}
		c.CongControl(host, rs)
	}
	require.True(t, c.fullBwReached())

	for i := 0; i < 5; i++ {
		host.advance(10_000, 50)
		host.inFlight = 50
		rs := RateSample{
			Delivered:      50,
			IntervalUs:     10_000,
			RTTUs:          10_000,
			AckedSacked:    50,
			PriorDelivered: host.delivered - 50,
			PriorInFlight:  host.inFlight,
		}
		c.CongControl(host, rs)
		require.True(t, c.fullBwReached())
	}
}

// Law: a null rate sample (no delivery, no interval, nothing acked) must not
// perturb the published cwnd or pacing rate.
func TestLawNullSampleIsIdempotent(t *testing.T) {
	host := newFakeHost()
	host.srttUs = 10_000
	c := NewController(deterministicConfig(), nil)
	c.Init(host)

	cwndBefore := host.SndCwnd()
	rateBefore := host.PacingRate()

	c.CongControl(host, RateSample{})

	require.Equal(t, cwndBefore, host.SndCwnd())
	require.Equal(t, rateBefore, host.PacingRate())
}

// Law: min_rtt_us is non-increasing over a span shorter than the min-RTT
// window when fed monotonically non-increasing RTT samples.
func TestLawMinRTTMonotonicWithinWindow(t *testing.T) {
	host := newFakeHost()
	host.srttUs = 50_000
	c := NewController(deterministicConfig(), nil)
	c.Init(host)

	rtts := []uint32{50_000, 40_000, 30_000, 30_000, 20_000}
	prev := c.minRTTUs
	for _, rtt := range rtts {
		host.advance(1_000, 10)
		rs := RateSample{Delivered: 10, IntervalUs: 1_000, RTTUs: int64(rtt), AckedSacked: 10, PriorDelivered: host.delivered - 10}
		c.CongControl(host, rs)
		require.LessOrEqual(t, c.minRTTUs, prev)
		prev = c.minRTTUs
	}
}

package bbrplus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func deterministicConfig() Config {
	cfg := DefaultConfig()
	cfg.Rand = func(n uint32) uint32 { return 0 }
	return cfg
}

// Scenario 1: STARTUP ramp. On a path with a 10ms min RTT, ten consecutive
// non-app-limited samples of 100 packets delivered per 10ms interval should
// converge the bandwidth estimate and, after three rounds without 25%
// growth, declare the pipe full and move to DRAIN. In-flight is held above
// the unity-gain target (100-packet BDP plus quantization budget), as
// STARTUP's high gain would leave it, so DRAIN does not exit at once.
func TestScenarioStartupRamp(t *testing.T) {
	host := newFakeHost()
	host.srttUs = 10_000
	c := NewController(deterministicConfig(), nil)
	c.Init(host)
	require.Equal(t, Startup, c.Mode())

	for i := 0; i < 10; i++ {
		host.advance(10_000, 100)
		host.inFlight = 400
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

	require.True(t, c.fullBwReached(), "expected full bandwidth to be detected after a sustained flat rate")
	require.Equal(t, Drain, c.Mode(), "expected STARTUP to exit to DRAIN once the pipe is judged full")
}

// Scenario 2: DRAIN -> PROBE_BW. Once in-flight falls back to the
// unity-gain BDP, DRAIN should hand off to PROBE_BW with a cycle index
// derived from the (stubbed, always-zero) random start offset.
func TestScenarioDrainToProbeBW(t *testing.T) {
	host := newFakeHost()
	host.srttUs = 10_000
	c := NewController(deterministicConfig(), nil)
	c.Init(host)

	for i := 0; i < 10; i++ {
		host.advance(10_000, 100)
		host.inFlight = 400
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
	require.Equal(t, Drain, c.Mode())

	// Inflight now drops to match the unity-gain BDP; the next ACK should
	// drain straight through to PROBE_BW.
	host.advance(10_000, 100)
	host.inFlight = c.inflight(c.maxBw(), gainUnit)
	rs := RateSample{
		Delivered:      100,
		IntervalUs:     10_000,
		RTTUs:          10_000,
		AckedSacked:    100,
		PriorDelivered: host.delivered - 100,
		PriorInFlight:  host.inFlight,
	}
	c.CongControl(host, rs)

	require.Equal(t, ProbeBW, c.Mode())
	require.Less(t, c.cycleIdx, uint32(cycleLen))
}

// Scenario 3: PROBE_BW UP -> DOWN -> CRUISE. With drain-to-target cycling,
// the UP phase should hand off to DOWN once in-flight reaches the
// super-unity-gain target past a full min-RTT, and DOWN should hand off to
// CRUISE once in-flight has drained back to the unity-gain BDP.
func TestScenarioProbeBWDrainToTargetCycling(t *testing.T) {
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
	c.fullBwCnt = c.cfg.FullBwRounds
	c.resetProbeBWMode(host)
	require.Equal(t, uint32(bwProbeUp), c.cycleIdx)
	require.Equal(t, pacingGainCycle[bwProbeUp], c.pacingGain)

	bw := c.maxBw()
	upTarget := c.inflight(bw, c.pacingGain)

	// A full min-RTT elapses with in-flight at the UP-phase target: the
	// cycle should hand off to DOWN. The ACK delivers at no more than the
	// established rate, so the bandwidth estimate (and the target) stay put.
	host.advance(int64(c.minRTTUs)+1_000, 100)
	host.inFlight = upTarget
	rs := RateSample{
		Delivered:      100,
		IntervalUs:     int64(c.minRTTUs) + 1_000,
		RTTUs:          10_000,
		AckedSacked:    100,
		PriorDelivered: host.delivered - 100,
		PriorInFlight:  upTarget,
	}
	c.CongControl(host, rs)
	require.Equal(t, uint32(bwProbeDown), c.cycleIdx)
	require.Equal(t, pacingGainCycle[bwProbeDown], c.pacingGain)

	// In-flight then drains back to the unity-gain BDP: the cycle should
	// hand off to CRUISE.
	cruiseTarget := c.inflight(c.maxBw(), gainUnit)
	host.advance(1_000, cruiseTarget)
	host.inFlight = cruiseTarget
	rs = RateSample{
		Delivered:      cruiseTarget,
		IntervalUs:     1_000,
		RTTUs:          10_000,
		AckedSacked:    cruiseTarget,
		PriorDelivered: host.delivered - cruiseTarget,
		PriorInFlight:  cruiseTarget,
	}
	c.CongControl(host, rs)
	require.Equal(t, uint32(bwProbeCruise), c.cycleIdx)
	require.Equal(t, uint32(gainUnit), c.pacingGain)
}

// Scenario 4: policer detection. Two consecutive >=4-round sampling
// intervals with a loss rate above threshold and consistent throughput
// should latch lt_use_bw, average the two intervals' rates into lt_bw, and
// hold pacing_gain at unity.
func TestScenarioPolicerDetection(t *testing.T) {
	host := newFakeHost()
	host.srttUs = 10_000
	c := NewController(deterministicConfig(), nil)
	c.Init(host)
	// Force full bandwidth so the model is in steady state PROBE_BW,
	// matching where a policer is actually encountered in practice.
	c.fullBwCnt = c.cfg.FullBwRounds
	c.resetProbeBWMode(host)

	runLossyInterval := func() {
		for r := 0; r < 5; r++ {
			host.advance(10_000, 80)
			host.inFlight = 80
			losses := uint32(0)
			if r == 4 {
				losses = 80 // 20% of the 400 delivered over one interval
			}
			rs := RateSample{
				Delivered:      80,
				IntervalUs:     10_000,
				RTTUs:          10_000,
				AckedSacked:    80,
				Losses:         losses,
				PriorDelivered: host.delivered - 80,
				PriorInFlight:  host.inFlight,
			}
			if losses > 0 {
				host.lost += losses
			}
			c.CongControl(host, rs)
		}
	}

	// The first lossy round only arms sampling; the two runs after it are
	// the two intervals that get compared.
	runLossyInterval()
	runLossyInterval()
	runLossyInterval()

	require.True(t, c.ltUseBw, "expected two consistent lossy intervals to latch the long-term bandwidth estimate")
	require.Equal(t, uint32(gainUnit), c.pacingGain)
}

// Scenario 5: PROBE_RTT. After the min-RTT window expires, the next valid
// ACK should enter PROBE_RTT and cap cwnd at CwndMinTarget; once the probe
// duration has elapsed with in-flight at or below that floor, the model
// should exit back out via resetMode and restore the prior cwnd.
func TestScenarioProbeRTT(t *testing.T) {
	host := newFakeHost()
	host.srttUs = 10_000
	c := NewController(deterministicConfig(), nil)
	c.Init(host)
	c.priorCwnd = 40
	host.cwnd = 40

	// Advance the clock past the min-RTT window without a better RTT
	// sample, forcing filter expiry.
	host.nowUs += c.cfg.MinRTTWindow.Microseconds() + 1
	host.advance(0, 10)
	host.inFlight = 4
	rs := RateSample{
		Delivered:      10,
		IntervalUs:     10_000,
		RTTUs:          15_000,
		AckedSacked:    10,
		PriorDelivered: host.delivered - 10,
		PriorInFlight:  host.inFlight,
	}
	c.CongControl(host, rs)
	require.Equal(t, ProbeRTT, c.Mode())
	require.LessOrEqual(t, host.SndCwnd(), uint32(4))

	// One more round, with in-flight already at the floor, arms the
	// probe-done timer; advancing past ProbeRTTDuration then completes it.
	host.advance(1_000, 4)
	host.inFlight = 4
	rs = RateSample{Delivered: 4, IntervalUs: 1_000, RTTUs: 15_000, AckedSacked: 4, PriorDelivered: host.delivered - 4, PriorInFlight: 4}
	c.CongControl(host, rs)

	host.advance(c.cfg.ProbeRTTDuration.Microseconds()+1_000, 4)
	host.inFlight = 4
	rs = RateSample{Delivered: 4, IntervalUs: 1_000, RTTUs: 15_000, AckedSacked: 4, PriorDelivered: host.delivered - 4, PriorInFlight: 4}
	c.CongControl(host, rs)

	require.NotEqual(t, ProbeRTT, c.Mode(), "expected PROBE_RTT to exit once the probe duration elapsed with a completed round")
}

// Scenario 6: idle restart. TX_START while application-limited during
// PROBE_BW should mark idle_restart, reset the ACK-aggregation epoch, and
// pace at unity gain rather than the in-progress probe gain.
func TestScenarioIdleRestart(t *testing.T) {
	host := newFakeHost()
	host.srttUs = 10_000
	c := NewController(deterministicConfig(), nil)
	c.Init(host)
	c.fullBwCnt = c.cfg.FullBwRounds
	c.resetProbeBWMode(host)
	c.pacingGain = pacingGainCycle[bwProbeUp]
	host.appLimited = 1

	c.CwndEvent(host, EventTXStart)

	require.True(t, c.idleRestart)
	require.Equal(t, uint32(0), c.ackEpochAcked)
}

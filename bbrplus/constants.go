package bbrplus

import "time"

// Scale factors. Bandwidth is tracked in packets/microsecond shifted left by
// bwScale to avoid truncation at low rates; gains are fixed-point fractions
// shifted left by gainScale.
const (
	bwScale = 24
	bwUnit  = 1 << bwScale

	gainScale = 8
	gainUnit  = 1 << gainScale
)

// cycleLen is the number of phases in a PROBE_BW pacing-gain cycle.
const cycleLen = 8

// pacingGainCycle is the classic 8-phase gain table: probe up, drain down,
// then cruise at unity for the rest of the cycle.
var pacingGainCycle = [cycleLen]uint32{
	gainUnit * 5 / 4,
	gainUnit * 3 / 4,
	gainUnit, gainUnit, gainUnit,
	gainUnit, gainUnit, gainUnit,
}

const (
	bwProbeUp     = 0
	bwProbeDown   = 1
	bwProbeCruise = 2
)

// Config collects every tunable of the model. LoadConfig starts from
// DefaultConfig and decodes a TOML file over it, so a file only needs to
// set the fields it overrides.
type Config struct {
	// HighGain is applied to both pacing and cwnd during STARTUP: 2/ln(2),
	// the smallest gain that lets a flow double its rate every RTT.
	HighGain uint32 `toml:"high_gain"`
	// DrainGain is 1/HighGain, used to drain the queue STARTUP built in one
	// round trip.
	DrainGain uint32 `toml:"drain_gain"`
	// CwndGain is the steady-state multiplier applied to the BDP to absorb
	// delayed and stretched ACKs.
	CwndGain uint32 `toml:"cwnd_gain"`

	// BwWindowRTTs is the window, in packet-timed rounds, of the bandwidth
	// max filter.
	BwWindowRTTs uint32 `toml:"bw_window_rtts"`
	// MinRTTWindow is the wall-clock window over which the min-RTT estimate
	// is tracked before it is allowed to decay upward.
	MinRTTWindow time.Duration `toml:"min_rtt_window"`
	// ProbeRTTDuration is how long PROBE_RTT holds cwnd at CwndMinTarget
	// once in-flight has actually reached that floor.
	ProbeRTTDuration time.Duration `toml:"probe_rtt_duration"`

	// FullBwThresh is the bandwidth growth ratio (scaled by gainScale) that
	// counts as "still finding more bandwidth" during STARTUP.
	FullBwThresh uint32 `toml:"full_bw_thresh"`
	// FullBwRounds is how many consecutive rounds without FullBwThresh
	// growth it takes to declare the pipe full.
	FullBwRounds uint32 `toml:"full_bw_rounds"`

	// LTIntervalMinRTTs / LTIntervalMaxRTTs bound how long a long-term
	// sampling interval may run before it is abandoned as inconclusive.
	LTIntervalMinRTTs uint32 `toml:"lt_interval_min_rtts"`
	LTIntervalMaxRTTs uint32 `toml:"lt_interval_max_rtts"`
	// LTLossThresh is the loss ratio (scaled by gainScale) above which an
	// interval counts as "lossy" for policer detection.
	LTLossThresh uint32 `toml:"lt_loss_thresh"`
	// LTBwRatioThresh / LTBwDiffThresh are the two ways two consecutive
	// lossy intervals can be judged "consistent" enough to latch lt_bw.
	LTBwRatioThresh uint32 `toml:"lt_bw_ratio_thresh"`
	LTBwDiffThresh  uint64 `toml:"lt_bw_diff_thresh_bytes_per_sec"`
	// LTBwMaxRTTs is how many rounds a latched lt_bw is trusted before the
	// model re-probes from scratch.
	LTBwMaxRTTs uint32 `toml:"lt_bw_max_rtts"`

	// ExtraAckedGain scales the ACK-aggregation compensation added to the
	// cwnd target; 0 disables the compensation entirely.
	ExtraAckedGain uint32 `toml:"extra_acked_gain"`
	// ExtraAckedWindowRTTs is the window, in rounds, over which the maximum
	// excess-ACKed estimate is kept.
	ExtraAckedWindowRTTs uint32 `toml:"extra_acked_window_rtts"`
	// ExtraAckedMax bounds the aggregation compensation added to cwnd to
	// this duration's worth of the current bandwidth estimate.
	ExtraAckedMax time.Duration `toml:"extra_acked_max"`

	// CycleRandMax is the exclusive upper bound used when randomizing a new
	// PROBE_BW cycle's starting phase and length.
	CycleRandMax uint32 `toml:"cycle_rand_max"`
	// CwndMinTarget is the floor cwnd is never allowed to drop below
	// (expressed in packets), and the cap applied during PROBE_RTT.
	CwndMinTarget uint32 `toml:"cwnd_min_target"`

	// DrainToTarget selects the drain-to-target PROBE_BW cycling policy
	// over the classic fixed-length phase table.
	DrainToTarget bool `toml:"drain_to_target"`

	// MinTSORate is the pacing rate, in bits/sec, below which TSO bursts
	// are kept at a single segment.
	MinTSORate uint64 `toml:"min_tso_rate_bits_per_sec"`
	// InitCwnd is the safety-floor congestion window used before any RTT
	// sample has been observed.
	InitCwnd uint32 `toml:"init_cwnd"`

	// Rand returns a uniform value in [0, n). Overridable so tests can pin
	// the PROBE_BW cycle start and length to a deterministic value.
	Rand func(n uint32) uint32 `toml:"-"`
}

// DefaultConfig returns the tuning constants as specified by the model,
// equivalent to the compile-time constants of the originating implementation.
func DefaultConfig() Config {
	return Config{
		HighGain:  gainUnit*2885/1000 + 1,
		DrainGain: gainUnit * 1000 / 2885,
		CwndGain:  gainUnit * 2,

		BwWindowRTTs:     cycleLen + 2,
		MinRTTWindow:     10 * time.Second,
		ProbeRTTDuration: 200 * time.Millisecond,

		FullBwThresh: gainUnit * 5 / 4,
		FullBwRounds: 3,

		LTIntervalMinRTTs: 4,
		LTIntervalMaxRTTs: 4 * 4,
		LTLossThresh:      50,
		LTBwRatioThresh:   gainUnit / 8,
		LTBwDiffThresh:    4000 / 8,
		LTBwMaxRTTs:       48,

		ExtraAckedGain:       gainUnit,
		ExtraAckedWindowRTTs: 10,
		ExtraAckedMax:        100 * time.Millisecond,

		CycleRandMax:  7,
		CwndMinTarget: 4,

		DrainToTarget: true,

		MinTSORate: 1_200_000,
		InitCwnd:   10,

		Rand: defaultRand,
	}
}

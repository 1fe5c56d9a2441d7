package bbrplus

import "time"

// rttInfinite is the min-RTT sentinel meaning "no valid RTT sample has been
// observed yet".
const rttInfinite = ^uint32(0)

// Controller is the per-connection BBR+ state object. It is a pure function
// of (previous state, new RateSample) -> (new state, pacing rate, cwnd,
// TSO segments goal); all reads and writes of host-owned fields go through
// the Host passed to CongControl and the lifecycle hooks. A Controller must
// never be shared between connections.
type Controller struct {
	cfg Config
	log Logger

	minRTTUs          uint32
	minRTTStampUs     int64
	probeRTTDoneUs    int64
	hasProbeRTTDoneUs bool

	bw *windowedFilter[uint64, uint32]

	rttCnt           uint32
	nextRTTDelivered uint32
	roundStart       bool

	cycleMstampUs int64

	mode               Mode
	prevCAState        CAState
	packetConservation bool
	restoreCwnd        bool
	cycleLen           uint32
	tsoSegsGoal        uint32
	idleRestart        bool
	probeRTTRoundDone  bool

	ltIsSampling    bool
	ltRTTCnt        uint32
	ltUseBw         bool
	ltBw            uint64
	ltLastDelivered uint32
	ltLastStampMs   int64
	ltLastLost      uint32

	pacingGain uint32
	cwndGain   uint32
	fullBwCnt  uint32
	cycleIdx   uint32
	hasSeenRTT bool

	priorCwnd uint32
	fullBw    uint64

	ackEpochMstampUs int64
	ackEpochAcked    uint32
	extraAcked       [2]uint32
	extraAckedWinIdx uint32
	extraAckedWinRTT uint32
}

// NewController builds a Controller with the given tuning configuration and
// optional diagnostic Logger (pass nil for silence).
func NewController(cfg Config, log Logger) *Controller {
	if cfg.Rand == nil {
		cfg.Rand = defaultRand
	}
	if log == nil {
		log = noopLogger{}
	}
	return &Controller{cfg: cfg, log: log}
}

// Init resets the Controller for a freshly-established connection, per the
// init lifecycle hook.
func (c *Controller) Init(host Host) {
	c.priorCwnd = 0
	c.tsoSegsGoal = 0
	c.rttCnt = 0
	c.nextRTTDelivered = 0
	c.prevCAState = CAOpen
	c.packetConservation = false

	c.hasProbeRTTDoneUs = false
	c.probeRTTRoundDone = false
	if srtt := host.SRTTUs(); srtt != 0 {
		c.minRTTUs = srtt
	} else {
		c.minRTTUs = rttInfinite
	}
	c.minRTTStampUs = host.TCPMstampUs()

	c.bw = newMaxFilter[uint64, uint32](c.cfg.BwWindowRTTs)
	c.bw.Reset(0, c.rttCnt)

	c.hasSeenRTT = false
	c.initPacingRateFromRTT(host)

	c.restoreCwnd = false
	c.roundStart = false
	c.idleRestart = false
	c.fullBw = 0
	c.fullBwCnt = 0
	c.cycleMstampUs = 0
	c.cycleIdx = 0
	c.cycleLen = 0
	c.resetLTBwSampling(host)
	c.resetStartupMode()

	c.ackEpochMstampUs = host.TCPMstampUs()
	c.ackEpochAcked = 0
	c.extraAckedWinRTT = 0
	c.extraAckedWinIdx = 0
	c.extraAcked[0] = 0
	c.extraAcked[1] = 0

	host.CASPacingStatus(PacingNone, PacingNeeded)
}

// CongControl is the core's main entry point, invoked once per ACK event
// with the rate sample describing that ACK.
func (c *Controller) CongControl(host Host, rs RateSample) {
	c.updateModel(host, rs)

	bw := c.bandwidth()
	c.setPacingRate(host, bw, c.pacingGain)
	c.setTSOSegsGoal(host)
	c.setCwnd(host, rs, rs.AckedSacked, bw, c.cwndGain)
}

func (c *Controller) updateModel(host Host, rs RateSample) {
	c.updateBandwidth(host, rs)
	c.updateAckAggregation(host, rs)
	c.updateCyclePhase(host, rs)
	c.checkFullBwReached(rs)
	c.checkDrain(host)
	c.updateMinRTT(host, rs)
}

// fullBwReached reports whether STARTUP is judged to have filled the pipe.
func (c *Controller) fullBwReached() bool {
	return c.fullBwCnt >= c.cfg.FullBwRounds
}

// maxBw returns the windowed-max bandwidth sample, in packets/us << bwScale.
func (c *Controller) maxBw() uint64 {
	return c.bw.Best()
}

// bandwidth returns the estimate actually used to drive pacing and cwnd:
// the long-term policed rate when latched, otherwise the windowed max.
func (c *Controller) bandwidth() uint64 {
	if c.ltUseBw {
		return c.ltBw
	}
	return c.maxBw()
}

// Mode reports the controller's current state, for diagnostics.
func (c *Controller) Mode() Mode { return c.mode }

// GetInfo returns the diagnostic record, mirroring get_info's BBR/VEGAS
// extension payload.
func (c *Controller) GetInfo(host Host) Diagnostic {
	bw := c.bandwidth()
	bytesPerSec := bw * uint64(host.MSSCache()) * uint64(time.Second/time.Microsecond) >> bwScale
	return Diagnostic{
		BwLo:        uint32(bytesPerSec),
		BwHi:        uint32(bytesPerSec >> 32),
		MinRTTUs:    c.minRTTUs,
		PacingGain:  c.pacingGain,
		CwndGain:    c.cwndGain,
		Mode:        c.mode,
		Cwnd:        host.SndCwnd(),
		TSOSegGoal:  c.tsoSegsGoal,
		FullBwFound: c.fullBwReached(),
	}
}

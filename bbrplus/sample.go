package bbrplus

// RateSample summarizes one ACK's worth of delivery-rate information. It is
// produced upstream (outside this package) by a delivery-rate estimator
// that follows the RFC-aligned method of Cardwell et al.: IntervalUs must
// exceed the maximum of the send and ACK intervals, and PriorDelivered is
// the Delivered counter at the time the first newly-acked packet was sent.
type RateSample struct {
	// Delivered is the number of packets newly delivered over this sample,
	// or negative if the sample carries no useful delivery information.
	Delivered int64
	// IntervalUs is the duration, in microseconds, over which Delivered was
	// observed. Must be positive for the sample to be used.
	IntervalUs int64
	// RTTUs is the latest RTT observation, or negative when unavailable.
	RTTUs int64
	// Losses is the packet loss count attributed to this sample.
	Losses uint32
	// AckedSacked is the number of packets (s)acked by this sample.
	AckedSacked int64
	// PriorInFlight is the number of packets in flight immediately before
	// this ACK was processed.
	PriorInFlight uint32
	// PriorDelivered is the host's Delivered counter at the time the first
	// newly-acked packet in this sample was sent.
	PriorDelivered uint32
	// IsAppLimited reports whether the flow was application-limited when
	// this sample was generated.
	IsAppLimited bool
}

// Mode is one of the four congestion-control states.
type Mode int

const (
	Startup Mode = iota
	Drain
	ProbeBW
	ProbeRTT
)

func (m Mode) String() string {
	switch m {
	case Startup:
		return "startup"
	case Drain:
		return "drain"
	case ProbeBW:
		return "probe_bw"
	case ProbeRTT:
		return "probe_rtt"
	default:
		return "unknown"
	}
}

// Diagnostic is the binary-compatible-in-spirit counterpart of the host's
// BBR info record: bandwidth split into low/high 32-bit halves the way the
// wire record does, plus the current gains and min-RTT.
type Diagnostic struct {
	BwLo        uint32
	BwHi        uint32
	MinRTTUs    uint32
	PacingGain  uint32
	CwndGain    uint32
	Mode        Mode
	Cwnd        uint32
	TSOSegGoal  uint32
	FullBwFound bool
}

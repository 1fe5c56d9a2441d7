package bbrplus

// CAState mirrors the host's loss-recovery state machine (TCP_CA_* in the
// originating stack). The core only distinguishes Recovery from everything
// else, but the full set is exposed so a Host can report it verbatim.
type CAState int

const (
	CAOpen CAState = iota
	CADisorder
	CACWR
	CARecovery
	CALoss
)

func (s CAState) String() string {
	switch s {
	case CAOpen:
		return "open"
	case CADisorder:
		return "disorder"
	case CACWR:
		return "cwr"
	case CARecovery:
		return "recovery"
	case CALoss:
		return "loss"
	default:
		return "unknown"
	}
}

// PacingStatus mirrors sk_pacing_status: whether the host still needs to be
// told to switch its socket into paced mode.
type PacingStatus int32

const (
	PacingNone PacingStatus = iota
	PacingNeeded
	PacingFQ
)

// Host is the narrow capability set the core reads and writes on a
// connection. It stands in for the fields the originating stack reaches via
// direct pointers into tp and sk: a typed accessor lets the owning stack
// dispatch into this congestion-control plugin without the core knowing
// anything about sockets, skbs, or qdiscs.
type Host interface {
	// TCPMstampUs is the current monotonic timestamp of the connection, in
	// microseconds (tcp_mstamp).
	TCPMstampUs() int64
	// Delivered is the cumulative count of packets delivered so far.
	Delivered() uint32
	// DeliveredMstampUs is the timestamp at which Delivered was last bumped.
	DeliveredMstampUs() int64
	// Lost is the cumulative count of packets judged lost so far.
	Lost() uint32
	// MSSCache is the current effective MSS.
	MSSCache() uint32
	// SRTTUs is the smoothed RTT estimate, 0 if none has been observed yet.
	SRTTUs() uint32

	SndCwnd() uint32
	SetSndCwnd(uint32)
	SndCwndClamp() uint32

	// AppLimited reports the packet count at which the flow became
	// application-limited, or 0 if it is not currently app-limited.
	AppLimited() uint32
	SetAppLimited(uint32)

	PacketsInFlight() uint32

	// HasSendableData reports whether the host currently has more data
	// ready to send within the send/receive window — false means the flow
	// is itself the limiting factor, not the network.
	HasSendableData() bool

	PacingRate() uint64
	SetPacingRate(bytesPerSec uint64)
	MaxPacingRate() uint64
	// CASPacingStatus atomically sets the pacing status to want iff it is
	// currently have, returning whether the swap took effect.
	CASPacingStatus(have, want PacingStatus) bool

	// TSOAutosize asks the host to size a TSO burst for the given MSS,
	// clamped to at least minSegs.
	TSOAutosize(mss, minSegs uint32) uint32

	CAState() CAState
}

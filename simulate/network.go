package simulate

import (
	"sort"

	"github.com/xtls/bbrplus/bbrplus"
)

// Link models a single bottleneck: a FIFO queue served at CapacityBps bytes
// per second, with RTT contributed by the two-way PropagationUs delay and
// packets dropped once QueueBytes of queued-but-unserved data have
// accumulated ahead of them. This is the dumbbell-topology simplification
// used throughout the congestion-control literature to exercise a model
// without a full network stack.
type Link struct {
	CapacityBps   uint64
	PropagationUs int64
	QueueBytes    uint32
}

type pendingAck struct {
	packetNumber uint64
	ackAtUs      int64
}

// Network drives a single flow's Controller against a simulated Link. It
// implements bbrplus.Host directly, standing in for the real TCP/QUIC
// control block the core would otherwise read and write through.
type Network struct {
	Controller *bbrplus.Controller
	Sampler    *Sampler
	Pacer      *Pacer
	Link       Link

	nowUs            int64
	nextPacketNumber uint64
	queueFreeAtUs    int64
	pending          []pendingAck

	delivered     uint32
	deliveredAtUs int64
	lost          uint32
	mss           uint32
	srttUs        uint32
	cwnd          uint32
	cwndClamp     uint32
	appLimited    uint32
	inFlight      uint32
	pacingRate    uint64
	maxPacingRate uint64
	pacingStatus  bbrplus.PacingStatus
	tsoAutosize   uint32
	caState       bbrplus.CAState
	hasBacklog    bool
}

// NewNetwork builds a Network for the given link, seeded with a conventional
// initial congestion window.
func NewNetwork(link Link, mss uint32, cfg bbrplus.Config, log bbrplus.Logger) *Network {
	n := &Network{
		Controller:    bbrplus.NewController(cfg, log),
		Sampler:       NewSampler(),
		Link:          link,
		mss:           mss,
		cwnd:          cfg.InitCwnd,
		cwndClamp:     1 << 20,
		maxPacingRate: 1 << 62,
		tsoAutosize:   64,
		hasBacklog:    true,
	}
	n.Pacer = NewPacer(mss, func() uint64 { return n.pacingRate })
	n.Controller.Init(n)
	return n
}

// SetBacklog toggles whether the sender has data queued to send; clearing it
// simulates the application going idle (draining to app-limited).
func (n *Network) SetBacklog(has bool) {
	if n.hasBacklog && !has {
		n.Sampler.OnAppLimited()
	}
	n.hasBacklog = has
}

// Advance runs the simulation for durationUs of wall-clock time, sending
// packets as the pacer and cwnd allow and feeding every resulting ack back
// through the sampler and Controller, in send order.
func (n *Network) Advance(durationUs int64) {
	deadline := n.nowUs + durationUs
	for n.nowUs < deadline {
		n.trySend()
		if len(n.pending) == 0 {
			n.nowUs = deadline
			break
		}
		sort.Slice(n.pending, func(i, j int) bool { return n.pending[i].ackAtUs < n.pending[j].ackAtUs })
		next := n.pending[0].ackAtUs
		if next > deadline {
			n.nowUs = deadline
			break
		}
		n.nowUs = next
		n.deliverDueAcks()
	}
}

func (n *Network) trySend() {
	for n.hasBacklog && n.inFlight < n.cwnd*n.mss {
		if n.Pacer.Budget(n.nowUs) < int64(n.mss) {
			return
		}
		n.sendOne()
	}
}

func (n *Network) sendOne() {
	pn := n.nextPacketNumber
	n.nextPacketNumber++
	size := n.mss

	n.Sampler.OnPacketSent(pn, n.nowUs, n.inFlight/n.mss)
	n.inFlight += size
	n.Pacer.SentPacket(n.nowUs, size)

	queueWaitUs := int64(0)
	if n.queueFreeAtUs > n.nowUs {
		queueWaitUs = n.queueFreeAtUs - n.nowUs
	}
	queuedBytesAhead := uint64(queueWaitUs) * n.Link.CapacityBps / 1_000_000
	if n.Link.QueueBytes > 0 && queuedBytesAhead > uint64(n.Link.QueueBytes) {
		n.Sampler.OnPacketLost(pn)
		n.lost = n.Sampler.TotalLost()
		n.inFlight -= size
		return
	}

	serviceUs := int64(uint64(size) * 1_000_000 / n.Link.CapacityBps)
	departureUs := n.nowUs + queueWaitUs + serviceUs
	n.queueFreeAtUs = departureUs
	ackAtUs := departureUs + 2*n.Link.PropagationUs

	n.pending = append(n.pending, pendingAck{packetNumber: pn, ackAtUs: ackAtUs})
}

func (n *Network) deliverDueAcks() {
	var remaining []pendingAck
	for _, p := range n.pending {
		if p.ackAtUs > n.nowUs {
			remaining = append(remaining, p)
			continue
		}
		n.applyAck(p)
	}
	n.pending = remaining
}

func (n *Network) applyAck(p pendingAck) {
	rs, ok := n.Sampler.OnPacketAcked(p.packetNumber, n.nowUs, 0)
	if !ok {
		return
	}
	n.delivered = n.Sampler.TotalDelivered()
	n.deliveredAtUs = n.nowUs
	n.lost = n.Sampler.TotalLost()
	rs.PriorInFlight = n.inFlight / n.mss
	if n.inFlight >= n.mss {
		n.inFlight -= n.mss
	} else {
		n.inFlight = 0
	}
	if n.srttUs == 0 {
		n.srttUs = uint32(rs.RTTUs)
	} else {
		n.srttUs = uint32((int64(n.srttUs)*7 + rs.RTTUs) / 8)
	}
	n.Controller.CongControl(n, rs)
}

// Diagnostic returns the current diagnostic snapshot, satisfying
// metrics.Source.
func (n *Network) Diagnostic() bbrplus.Diagnostic {
	return n.Controller.GetInfo(n)
}

// --- bbrplus.Host ---

func (n *Network) TCPMstampUs() int64       { return n.nowUs }
func (n *Network) Delivered() uint32        { return n.delivered }
func (n *Network) DeliveredMstampUs() int64 { return n.deliveredAtUs }
func (n *Network) Lost() uint32             { return n.lost }
func (n *Network) MSSCache() uint32         { return n.mss }
func (n *Network) SRTTUs() uint32           { return n.srttUs }
func (n *Network) SndCwnd() uint32          { return n.cwnd }
func (n *Network) SetSndCwnd(v uint32)      { n.cwnd = v }
func (n *Network) SndCwndClamp() uint32     { return n.cwndClamp }
func (n *Network) AppLimited() uint32       { return n.appLimited }
func (n *Network) SetAppLimited(v uint32)   { n.appLimited = v }
func (n *Network) PacketsInFlight() uint32  { return n.inFlight / n.mss }
func (n *Network) HasSendableData() bool    { return n.hasBacklog }
func (n *Network) PacingRate() uint64       { return n.pacingRate }
func (n *Network) SetPacingRate(v uint64)   { n.pacingRate = v }
func (n *Network) MaxPacingRate() uint64    { return n.maxPacingRate }
func (n *Network) TSOAutosize(mss, minSegs uint32) uint32 {
	if n.tsoAutosize < minSegs {
		return minSegs
	}
	return n.tsoAutosize
}
func (n *Network) CAState() bbrplus.CAState { return n.caState }
func (n *Network) CASPacingStatus(have, want bbrplus.PacingStatus) bool {
	if n.pacingStatus != have {
		return false
	}
	n.pacingStatus = want
	return true
}

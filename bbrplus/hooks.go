package bbrplus

// Event enumerates the connection lifecycle events the host notifies the
// core about outside of the regular ACK path.
type Event int

const (
	// EventTXStart marks the connection resuming transmission after an
	// idle period.
	EventTXStart Event = iota
)

// CwndEvent handles the cwnd_event lifecycle hook. On resuming from idle
// while application-limited, it marks the restart so PROBE_RTT and the
// ACK-aggregation epoch don't misread the resulting silence as a real
// network signal, and — if currently mid PROBE_BW cycle — publishes a
// unity-gain pacing rate in place of the probe gain's rate, to avoid
// overshooting into a needless queue. The next ACK publishes the rate at
// the current pacing gain again.
func (c *Controller) CwndEvent(host Host, event Event) {
	if event != EventTXStart || host.AppLimited() == 0 {
		return
	}
	c.idleRestart = true
	c.ackEpochMstampUs = host.TCPMstampUs()
	c.ackEpochAcked = 0

	if c.mode == ProbeBW {
		c.setPacingRate(host, c.bandwidth(), gainUnit)
	}
}

// SetState handles the set_state lifecycle hook. Entering loss recovery
// (RTO) is treated like the end of a round for long-term sampling purposes,
// and clears the full-bandwidth baseline so STARTUP's growth detector
// re-evaluates from the post-loss rate.
func (c *Controller) SetState(host Host, state CAState) {
	if state != CALoss {
		return
	}
	c.prevCAState = CALoss
	c.fullBw = 0
	c.roundStart = true
	c.ltBwSampling(host, RateSample{Losses: 1})
}

// Ssthresh handles the ssthresh hook: BBR+ does not use ssthresh to drive
// cwnd, so this only saves the cwnd for recovery and reports "infinite".
func (c *Controller) Ssthresh(host Host) uint32 {
	c.saveCwnd(host)
	return ^uint32(0)
}

// UndoCwnd handles the undo_cwnd hook. BBR+ never blindly halves cwnd on
// loss the way loss-based algorithms do, so there is nothing to undo; it
// simply reports the current cwnd.
func (c *Controller) UndoCwnd(host Host) uint32 {
	return host.SndCwnd()
}

// SndbufExpand handles the sndbuf_expand hook: provision 3x cwnd of send
// buffer, since BBR+ may keep slow-starting even while in loss recovery.
func (c *Controller) SndbufExpand() uint32 {
	return 3
}

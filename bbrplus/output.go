package bbrplus

import "time"

// bdp computes the bandwidth-delay product at the given gain: the number of
// packets that must be in flight to keep the path's pipe full. With no RTT
// sample yet it falls back to the configured safety-floor cwnd.
func (c *Controller) bdp(bw uint64, gain uint32) uint32 {
	if c.minRTTUs == rttInfinite {
		return c.cfg.InitCwnd
	}
	w := bw * uint64(c.minRTTUs)
	return uint32((w*uint64(gain)>>gainScale + bwUnit - 1) / bwUnit)
}

// quantizationBudget pads a cwnd target with enough room for full-sized
// bursts in flight at both ends of the path: one in the sender's qdisc, one
// in its TSO/GSO engine, one in the receiver's LRO/GRO/delayed-ACK engine.
func (c *Controller) quantizationBudget(cwnd uint32) uint32 {
	return cwnd + 3*c.tsoSegsGoal
}

// inflight is the quantized BDP at the given gain: the in-flight target
// used both for cycling decisions and for cwnd sizing.
func (c *Controller) inflight(bw uint64, gain uint32) uint32 {
	return c.quantizationBudget(c.bdp(bw, gain))
}

// ackAggregationCwnd is the extra cwnd headroom granted to absorb bursty
// ACK arrivals, clamped to at most ExtraAckedMax worth of bandwidth. It is
// only applied once the pipe is judged full, matching the open-question
// resolution that ExtraAckedGain == 0 disables the compensation outright.
func (c *Controller) ackAggregationCwnd() uint32 {
	if c.cfg.ExtraAckedGain == 0 || !c.fullBwReached() {
		return 0
	}
	maxAggrCwnd := c.bandwidth() * uint64(c.cfg.ExtraAckedMax.Microseconds()) / bwUnit
	aggrCwnd := uint64(c.cfg.ExtraAckedGain) * uint64(max32(c.extraAcked[0], c.extraAcked[1])) >> gainScale
	if aggrCwnd > maxAggrCwnd {
		aggrCwnd = maxAggrCwnd
	}
	return uint32(aggrCwnd)
}

// setCwndToRecoverOrRestore applies the loss-recovery and PROBE_RTT-restore
// policy that runs before the ordinary slow-start-toward-target step: on
// entering Recovery it switches to packet conservation (send P for P
// acked); on exit it restores the cwnd saved before recovery started.
func (c *Controller) setCwndToRecoverOrRestore(host Host, rs RateSample, acked int64) (cwnd uint32, conserving bool) {
	prevState := c.prevCAState
	state := host.CAState()
	cwnd = host.SndCwnd()

	if rs.Losses > 0 {
		if cwnd > rs.Losses {
			cwnd -= rs.Losses
		} else {
			cwnd = 1
		}
	}

	if state == CARecovery && prevState != CARecovery {
		c.packetConservation = true
		c.nextRTTDelivered = host.Delivered()
		cwnd = host.PacketsInFlight() + uint32(acked)
	} else if prevState >= CARecovery && state < CARecovery {
		c.restoreCwnd = true
		c.packetConservation = false
	}
	c.prevCAState = state

	if c.restoreCwnd {
		cwnd = max32(cwnd, c.priorCwnd)
		c.restoreCwnd = false
	}

	if c.packetConservation {
		return max32(cwnd, host.PacketsInFlight()+uint32(acked)), true
	}
	return cwnd, false
}

// setCwnd implements the cwnd update policy: recovery/restore first, then
// slow-start the cwnd toward its target (BDP plus aggregation headroom) if
// below target or still ramping STARTUP, snapping down to target once the
// pipe is full.
func (c *Controller) setCwnd(host Host, rs RateSample, acked int64, bw uint64, gain uint32) {
	if acked == 0 {
		return
	}

	cwnd, conserving := c.setCwndToRecoverOrRestore(host, rs, acked)
	if !conserving {
		target := c.bdp(bw, gain)
		target += c.ackAggregationCwnd()
		target = c.quantizationBudget(target)

		if c.fullBwReached() {
			cwnd = min32(cwnd+uint32(acked), target)
		} else if cwnd < target || host.Delivered() < c.cfg.InitCwnd {
			cwnd += uint32(acked)
		}
		cwnd = max32(cwnd, c.cfg.CwndMinTarget)
	}

	cwnd = min32(cwnd, host.SndCwndClamp())
	if c.mode == ProbeRTT {
		cwnd = min32(cwnd, c.cfg.CwndMinTarget)
	}
	host.SetSndCwnd(cwnd)
}

// rateBytesPerSec converts a scaled bandwidth into bytes/sec at the given
// gain. The multiply-before-shift ordering is deliberate: shifting by
// gainScale before multiplying by microseconds-per-second, then by bwScale
// afterward, is what keeps the u64 intermediate from overflowing at
// multi-terabit rates. Reordering these operations is an open question the
// model resolves by preserving the original sequence exactly.
func (c *Controller) rateBytesPerSec(host Host, bw uint64, gain uint32) uint64 {
	rate := bw
	rate *= uint64(host.MSSCache())
	rate *= uint64(gain)
	rate >>= gainScale
	rate *= uint64(time.Second / time.Microsecond)
	return rate >> bwScale
}

func (c *Controller) bwToPacingRate(host Host, bw uint64, gain uint32) uint64 {
	rate := c.rateBytesPerSec(host, bw, gain)
	if max := host.MaxPacingRate(); rate > max {
		rate = max
	}
	return rate
}

// initPacingRateFromRTT seeds the pacing rate at HighGain * init_cwnd / rtt,
// using a nominal 1ms RTT until the first real sample arrives.
func (c *Controller) initPacingRateFromRTT(host Host) {
	var rttUs uint32
	if srtt := host.SRTTUs(); srtt != 0 {
		rttUs = srtt
		if rttUs == 0 {
			rttUs = 1
		}
		c.hasSeenRTT = true
	} else {
		rttUs = 1000
	}
	bw := uint64(host.SndCwnd()) * bwUnit / uint64(rttUs)
	host.SetPacingRate(c.bwToPacingRate(host, bw, c.cfg.HighGain))
}

// setPacingRate publishes a new pacing rate. Until the pipe is judged full
// it only ever raises the rate (max(current, new)), to avoid a transient
// drop while STARTUP is still ramping; once full it publishes unconditionally.
func (c *Controller) setPacingRate(host Host, bw uint64, gain uint32) {
	rate := c.bwToPacingRate(host, bw, gain)
	if !c.hasSeenRTT && host.SRTTUs() != 0 {
		c.initPacingRateFromRTT(host)
	}
	if c.fullBwReached() || rate > host.PacingRate() {
		host.SetPacingRate(rate)
	}
}

// setTSOSegsGoal sizes TSO bursts from the host's autosizing result, asking
// for at least one segment below MinTSORate and at least two otherwise, and
// caps the goal at 127 segments.
func (c *Controller) setTSOSegsGoal(host Host) {
	minSegs := uint32(2)
	if host.PacingRate() < c.cfg.MinTSORate>>3 {
		minSegs = 1
	}
	c.tsoSegsGoal = min32(host.TSOAutosize(host.MSSCache(), minSegs), 0x7F)
}

// saveCwnd snapshots the "last known good" cwnd before entering loss
// recovery or PROBE_RTT, so it can be restored afterward.
func (c *Controller) saveCwnd(host Host) {
	if c.prevCAState < CARecovery && c.mode != ProbeRTT {
		c.priorCwnd = host.SndCwnd()
	} else {
		c.priorCwnd = max32(c.priorCwnd, host.SndCwnd())
	}
}

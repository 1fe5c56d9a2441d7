package bbrplus

// updateBandwidth detects packet-timed round boundaries, drives long-term
// policer sampling, and folds a fresh delivery-rate sample into the max
// filter.
func (c *Controller) updateBandwidth(host Host, rs RateSample) {
	c.roundStart = false
	if rs.Delivered < 0 || rs.IntervalUs <= 0 {
		return
	}

	if rs.PriorDelivered >= c.nextRTTDelivered {
		c.nextRTTDelivered = host.Delivered()
		c.rttCnt++
		c.roundStart = true
		c.packetConservation = false
	}

	c.ltBwSampling(host, rs)

	bw := uint64(rs.Delivered) * bwUnit / uint64(rs.IntervalUs)

	// App-limited samples under-represent path capacity: fold them in only
	// when they do not drag the estimate down.
	if !rs.IsAppLimited || bw >= c.maxBw() {
		c.bw.Update(bw, c.rttCnt)
	}
}

// checkFullBwReached implements STARTUP exit detection: after
// FullBwRounds consecutive non-app-limited rounds without FullBwThresh
// growth, the pipe is judged full.
func (c *Controller) checkFullBwReached(rs RateSample) {
	if c.fullBwReached() || !c.roundStart || rs.IsAppLimited {
		return
	}

	bwThresh := c.fullBw * uint64(c.cfg.FullBwThresh) >> gainScale
	if c.maxBw() >= bwThresh {
		c.fullBw = c.maxBw()
		c.fullBwCnt = 0
		return
	}
	c.fullBwCnt++
}

// checkDrain moves STARTUP into DRAIN once the pipe is judged full, and
// DRAIN into PROBE_BW once in-flight has fallen back to the unity-gain BDP.
func (c *Controller) checkDrain(host Host) {
	if c.mode == Startup && c.fullBwReached() {
		c.mode = Drain
		c.pacingGain = c.cfg.DrainGain
		c.cwndGain = c.cfg.HighGain
		c.log.Event("enter_drain", F("full_bw", c.fullBw))
	}
	if c.mode == Drain && host.PacketsInFlight() <= c.inflight(c.maxBw(), gainUnit) {
		c.resetProbeBWMode(host)
		c.log.Event("enter_probe_bw", F("cwnd", host.SndCwnd()))
	}
}

package bbrplus

// Long-term (LT) bandwidth estimation detects token-bucket traffic policers
// by looking for two consecutive sampling intervals that are both lossy and
// report a consistent delivery rate. Once detected, the model latches onto
// the policed rate for LTBwMaxRTTs rounds instead of continuing to probe a
// rate the policer will only punish with drops.

// resetLTBwSamplingInterval starts a new interval's bookkeeping without
// touching whether we are latched onto lt_bw.
func (c *Controller) resetLTBwSamplingInterval(host Host) {
	c.ltLastStampMs = host.DeliveredMstampUs() / 1000
	c.ltLastDelivered = host.Delivered()
	c.ltLastLost = host.Lost()
	c.ltRTTCnt = 0
}

// resetLTBwSampling fully clears LT state, including any latched estimate.
func (c *Controller) resetLTBwSampling(host Host) {
	c.ltBw = 0
	c.ltUseBw = false
	c.ltIsSampling = false
	c.resetLTBwSamplingInterval(host)
}

// ltBwIntervalDone compares a finished interval's rate against the previous
// one and, if consistent, latches lt_bw as their average.
func (c *Controller) ltBwIntervalDone(host Host, bw uint64) {
	if c.ltBw != 0 {
		var diff uint64
		if bw >= c.ltBw {
			diff = bw - c.ltBw
		} else {
			diff = c.ltBw - bw
		}
		ratioConsistent := diff*gainUnit <= uint64(c.cfg.LTBwRatioThresh)*c.ltBw
		absConsistent := c.rateBytesPerSec(host, diff, gainUnit) <= c.cfg.LTBwDiffThresh
		if ratioConsistent || absConsistent {
			c.ltBw = (bw + c.ltBw) >> 1
			c.ltUseBw = true
			c.pacingGain = gainUnit
			c.ltRTTCnt = 0
			c.log.Event("lt_bw_latch", F("lt_bw", c.ltBw))
			return
		}
	}
	c.ltBw = bw
	c.resetLTBwSamplingInterval(host)
}

// ltBwSampling is invoked on every ACK (and synthetically on a loss event)
// to advance the policer-detection state machine.
func (c *Controller) ltBwSampling(host Host, rs RateSample) {
	if c.ltUseBw {
		if c.mode == ProbeBW && c.roundStart {
			c.ltRTTCnt++
			if c.ltRTTCnt >= c.cfg.LTBwMaxRTTs {
				c.resetLTBwSampling(host)
				c.resetProbeBWMode(host)
			}
		}
		return
	}

	// Wait for the first loss before sampling, so the policer's tokens have
	// had a chance to exhaust and the steady-state rate is what gets
	// measured, not a burst.
	if !c.ltIsSampling {
		if rs.Losses == 0 {
			return
		}
		c.resetLTBwSamplingInterval(host)
		c.ltIsSampling = true
	}

	if rs.IsAppLimited {
		c.resetLTBwSampling(host)
		return
	}

	if c.roundStart {
		c.ltRTTCnt++
	}
	if c.ltRTTCnt < c.cfg.LTIntervalMinRTTs {
		return
	}
	if c.ltRTTCnt > c.cfg.LTIntervalMaxRTTs {
		c.resetLTBwSampling(host)
		return
	}

	// End the interval only on a loss, so the policer's bucket is known to
	// have been exhausted rather than merely observed mid-burst.
	if rs.Losses == 0 {
		return
	}

	lost := host.Lost() - c.ltLastLost
	delivered := host.Delivered() - c.ltLastDelivered
	if delivered == 0 || uint64(lost)<<gainScale < uint64(c.cfg.LTLossThresh)*uint64(delivered) {
		return
	}

	t := host.DeliveredMstampUs()/1000 - c.ltLastStampMs
	if t < 1 {
		return
	}
	if uint64(t) >= (^uint64(0))/1000 {
		c.resetLTBwSampling(host)
		return
	}
	tUs := t * 1000
	bw := uint64(delivered) * bwUnit / uint64(tUs)
	c.ltBwIntervalDone(host, bw)
}

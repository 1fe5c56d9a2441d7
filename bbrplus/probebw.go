package bbrplus

// setCycleIdx moves PROBE_BW to the given phase of the gain-cycle table,
// except that a latched long-term bandwidth estimate always paces at unity
// gain regardless of phase.
func (c *Controller) setCycleIdx(idx uint32) {
	c.cycleIdx = idx
	if c.ltUseBw {
		c.pacingGain = gainUnit
	} else {
		c.pacingGain = pacingGainCycle[c.cycleIdx]
	}
}

// drainToTargetCycling is the default PROBE_BW cycling policy: instead of
// marching through the fixed phase table on a clock, it holds a sub-unity
// gain until in-flight has actually drained to the unity-gain BDP, and holds
// a super-unity gain until either the target is reached or something
// (loss, app-limit, a full send window) says probing further won't help.
func (c *Controller) drainToTargetCycling(host Host, rs RateSample) {
	if c.mode != ProbeBW {
		return
	}
	elapsedUs := host.DeliveredMstampUs() - c.cycleMstampUs

	if uint64(elapsedUs) > uint64(c.cycleLen)*uint64(c.minRTTUs) {
		c.cycleMstampUs = host.DeliveredMstampUs()
		c.cycleLen = cycleLen - c.cfg.Rand(c.cfg.CycleRandMax)
		c.setCycleIdx(bwProbeUp)
		return
	}

	if c.pacingGain == gainUnit {
		return
	}

	inflight := rs.PriorInFlight
	bw := c.maxBw()

	if c.pacingGain < gainUnit {
		if inflight <= c.inflight(bw, gainUnit) {
			c.setCycleIdx(bwProbeCruise)
		}
		return
	}

	if uint64(elapsedUs) > uint64(c.minRTTUs) &&
		(inflight >= c.inflight(bw, c.pacingGain) ||
			rs.Losses > 0 ||
			rs.IsAppLimited ||
			!host.HasSendableData()) {
		c.setCycleIdx(bwProbeDown)
	}
}

// isNextCyclePhase is the classic (non-drain-to-target) cycling predicate:
// a unity-gain phase ends after a full min-RTT; the probe-up phase ends once
// it has run a full min-RTT and either saw a loss or hit its in-flight
// target; the probe-down phase ends after a full min-RTT or as soon as
// in-flight has drained to the unity-gain target, whichever comes first.
func (c *Controller) isNextCyclePhase(host Host, rs RateSample) bool {
	isFullLength := host.DeliveredMstampUs()-c.cycleMstampUs > int64(c.minRTTUs)
	if c.pacingGain == gainUnit {
		return isFullLength
	}

	inflight := rs.PriorInFlight
	bw := c.maxBw()

	if c.pacingGain > gainUnit {
		return isFullLength && (rs.Losses > 0 || inflight >= c.inflight(bw, c.pacingGain))
	}
	return isFullLength || inflight <= c.inflight(bw, gainUnit)
}

func (c *Controller) advanceCyclePhase(host Host) {
	c.setCycleIdx((c.cycleIdx + 1) & (cycleLen - 1))
	c.cycleMstampUs = host.DeliveredMstampUs()
}

// updateCyclePhase dispatches to whichever PROBE_BW cycling policy the
// configuration selects.
func (c *Controller) updateCyclePhase(host Host, rs RateSample) {
	if c.cfg.DrainToTarget {
		c.drainToTargetCycling(host, rs)
		return
	}
	if c.mode == ProbeBW && !c.ltUseBw && c.isNextCyclePhase(host, rs) {
		c.advanceCyclePhase(host)
	}
}

func (c *Controller) resetStartupMode() {
	c.mode = Startup
	c.pacingGain = c.cfg.HighGain
	c.cwndGain = c.cfg.HighGain
}

func (c *Controller) resetProbeBWMode(host Host) {
	c.mode = ProbeBW
	c.pacingGain = gainUnit
	c.cwndGain = c.cfg.CwndGain
	c.cycleIdx = cycleLen - 1 - c.cfg.Rand(c.cfg.CycleRandMax)
	c.advanceCyclePhase(host)
}

// resetMode re-enters STARTUP if the pipe has not yet been judged full, or
// PROBE_BW (with fresh gain cycling) otherwise. Used on PROBE_RTT exit and
// on long-term bandwidth estimate expiry.
func (c *Controller) resetMode(host Host) {
	if !c.fullBwReached() {
		c.resetStartupMode()
	} else {
		c.resetProbeBWMode(host)
	}
}

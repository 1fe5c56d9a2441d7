package bbrplus

// updateMinRTT tracks the minimum RTT seen within the configured wall-clock
// window and drives entry into, and exit from, PROBE_RTT. PROBE_RTT exists
// so flows periodically let the bottleneck queue drain far enough to
// re-measure the unloaded propagation delay, which would otherwise only
// ever grow as a loaded-path artifact.
func (c *Controller) updateMinRTT(host Host, rs RateSample) {
	now := host.TCPMstampUs()
	filterExpired := now > c.minRTTStampUs+c.cfg.MinRTTWindow.Microseconds()

	if rs.RTTUs >= 0 && (uint32(rs.RTTUs) <= c.minRTTUs || filterExpired) {
		c.minRTTUs = uint32(rs.RTTUs)
		c.minRTTStampUs = now
	}

	if c.cfg.ProbeRTTDuration > 0 && filterExpired && !c.idleRestart && c.mode != ProbeRTT {
		c.mode = ProbeRTT
		c.pacingGain = gainUnit
		c.cwndGain = gainUnit
		c.saveCwnd(host)
		c.hasProbeRTTDoneUs = false
		c.log.Event("enter_probe_rtt", F("min_rtt_us", c.minRTTUs))
	}

	if c.mode == ProbeRTT {
		inFlight := host.PacketsInFlight()
		appLimited := host.Delivered() + inFlight
		if appLimited == 0 {
			appLimited = 1
		}
		host.SetAppLimited(appLimited)

		if !c.hasProbeRTTDoneUs && inFlight <= c.cfg.CwndMinTarget {
			c.probeRTTDoneUs = now + c.cfg.ProbeRTTDuration.Microseconds()
			c.hasProbeRTTDoneUs = true
			c.probeRTTRoundDone = false
			c.nextRTTDelivered = host.Delivered()
		} else if c.hasProbeRTTDoneUs {
			if c.roundStart {
				c.probeRTTRoundDone = true
			}
			if c.probeRTTRoundDone && now > c.probeRTTDoneUs {
				c.minRTTStampUs = now
				c.restoreCwnd = true
				c.resetMode(host)
				c.log.Event("exit_probe_rtt", F("mode", c.mode.String()))
			}
		}
	}
	c.idleRestart = false
}

package bbrplus

// updateAckAggregation estimates the windowed maximum degree of ACK
// aggregation — excess data acked beyond what the bandwidth model expected
// — so the output stage can provision extra in-flight data to keep sending
// through inter-ACK silences instead of stalling on them.
func (c *Controller) updateAckAggregation(host Host, rs RateSample) {
	if c.cfg.ExtraAckedGain == 0 || rs.AckedSacked <= 0 || rs.Delivered < 0 || rs.IntervalUs <= 0 {
		return
	}

	if c.roundStart {
		c.extraAckedWinRTT = min32(0x1F, c.extraAckedWinRTT+1)
		if c.extraAckedWinRTT >= c.cfg.ExtraAckedWindowRTTs {
			c.extraAckedWinRTT = 0
			c.extraAckedWinIdx ^= 1
			c.extraAcked[c.extraAckedWinIdx] = 0
		}
	}

	epochUs := host.DeliveredMstampUs() - c.ackEpochMstampUs
	expectedAcked := c.bandwidth() * uint64(epochUs) / bwUnit

	if uint64(c.ackEpochAcked) <= expectedAcked ||
		uint64(c.ackEpochAcked)+uint64(rs.AckedSacked) >= (1<<20) {
		c.ackEpochAcked = 0
		c.ackEpochMstampUs = host.DeliveredMstampUs()
		expectedAcked = 0
	}

	c.ackEpochAcked = min32(0xFFFFF, c.ackEpochAcked+uint32(rs.AckedSacked))
	extraAcked := c.ackEpochAcked - uint32(expectedAcked)
	extraAcked = min32(extraAcked, host.SndCwnd())
	if extraAcked > c.extraAcked[c.extraAckedWinIdx] {
		c.extraAcked[c.extraAckedWinIdx] = extraAcked
	}
}

func min32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

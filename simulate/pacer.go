package simulate

import "time"

const (
	maxBurstPackets               = 10
	minPacingDelay                = time.Millisecond
	maxBurstPacingDelayMultiplier = 4
)

// Pacer implements token-bucket pacing: it accumulates send budget at the
// rate returned by getBandwidth (bytes/sec) and spends it as packets go out,
// so a connection's instantaneous send rate tracks the published pacing
// rate instead of bursting in lockstep with ACK arrivals.
type Pacer struct {
	budgetAtLastSent int64
	maxDatagramSize  int64
	lastSentAtUs     int64
	hasSent          bool
	getBandwidth     func() uint64 // bytes/sec
}

// NewPacer builds a Pacer that queries getBandwidth for the current rate.
func NewPacer(maxDatagramSize uint32, getBandwidth func() uint64) *Pacer {
	return &Pacer{
		budgetAtLastSent: int64(maxBurstPackets) * int64(maxDatagramSize),
		maxDatagramSize:  int64(maxDatagramSize),
		getBandwidth:     getBandwidth,
	}
}

// SentPacket records a packet of size bytes sent at nowUs, spending budget.
func (p *Pacer) SentPacket(nowUs int64, size uint32) {
	budget := p.Budget(nowUs)
	if int64(size) > budget {
		p.budgetAtLastSent = 0
	} else {
		p.budgetAtLastSent = budget - int64(size)
	}
	p.lastSentAtUs = nowUs
	p.hasSent = true
}

// Budget reports the bytes available to send at nowUs without violating the
// pacing rate, capped at the configured max burst size.
func (p *Pacer) Budget(nowUs int64) int64 {
	if !p.hasSent {
		return p.maxBurstSize()
	}
	elapsedUs := nowUs - p.lastSentAtUs
	budget := p.budgetAtLastSent + int64(p.getBandwidth())*elapsedUs/1_000_000
	if budget < 0 {
		budget = 1<<62 - 1
	}
	if m := p.maxBurstSize(); budget > m {
		return m
	}
	return budget
}

func (p *Pacer) maxBurstSize() int64 {
	fromBurst := maxBurstPacingDelayMultiplier * minPacingDelay.Microseconds() * int64(p.getBandwidth()) / 1_000_000
	fromPackets := int64(maxBurstPackets) * p.maxDatagramSize
	if fromBurst > fromPackets {
		return fromBurst
	}
	return fromPackets
}

// TimeUntilSendUs reports, in microseconds after the last SentPacket call,
// when the next maxDatagramSize-sized packet can be sent. A value <= 0 means
// the budget left at that send already covers one packet.
func (p *Pacer) TimeUntilSendUs() int64 {
	if p.budgetAtLastSent >= p.maxDatagramSize {
		return 0
	}
	bw := p.getBandwidth()
	if bw == 0 {
		return minPacingDelay.Microseconds()
	}
	needed := p.maxDatagramSize - p.budgetAtLastSent
	d := needed * 1_000_000 / int64(bw)
	if needed*1_000_000%int64(bw) != 0 {
		d++
	}
	if d < minPacingDelay.Microseconds() {
		d = minPacingDelay.Microseconds()
	}
	return d
}

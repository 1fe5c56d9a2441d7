package simulate

import (
	"github.com/xtls/bbrplus/bbrplus"
)

// sentPacket records the connection state that was true at the moment a
// packet was sent, so that when it is later acked or declared lost the
// sampler can reconstruct a delivery-rate sample for it. All counts here are
// in packets, not bytes — matching the core's own rs->delivered convention,
// which is scaled to bytes/sec only at the output stage via mss_cache.
type sentPacket struct {
	sentAtUs      int64
	delivered     uint32
	deliveredAtUs int64
	inFlight      uint32
	isAppLimited  bool
}

// Sampler reconstructs per-ACK bbrplus.RateSample values from a stream of
// send and acknowledgment events, following the delivery-rate method: the
// sample for a newly-acked packet P is the minimum of the send rate and the
// ack rate measured between P and the last packet acked before P was sent.
//
// This is the piece spec.md's §1 explicitly places outside the core's
// responsibility ("the rate-sample construction... is not part of the
// core"); it exists here purely to drive the core in the simulated network
// and in the demo CLI.
type Sampler struct {
	sent *packetQueue[sentPacket]

	totalSent      uint32
	totalDelivered uint32
	totalLost      uint32

	lastAckedSentAtUs      int64
	lastAckedDeliveredAtUs int64
	lastSentPacket         uint64

	isAppLimited         bool
	endOfAppLimitedPhase uint64
}

// NewSampler constructs an empty Sampler.
func NewSampler() *Sampler {
	return &Sampler{
		sent:                 newPacketQueue[sentPacket](),
		lastSentPacket:       invalidPacketNumber,
		endOfAppLimitedPhase: invalidPacketNumber,
	}
}

// OnPacketSent records a newly-transmitted packet. inFlightPackets is the
// packet count in flight immediately before this one was sent.
func (s *Sampler) OnPacketSent(packetNumber uint64, sentAtUs int64, inFlightPackets uint32) {
	s.lastSentPacket = packetNumber
	s.totalSent++
	if inFlightPackets == 0 {
		s.lastAckedSentAtUs = sentAtUs
	}
	s.sent.Emplace(packetNumber, sentPacket{
		sentAtUs:      sentAtUs,
		delivered:     s.totalDelivered,
		deliveredAtUs: s.lastAckedDeliveredAtUs,
		inFlight:      inFlightPackets + 1,
		isAppLimited:  s.isAppLimited,
	})
}

// OnAppLimited marks the connection as having run out of data to send; every
// packet sent from here on is flagged app-limited until an ack arrives for
// one sent after this call.
func (s *Sampler) OnAppLimited() {
	s.isAppLimited = true
	s.endOfAppLimitedPhase = s.lastSentPacket
}

// OnPacketLost reports a lost packet to the sampler: it is counted in
// TotalLost and its send record is dropped. It does not add to any
// RateSample's Losses, which OnPacketAcked takes from its losses argument.
func (s *Sampler) OnPacketLost(packetNumber uint64) {
	s.totalLost++
	s.sent.Remove(packetNumber, nil)
}

// OnPacketAcked reports an acked packet at ackTimeUs and returns the
// resulting rate sample, or ok=false if no sample could be constructed
// (e.g. the packet's send-time state has already been evicted).
func (s *Sampler) OnPacketAcked(packetNumber uint64, ackTimeUs int64, losses uint32) (rs bbrplus.RateSample, ok bool) {
	sp := s.sent.GetEntry(packetNumber)
	if sp == nil {
		return bbrplus.RateSample{}, false
	}
	s.totalDelivered++

	if s.isAppLimited && (s.endOfAppLimitedPhase == invalidPacketNumber || packetNumber > s.endOfAppLimitedPhase) {
		s.isAppLimited = false
	}

	priorDelivered := sp.delivered
	priorInFlight := sp.inFlight

	var sendIntervalUs, ackIntervalUs int64
	if sp.sentAtUs > s.lastAckedSentAtUs {
		sendIntervalUs = sp.sentAtUs - s.lastAckedSentAtUs
	}
	if s.lastAckedDeliveredAtUs != 0 {
		ackIntervalUs = ackTimeUs - s.lastAckedDeliveredAtUs
	}

	intervalUs := ackIntervalUs
	if sendIntervalUs > intervalUs {
		intervalUs = sendIntervalUs
	}

	delivered := int64(s.totalDelivered - priorDelivered)

	s.lastAckedSentAtUs = sp.sentAtUs
	s.lastAckedDeliveredAtUs = ackTimeUs
	s.sent.Remove(packetNumber, nil)

	if intervalUs <= 0 {
		return bbrplus.RateSample{}, false
	}

	return bbrplus.RateSample{
		Delivered:      delivered,
		IntervalUs:     intervalUs,
		RTTUs:          ackTimeUs - sp.sentAtUs,
		Losses:         losses,
		AckedSacked:    1,
		PriorInFlight:  priorInFlight,
		PriorDelivered: priorDelivered,
		IsAppLimited:   sp.isAppLimited,
	}, true
}

// TotalDelivered reports the cumulative delivered-packet count, for
// Host.Delivered.
func (s *Sampler) TotalDelivered() uint32 { return s.totalDelivered }

// TotalLost reports the cumulative lost-packet count, for Host.Lost.
func (s *Sampler) TotalLost() uint32 { return s.totalLost }

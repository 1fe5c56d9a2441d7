package bbrplus

// fakeHost is a minimal in-memory Host used by the model's own tests. It
// holds just enough state to stand in for a real TCP/QUIC control block.
type fakeHost struct {
	nowUs int64

	delivered       uint32
	deliveredAtUs   int64
	lost            uint32
	mss             uint32
	srttUs          uint32
	cwnd            uint32
	cwndClamp       uint32
	appLimited      uint32
	inFlight        uint32
	pacingRate      uint64
	maxPacingRate   uint64
	pacingStatus    PacingStatus
	tsoAutosize     uint32
	caState         CAState
	sendableData    bool
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		mss:           1460,
		cwnd:          10,
		cwndClamp:     1 << 20,
		maxPacingRate: 1 << 40,
		tsoAutosize:   64,
		sendableData:  true,
	}
}

func (h *fakeHost) TCPMstampUs() int64         { return h.nowUs }
func (h *fakeHost) Delivered() uint32          { return h.delivered }
func (h *fakeHost) DeliveredMstampUs() int64   { return h.deliveredAtUs }
func (h *fakeHost) Lost() uint32               { return h.lost }
func (h *fakeHost) MSSCache() uint32           { return h.mss }
func (h *fakeHost) SRTTUs() uint32             { return h.srttUs }
func (h *fakeHost) SndCwnd() uint32            { return h.cwnd }
func (h *fakeHost) SetSndCwnd(v uint32)        { h.cwnd = v }
func (h *fakeHost) SndCwndClamp() uint32       { return h.cwndClamp }
func (h *fakeHost) AppLimited() uint32         { return h.appLimited }
func (h *fakeHost) SetAppLimited(v uint32)     { h.appLimited = v }
func (h *fakeHost) PacketsInFlight() uint32    { return h.inFlight }
func (h *fakeHost) HasSendableData() bool      { return h.sendableData }
func (h *fakeHost) PacingRate() uint64         { return h.pacingRate }
func (h *fakeHost) SetPacingRate(v uint64)     { h.pacingRate = v }
func (h *fakeHost) MaxPacingRate() uint64      { return h.maxPacingRate }
func (h *fakeHost) TSOAutosize(mss, minSegs uint32) uint32 {
	if h.tsoAutosize < minSegs {
		return minSegs
	}
	return h.tsoAutosize
}
func (h *fakeHost) CAState() CAState { return h.caState }

func (h *fakeHost) CASPacingStatus(have, want PacingStatus) bool {
	if h.pacingStatus != have {
		return false
	}
	h.pacingStatus = want
	return true
}

// advance moves the simulated clock forward by dUs microseconds and bumps
// the delivered counter, mirroring what a real connection would do between
// two ACKs.
func (h *fakeHost) advance(dUs int64, deliveredDelta uint32) {
	h.nowUs += dUs
	h.delivered += deliveredDelta
	h.deliveredAtUs = h.nowUs
}

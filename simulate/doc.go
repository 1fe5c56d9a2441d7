// Package simulate provides the pieces the core congestion-control model
// treats as external collaborators: a delivery-rate sampler that turns raw
// send/ack events into bbrplus.RateSample values, a token-bucket pacer that
// enforces a published pacing rate, and a simple bottleneck-link network so
// a Controller can be driven end-to-end without a real socket.
package simulate

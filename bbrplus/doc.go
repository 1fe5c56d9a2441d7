// Package bbrplus implements the BBR+ congestion-control core: a
// bandwidth/min-RTT model-based state machine that turns per-ACK delivery
// rate samples into a pacing rate, a congestion window, and a TSO
// segmentation goal.
//
// The package is transport-agnostic. It never touches a socket, a timer, or
// a packet; callers provide a Host implementation that exposes the narrow
// set of connection fields the model needs to read and write, and feed rate
// samples to Controller.CongControl on every ACK.
package bbrplus

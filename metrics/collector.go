// Package metrics exposes bbrplus.Diagnostic as a Prometheus custom
// collector: each tracked flow reports its bandwidth, min-RTT, gains, and
// mode as a gauge vector labeled by flow name, scraped on demand rather than
// polled on a timer.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/xtls/bbrplus/bbrplus"
)

// Source is anything that can report a point-in-time diagnostic snapshot —
// satisfied by *simulate.Network and by any other Host-owning connection
// wrapper.
type Source interface {
	Diagnostic() bbrplus.Diagnostic
}

type flowEntry struct {
	source Source
	labels prometheus.Labels
}

// Collector is a prometheus.Collector gathering bbrplus diagnostics across
// an arbitrary number of tracked flows, added and removed as connections
// come and go.
type Collector struct {
	mu    sync.Mutex
	flows map[string]flowEntry

	bwBytesPerSec *prometheus.Desc
	minRTTSeconds *prometheus.Desc
	pacingGain    *prometheus.Desc
	cwndGain      *prometheus.Desc
	cwndPackets   *prometheus.Desc
	tsoSegGoal    *prometheus.Desc
	mode          *prometheus.Desc
	fullBwFound   *prometheus.Desc
}

// NewCollector builds an empty Collector. constLabels are attached to every
// metric series (e.g. a process or instance identifier); each flow
// additionally carries a "flow" label set by Add.
func NewCollector(constLabels prometheus.Labels) *Collector {
	labelNames := []string{"flow"}
	return &Collector{
		flows: make(map[string]flowEntry),
		bwBytesPerSec: prometheus.NewDesc("bbrplus_bandwidth_bytes_per_second",
			"Current bandwidth estimate used to drive pacing and cwnd.", labelNames, constLabels),
		minRTTSeconds: prometheus.NewDesc("bbrplus_min_rtt_seconds",
			"Windowed minimum round-trip time.", labelNames, constLabels),
		pacingGain: prometheus.NewDesc("bbrplus_pacing_gain",
			"Current pacing gain, scale 1.0 = unity.", labelNames, constLabels),
		cwndGain: prometheus.NewDesc("bbrplus_cwnd_gain",
			"Current cwnd gain, scale 1.0 = unity.", labelNames, constLabels),
		cwndPackets: prometheus.NewDesc("bbrplus_cwnd_packets",
			"Published congestion window, in packets.", labelNames, constLabels),
		tsoSegGoal: prometheus.NewDesc("bbrplus_tso_segs_goal",
			"Current TSO segmentation goal.", labelNames, constLabels),
		mode: prometheus.NewDesc("bbrplus_mode",
			"Current mode machine state (0=STARTUP,1=DRAIN,2=PROBE_BW,3=PROBE_RTT).", labelNames, constLabels),
		fullBwFound: prometheus.NewDesc("bbrplus_full_bw_found",
			"1 once STARTUP has judged the pipe full, else 0.", labelNames, constLabels),
	}
}

// Add starts tracking a flow under the given name.
func (c *Collector) Add(name string, source Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flows[name] = flowEntry{source: source, labels: prometheus.Labels{"flow": name}}
}

// Remove stops tracking a flow.
func (c *Collector) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.flows, name)
}

func (c *Collector) Describe(descs chan<- *prometheus.Desc) {
	descs <- c.bwBytesPerSec
	descs <- c.minRTTSeconds
	descs <- c.pacingGain
	descs <- c.cwndGain
	descs <- c.cwndPackets
	descs <- c.tsoSegGoal
	descs <- c.mode
	descs <- c.fullBwFound
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name, entry := range c.flows {
		d := entry.source.Diagnostic()
		bw := float64(d.BwLo) + float64(d.BwHi)*4294967296

		ch <- prometheus.MustNewConstMetric(c.bwBytesPerSec, prometheus.GaugeValue, bw, name)
		ch <- prometheus.MustNewConstMetric(c.minRTTSeconds, prometheus.GaugeValue, float64(d.MinRTTUs)/1e6, name)
		ch <- prometheus.MustNewConstMetric(c.pacingGain, prometheus.GaugeValue, float64(d.PacingGain)/256, name)
		ch <- prometheus.MustNewConstMetric(c.cwndGain, prometheus.GaugeValue, float64(d.CwndGain)/256, name)
		ch <- prometheus.MustNewConstMetric(c.cwndPackets, prometheus.GaugeValue, float64(d.Cwnd), name)
		ch <- prometheus.MustNewConstMetric(c.tsoSegGoal, prometheus.GaugeValue, float64(d.TSOSegGoal), name)
		ch <- prometheus.MustNewConstMetric(c.mode, prometheus.GaugeValue, float64(d.Mode), name)
		fullBw := 0.0
		if d.FullBwFound {
			fullBw = 1.0
		}
		ch <- prometheus.MustNewConstMetric(c.fullBwFound, prometheus.GaugeValue, fullBw, name)
	}
}

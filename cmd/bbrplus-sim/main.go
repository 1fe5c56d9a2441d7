// Command bbrplus-sim drives the bbrplus core against a simulated
// bottleneck link and reports how bandwidth, cwnd, and RTT evolve over the
// run: ASCII plots of bandwidth and cwnd, a percentile table of the sampled
// min-RTT built from an HDR histogram, and a final one-line summary.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xtls/bbrplus/bbrplus"
	"github.com/xtls/bbrplus/metrics"
	"github.com/xtls/bbrplus/simulate"
)

func main() {
	var (
		bandwidthMbps = flag.Float64("bandwidth-mbps", 50, "Bottleneck link capacity, in megabits/sec")
		rttMs         = flag.Float64("rtt-ms", 40, "Round-trip propagation delay, in milliseconds")
		bufferKB      = flag.Float64("buffer-kb", 128, "Bottleneck queue capacity, in kilobytes")
		durationMs    = flag.Int64("duration-ms", 5000, "Simulation duration, in milliseconds")
		sampleMs      = flag.Int64("sample-ms", 50, "Reporting sample period, in milliseconds")
		mss           = flag.Uint("mss", 1460, "Simulated segment size, in bytes")
		configPath    = flag.String("config", "", "Optional TOML tuning-config file (defaults built in)")
		metricsAddr   = flag.String("metrics-addr", "", "If set, serve live Prometheus diagnostics on this address (e.g. :9090) while the run completes")
	)
	flag.Parse()

	flowID := uuid.New().String()

	cfg := bbrplus.DefaultConfig()
	if *configPath != "" {
		loaded, err := bbrplus.LoadConfig(*configPath)
		if err != nil {
			color.Red("failed to load config %s: %v", *configPath, err)
			os.Exit(1)
		}
		cfg = loaded
	}

	link := simulate.Link{
		CapacityBps:   uint64(*bandwidthMbps * 1_000_000 / 8),
		PropagationUs: int64(*rttMs * 1000 / 2),
		QueueBytes:    uint32(*bufferKB * 1024),
	}

	net := simulate.NewNetwork(link, uint32(*mss), cfg, nil)

	if *metricsAddr != "" {
		collector := metrics.NewCollector(prometheus.Labels{"tool": "bbrplus-sim"})
		collector.Add(flowID, net)
		prometheus.MustRegister(collector)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("metrics server: %v", err)
			}
		}()
		defer srv.Close()
		color.Yellow("serving live diagnostics for flow %s on http://%s/metrics", flowID, *metricsAddr)
	}

	type sample struct {
		bwMbps float64
		cwnd   float64
		rttMs  float64
	}
	var samples []sample
	rttHist := hdrhistogram.New(1, 10_000_000, 3)

	elapsed := int64(0)
	for elapsed < *durationMs*1000 {
		net.Advance(*sampleMs * 1000)
		elapsed += *sampleMs * 1000

		info := net.Diagnostic()
		bwBytesPerSec := float64(info.BwLo) + float64(info.BwHi)*4294967296
		samples = append(samples, sample{
			bwMbps: bwBytesPerSec * 8 / 1_000_000,
			cwnd:   float64(info.Cwnd),
			rttMs:  float64(info.MinRTTUs) / 1000,
		})
		if info.MinRTTUs > 0 {
			rttHist.RecordValue(int64(info.MinRTTUs))
		}
	}

	fmt.Println(color.CyanString("bbrplus simulation"))
	fmt.Printf("link: %.1f Mbit/s, %.0f ms RTT, %.0f KB buffer, %d ms\n\n",
		*bandwidthMbps, *rttMs, *bufferKB, *durationMs)

	bwSeries := make([]float64, len(samples))
	cwndSeries := make([]float64, len(samples))
	for i, s := range samples {
		bwSeries[i] = s.bwMbps
		cwndSeries[i] = s.cwnd
	}
	fmt.Println(asciigraph.Plot(bwSeries, asciigraph.Height(10), asciigraph.Width(70), asciigraph.Caption("bandwidth (Mbit/s)")))
	fmt.Println()
	fmt.Println(asciigraph.Plot(cwndSeries, asciigraph.Height(10), asciigraph.Width(70), asciigraph.Caption("cwnd (packets)")))
	fmt.Println()

	if rttHist.TotalCount() > 0 {
		table := tablewriter.NewWriter(os.Stdout)
		if err := table.Header("percentile", "min-rtt (ms)"); err != nil {
			color.Red("table header: %v", err)
		}
		for _, q := range []float64{50, 90, 95, 99} {
			if err := table.Append(fmt.Sprintf("p%g", q), fmt.Sprintf("%.2f", float64(rttHist.ValueAtQuantile(q))/1000)); err != nil {
				color.Red("table append: %v", err)
			}
		}
		if err := table.Append("min", fmt.Sprintf("%.2f", float64(rttHist.Min())/1000)); err != nil {
			color.Red("table append: %v", err)
		}
		if err := table.Append("max", fmt.Sprintf("%.2f", float64(rttHist.Max())/1000)); err != nil {
			color.Red("table append: %v", err)
		}
		if err := table.Render(); err != nil {
			color.Red("table render: %v", err)
		}
	}

	final := net.Controller.GetInfo(net)
	color.Green("\nfinal mode: %s, full_bw_found: %v, cwnd: %d packets", final.Mode, final.FullBwFound, final.Cwnd)
}

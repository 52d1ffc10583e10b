// Package prompush implements a Prometheus Pushgateway backend for internal/metrics.
//
// Collectors live in a private registry; Flush pushes the whole registry
// under the configured job, replacing the previous group.
package prompush

import (
	"fmt"
	"strings"

	"github.com/Ravenkao/bank-snapshot/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

var durationBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Backend implements metrics.Backend and metrics.Flusher.
type Backend struct {
	reg    *prometheus.Registry
	pusher *push.Pusher

	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	labelNames map[string][]string
}

// NewBackend registers the ledger collectors and targets gatewayURL.
func NewBackend(job, gatewayURL string) (*Backend, error) {
	if strings.TrimSpace(gatewayURL) == "" {
		return nil, fmt.Errorf("prompush: empty gateway url")
	}
	if job == "" {
		job = "bank-snapshot"
	}

	b := &Backend{
		reg:        prometheus.NewRegistry(),
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		labelNames: make(map[string][]string),
	}

	counters := []struct {
		name, help string
		labels     []string
	}{
		{metrics.TablesTotal, "Tables seen per scan, by qualification.", []string{"source", "status"}},
		{metrics.RowsTotal, "Body rows of qualified tables, by outcome.", []string{"source", "status"}},
		{metrics.FallbackTotal, "Scans that returned fallback transactions.", []string{"source"}},
		{metrics.HTTPRequestsTotal, "Statement page fetches.", []string{"status"}},
		{metrics.HTTPErrorsTotal, "Failed statement page fetches.", []string{"status"}},
	}
	for _, c := range counters {
		vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: c.name, Help: c.help}, c.labels)
		if err := b.reg.Register(vec); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", c.name, err)
		}
		b.counters[c.name] = vec
		b.labelNames[c.name] = c.labels
	}

	histograms := []struct {
		name, help string
		labels     []string
		buckets    []float64
	}{
		{metrics.ScanDurationSeconds, "Page scan duration.", []string{"source", "status"}, durationBuckets},
		{metrics.HTTPRequestDurationSeconds, "Time to response headers.", []string{"status"}, durationBuckets},
		{metrics.HTTPResponseDurationSeconds, "Time to read the response body.", []string{"status"}, durationBuckets},
		{metrics.HTTPDownloadBytes, "Response body size.", []string{"status"}, prometheus.ExponentialBuckets(1024, 4, 8)},
	}
	for _, h := range histograms {
		vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: h.name, Help: h.help, Buckets: h.buckets}, h.labels)
		if err := b.reg.Register(vec); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", h.name, err)
		}
		b.histograms[h.name] = vec
		b.labelNames[h.name] = h.labels
	}

	b.pusher = push.New(gatewayURL, job).Gatherer(b.reg)
	return b, nil
}

func (b *Backend) values(name string, labels metrics.Labels) []string {
	names := b.labelNames[name]
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = labels[n]
	}
	return out
}

// IncCounter implements metrics.Backend. Unknown names are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	vec, ok := b.counters[name]
	if !ok || delta <= 0 {
		return
	}
	vec.WithLabelValues(b.values(name, labels)...).Add(delta)
}

// ObserveHistogram implements metrics.Backend. Unknown names are ignored.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	vec, ok := b.histograms[name]
	if !ok || value < 0 {
		return
	}
	vec.WithLabelValues(b.values(name, labels)...).Observe(value)
}

// Flush pushes the registry to the gateway.
func (b *Backend) Flush() error {
	if err := b.pusher.Push(); err != nil {
		return fmt.Errorf("prompush: push: %w", err)
	}
	return nil
}

var (
	_ metrics.Backend = (*Backend)(nil)
	_ metrics.Flusher = (*Backend)(nil)
)

package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "scalebench"

// Recorder keeps the latest per-process values and tick counters on a private registry.
type Recorder struct {
	registry *prometheus.Registry
	cpu      *prometheus.GaugeVec
	memory   *prometheus.GaugeVec
	ticks    *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		cpu: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_cpu_percent",
			Help:      "Last sampled CPU usage of a process, in percent.",
		}, []string{"node", "process"}),
		memory: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_memory_kibibytes",
			Help:      "Last sampled memory of a process, in KiB.",
		}, []string{"node", "process"}),
		ticks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sample_ticks_total",
			Help:      "Sampling ticks that produced rows for a node.",
		}, []string{"node"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sample_failures_total",
			Help:      "Sampling ticks skipped for a node because sampling failed.",
		}, []string{"node"}),
	}
}

// Observe records a successful tick for node.
func (r *Recorder) Observe(node string, samples []Sample) {
	for _, sample := range samples {
		r.cpu.WithLabelValues(node, sample.Process).Set(sample.CPUPercent)
		r.memory.WithLabelValues(node, sample.Process).Set(float64(sample.MemoryKiB))
	}

	r.ticks.WithLabelValues(node).Inc()
}

// Failure records a skipped tick for node.
func (r *Recorder) Failure(node string) {
	r.failures.WithLabelValues(node).Inc()
}

// Registry exposes the registry, e.g. for testutil assertions.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the current values in the Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	err := prometheus.WriteToTextfile(path, r.registry)
	if err != nil {
		return fmt.Errorf("failed to write metrics snapshot: %w", err)
	}

	return nil
}

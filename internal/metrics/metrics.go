// Package metrics holds the ledger's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mediaproof"

// Metrics tracks executed instructions and the ledger slot.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	instructions *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	slot         prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		instructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instructions_total",
			Help:      "Instructions executed by the ledger, by program, instruction and status.",
		}, []string{"program", "instruction", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "instruction_duration_seconds",
			Help:      "Instruction execution latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"program", "instruction"}),
		slot: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "slot",
			Help:      "Slot of the most recently processed transaction.",
		}),
	}
	for _, c := range []prometheus.Collector{m.instructions, m.duration, m.slot} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveInstruction records one execution. An empty instruction name means
// the data did not match any instruction.
func (m *Metrics) ObserveInstruction(program, instruction string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	if instruction == "" {
		instruction = "unknown"
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.instructions.WithLabelValues(program, instruction, status).Inc()
	m.duration.WithLabelValues(program, instruction).Observe(elapsed.Seconds())
}

// SetSlot records the current ledger slot.
func (m *Metrics) SetSlot(slot uint64) {
	if m == nil {
		return
	}
	m.slot.Set(float64(slot))
}

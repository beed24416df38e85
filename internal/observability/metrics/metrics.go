package metrics

import "github.com/prometheus/client_golang/prometheus"

// DispatchMetrics exposes counters/histograms for booking intake and dispatch.
type DispatchMetrics struct {
	bookingsTotal      *prometheus.CounterVec
	checkpointsTotal   *prometheus.CounterVec
	extractionFailures prometheus.Counter
	extractionLatency  prometheus.Histogram
	outboundCalls      *prometheus.CounterVec
	ledgerOps          *prometheus.CounterVec
}

func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	m := &DispatchMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arcticflow",
			Subsystem: "bookings",
			Name:      "create_total",
			Help:      "Booking create attempts by result (created, duplicate)",
		}, []string{"result", "assigned"}),
		checkpointsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arcticflow",
			Subsystem: "intake",
			Name:      "checkpoints_total",
			Help:      "Intake checkpoints by channel and outcome",
		}, []string{"channel", "outcome"}),
		extractionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arcticflow",
			Subsystem: "intake",
			Name:      "extraction_failures_total",
			Help:      "Extraction oracle errors",
		}),
		extractionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "arcticflow",
			Subsystem: "intake",
			Name:      "extraction_latency_seconds",
			Help:      "Latency of extraction oracle calls",
			Buckets:   prometheus.DefBuckets,
		}),
		outboundCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arcticflow",
			Subsystem: "outbound",
			Name:      "calls_total",
			Help:      "Outbound AI calls by status",
		}, []string{"status"}),
		ledgerOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arcticflow",
			Subsystem: "bookings",
			Name:      "ledger_ops_total",
			Help:      "Ledger mutations by operation and result",
		}, []string{"op", "result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.checkpointsTotal, m.extractionFailures, m.extractionLatency, m.outboundCalls, m.ledgerOps)
	return m
}

func (m *DispatchMetrics) ObserveCreate(created, assigned bool) {
	if m == nil {
		return
	}
	result := "duplicate"
	if created {
		result = "created"
	}
	label := "false"
	if assigned {
		label = "true"
	}
	m.bookingsTotal.WithLabelValues(result, label).Inc()
}

func (m *DispatchMetrics) ObserveCheckpoint(channel, outcome string) {
	if m == nil {
		return
	}
	m.checkpointsTotal.WithLabelValues(channel, outcome).Inc()
}

func (m *DispatchMetrics) ObserveExtraction(seconds float64, err error) {
	if m == nil {
		return
	}
	m.extractionLatency.Observe(seconds)
	if err != nil {
		m.extractionFailures.Inc()
	}
}

func (m *DispatchMetrics) ObserveOutboundCall(status string) {
	if m == nil {
		return
	}
	m.outboundCalls.WithLabelValues(status).Inc()
}

func (m *DispatchMetrics) ObserveLedgerOp(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ledgerOps.WithLabelValues(op, result).Inc()
}

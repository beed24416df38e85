package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDispatchMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDispatchMetrics(reg)
	m.ObserveCreate(true, true)
	m.ObserveCreate(false, false)
	m.ObserveCheckpoint("chat", "pending")
	m.ObserveExtraction(0.2, errors.New("bad json"))
	m.ObserveExtraction(0.1, nil)
	m.ObserveOutboundCall("pending")
	m.ObserveLedgerOp("reassign", nil)

	if got := testutil.ToFloat64(m.bookingsTotal.WithLabelValues("created", "true")); got != 1 {
		t.Fatalf("expected 1 created booking, got %v", got)
	}
	if got := testutil.ToFloat64(m.bookingsTotal.WithLabelValues("duplicate", "false")); got != 1 {
		t.Fatalf("expected 1 duplicate, got %v", got)
	}
	if got := testutil.ToFloat64(m.extractionFailures); got != 1 {
		t.Fatalf("expected 1 extraction failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.checkpointsTotal.WithLabelValues("chat", "pending")); got != 1 {
		t.Fatalf("expected 1 pending checkpoint, got %v", got)
	}
}

func TestDispatchMetricsDefaultRegistry(t *testing.T) {
	m := NewDispatchMetrics(nil)
	m.ObserveOutboundCall("failed")
	prometheus.DefaultRegisterer.Unregister(m.outboundCalls)
	prometheus.DefaultRegisterer.Unregister(m.bookingsTotal)
	prometheus.DefaultRegisterer.Unregister(m.checkpointsTotal)
	prometheus.DefaultRegisterer.Unregister(m.extractionFailures)
	prometheus.DefaultRegisterer.Unregister(m.extractionLatency)
	prometheus.DefaultRegisterer.Unregister(m.ledgerOps)
}

func TestDispatchMetricsNilSafe(t *testing.T) {
	var m *DispatchMetrics
	m.ObserveCreate(true, false)
	m.ObserveCheckpoint("voice", "ignored")
	m.ObserveExtraction(0.1, nil)
	m.ObserveOutboundCall("active")
	m.ObserveLedgerOp("update", errors.New("boom"))
}

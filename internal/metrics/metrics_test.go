package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRecordsOutcome(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := MustNewMetrics(registry)

	done := m.Start("answer_evaluation")
	if got := testutil.ToFloat64(m.inFlight.WithLabelValues("answer_evaluation")); got != 1 {
		t.Fatalf("expected 1 call in flight, got %v", got)
	}
	m.Observe("answer_evaluation", 1500*time.Millisecond, nil)
	done()

	m.Observe("answer_evaluation", time.Second, errors.New("malformed json"))
	m.Observe("job_search", time.Second, nil)

	if got := testutil.ToFloat64(m.inFlight.WithLabelValues("answer_evaluation")); got != 0 {
		t.Fatalf("expected in-flight gauge to return to 0, got %v", got)
	}
	if got := testutil.ToFloat64(m.calls.WithLabelValues("answer_evaluation", statusOK)); got != 1 {
		t.Fatalf("expected 1 successful call, got %v", got)
	}
	if got := testutil.ToFloat64(m.calls.WithLabelValues("answer_evaluation", statusError)); got != 1 {
		t.Fatalf("expected 1 failed call, got %v", got)
	}
	if got := testutil.CollectAndCount(m.duration); got != 3 {
		t.Fatalf("expected 3 latency series, got %d", got)
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if len(families) != 3 {
		t.Fatalf("expected 3 metric families, got %d", len(families))
	}
}

func TestMustNewMetricsReusesRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := MustNewMetrics(registry)
	second := MustNewMetrics(registry)

	second.Observe("translation", time.Second, nil)
	if got := testutil.ToFloat64(first.calls.WithLabelValues("translation", statusOK)); got != 1 {
		t.Fatalf("expected shared counter, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Start("job_search")()
	m.Observe("job_search", time.Second, nil)
}

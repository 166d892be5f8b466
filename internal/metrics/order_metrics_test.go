package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	var metric dto.Metric
	if err := vec.WithLabelValues(labels...).Write(&metric); err != nil {
		t.Fatalf("write counter: %v", err)
	}
	return metric.GetCounter().GetValue()
}

func TestNewOrderMetricsWithRegisterer(t *testing.T) {
	metrics := NewOrderMetricsWithRegisterer(prometheus.NewRegistry())

	if metrics == nil {
		t.Fatal("NewOrderMetricsWithRegisterer should not return nil")
	}
	if metrics.operations == nil {
		t.Error("operations counter should not be nil")
	}
	if metrics.events == nil {
		t.Error("events counter should not be nil")
	}
	if metrics.requestDuration == nil {
		t.Error("requestDuration histogram should not be nil")
	}
	if metrics.inFlight == nil {
		t.Error("inFlight gauge should not be nil")
	}
}

func TestNewOrderMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := NewOrderMetricsWithRegisterer(reg)
	second := NewOrderMetricsWithRegisterer(reg)

	first.RecordOperation("create", ResultOK)
	second.RecordOperation("create", ResultOK)

	if got := counterValue(t, first.operations, "create", ResultOK); got != 2 {
		t.Errorf("expected shared counter value 2, got %v", got)
	}
}

func TestRecordOperation(t *testing.T) {
	metrics := NewOrderMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordOperation("get", ResultOK)
	metrics.RecordOperation("get", ResultNotFound)
	metrics.RecordOperation("get", ResultNotFound)

	if got := counterValue(t, metrics.operations, "get", ResultOK); got != 1 {
		t.Errorf("expected get/ok = 1, got %v", got)
	}
	if got := counterValue(t, metrics.operations, "get", ResultNotFound); got != 2 {
		t.Errorf("expected get/not_found = 2, got %v", got)
	}
}

func TestRecordEvent(t *testing.T) {
	metrics := NewOrderMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordEvent("order.created", nil)
	metrics.RecordEvent("order.created", errors.New("broker down"))

	if got := counterValue(t, metrics.events, "order.created", ResultOK); got != 1 {
		t.Errorf("expected ok = 1, got %v", got)
	}
	if got := counterValue(t, metrics.events, "order.created", ResultError); got != 1 {
		t.Errorf("expected error = 1, got %v", got)
	}
}

func TestObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewOrderMetricsWithRegisterer(reg)

	metrics.ObserveRequest("GET", "/orders/:id", 404, 25*time.Millisecond)
	metrics.ObserveRequest("GET", "/orders/:id", 404, 75*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	var histogram *dto.Histogram
	for _, family := range families {
		if family.GetName() != "foodstand_http_request_duration_seconds" {
			continue
		}
		for _, metric := range family.GetMetric() {
			histogram = metric.GetHistogram()
		}
	}
	if histogram == nil {
		t.Fatal("request duration histogram not gathered")
	}
	if histogram.GetSampleCount() != 2 {
		t.Errorf("expected 2 samples, got %d", histogram.GetSampleCount())
	}
	if sum := histogram.GetSampleSum(); sum < 0.099 || sum > 0.101 {
		t.Errorf("expected sample sum ~0.1, got %v", sum)
	}
}

func TestInFlightGauge(t *testing.T) {
	metrics := NewOrderMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RequestStarted()
	metrics.RequestStarted()
	metrics.RequestFinished()

	var metric dto.Metric
	if err := metrics.inFlight.Write(&metric); err != nil {
		t.Fatalf("write gauge: %v", err)
	}
	if got := metric.GetGauge().GetValue(); got != 1 {
		t.Errorf("expected 1 request in flight, got %v", got)
	}
}

func TestNilOrderMetricsIsNoop(t *testing.T) {
	var metrics *OrderMetrics

	metrics.RecordOperation("create", ResultOK)
	metrics.RecordEvent("order.created", nil)
	metrics.ObserveRequest("POST", "/orders", 201, time.Millisecond)
	metrics.RequestStarted()
	metrics.RequestFinished()
}

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestAssistantMetricsObserve(t *testing.T) {
	m := NewAssistantMetrics(prometheus.NewRegistry())
	m.ObserveTurn("ok", 0.8)
	m.ObserveLLM("ok", 0.5, 120, 40)
	m.ObservePaymentLink("sent")
}

func TestAssistantMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAssistantMetrics(reg)
	m.ObserveTurn("fallback", 0.1)
}

func TestAssistantMetricsNilSafe(t *testing.T) {
	var m *AssistantMetrics
	m.ObserveTurn("ok", 0.1)
	m.ObserveLLM("error", 0.1, 0, 0)
	m.ObservePaymentLink("skipped")
}

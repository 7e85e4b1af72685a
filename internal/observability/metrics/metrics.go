package metrics

import "github.com/prometheus/client_golang/prometheus"

// AssistantMetrics exposes counters/histograms for the SMS assistant flow.
type AssistantMetrics struct {
	turnsTotal        *prometheus.CounterVec
	turnLatency       *prometheus.HistogramVec
	llmLatency        *prometheus.HistogramVec
	llmTokens         *prometheus.CounterVec
	paymentLinksTotal *prometheus.CounterVec
}

func NewAssistantMetrics(reg prometheus.Registerer) *AssistantMetrics {
	m := &AssistantMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scalexotics",
			Subsystem: "assistant",
			Name:      "turns_total",
			Help:      "Total processed inbound SMS turns",
		}, []string{"status"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scalexotics",
			Subsystem: "assistant",
			Name:      "turn_latency_seconds",
			Help:      "End-to-end latency of one assistant turn",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scalexotics",
			Subsystem: "assistant",
			Name:      "llm_latency_seconds",
			Help:      "Latency of LLM completions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scalexotics",
			Subsystem: "assistant",
			Name:      "llm_tokens_total",
			Help:      "Total LLM tokens consumed",
		}, []string{"direction"}),
		paymentLinksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scalexotics",
			Subsystem: "assistant",
			Name:      "payment_links_total",
			Help:      "Payment link trigger outcomes",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.turnLatency, m.llmLatency, m.llmTokens, m.paymentLinksTotal)
	return m
}

func (m *AssistantMetrics) ObserveTurn(status string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(status).Inc()
	m.turnLatency.WithLabelValues(status).Observe(seconds)
}

func (m *AssistantMetrics) ObserveLLM(status string, seconds float64, inputTokens, outputTokens int32) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(status).Observe(seconds)
	if inputTokens > 0 {
		m.llmTokens.WithLabelValues("input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.llmTokens.WithLabelValues("output").Add(float64(outputTokens))
	}
}

func (m *AssistantMetrics) ObservePaymentLink(outcome string) {
	if m == nil {
		return
	}
	m.paymentLinksTotal.WithLabelValues(outcome).Inc()
}

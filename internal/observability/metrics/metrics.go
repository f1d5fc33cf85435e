package metrics

import "github.com/prometheus/client_golang/prometheus"

// PipelineMetrics exposes counters/histograms for the message pipeline.
type PipelineMetrics struct {
	messagesTotal   *prometheus.CounterVec
	analysisLatency *prometheus.HistogramVec
	tokensTotal     *prometheus.CounterVec
	deliveriesTotal *prometheus.CounterVec
}

func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "pipeline",
			Name:      "messages_total",
			Help:      "Total messages processed",
		}, []string{"status", "priority"}),
		analysisLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "triage",
			Subsystem: "pipeline",
			Name:      "analysis_latency_seconds",
			Help:      "Latency of model analysis calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"model"}),
		tokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "pipeline",
			Name:      "tokens_total",
			Help:      "Total tokens consumed by analysis",
		}, []string{"model", "kind"}),
		deliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "pipeline",
			Name:      "deliveries_total",
			Help:      "Total webhook delivery attempts",
		}, []string{"destination", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.messagesTotal, m.analysisLatency, m.tokensTotal, m.deliveriesTotal)
	return m
}

func (m *PipelineMetrics) ObserveMessage(status, priority string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(status, priority).Inc()
}

func (m *PipelineMetrics) ObserveAnalysisLatency(model string, seconds float64) {
	if m == nil {
		return
	}
	m.analysisLatency.WithLabelValues(model).Observe(seconds)
}

func (m *PipelineMetrics) ObserveTokens(model string, prompt, completion int) {
	if m == nil {
		return
	}
	m.tokensTotal.WithLabelValues(model, "prompt").Add(float64(prompt))
	m.tokensTotal.WithLabelValues(model, "completion").Add(float64(completion))
}

func (m *PipelineMetrics) ObserveDelivery(destination string, success bool) {
	if m == nil {
		return
	}
	status := "failed"
	if success {
		status = "sent"
	}
	m.deliveriesTotal.WithLabelValues(destination, status).Inc()
}

package messaging

import "github.com/prometheus/client_golang/prometheus"

// processorMetrics counts the messages a StreamProcessor dispatches.
type processorMetrics struct {
	processed *prometheus.CounterVec
	failures  prometheus.Counter
}

func newProcessorMetrics(reg prometheus.Registerer) *processorMetrics {
	m := &processorMetrics{
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "singer",
			Subsystem: "processor",
			Name:      "messages_total",
			Help:      "Messages dispatched by the stream processor, by wire type.",
		}, []string{"type"}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "singer",
			Subsystem: "processor",
			Name:      "failures_total",
			Help:      "Decode, validation, and handler failures that aborted processing.",
		}),
	}
	reg.MustRegister(m.processed, m.failures)
	return m
}

func (m *processorMetrics) observeProcessed(messageType string) {
	if m == nil {
		return
	}
	m.processed.WithLabelValues(messageType).Inc()
}

func (m *processorMetrics) observeFailure() {
	if m == nil {
		return
	}
	m.failures.Inc()
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebhookMetrics exposes counters/histograms for the voice tool surface.
type WebhookMetrics struct {
	toolCallTotal  *prometheus.CounterVec
	toolLatency    *prometheus.HistogramVec
	dedupeHitTotal prometheus.Counter
}

func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	m := &WebhookMetrics{
		toolCallTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "receptionist",
			Subsystem: "webhook",
			Name:      "tool_call_total",
			Help:      "Total voice tool invocations",
		}, []string{"tool", "status"}),
		toolLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "receptionist",
			Subsystem: "webhook",
			Name:      "tool_latency_seconds",
			Help:      "Latency of voice tool processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		dedupeHitTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "receptionist",
			Subsystem: "webhook",
			Name:      "dedupe_hit_total",
			Help:      "Tool calls dropped because the call ID was already processed",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.toolCallTotal, m.toolLatency, m.dedupeHitTotal)
	return m
}

func (m *WebhookMetrics) ObserveToolCall(tool, status string) {
	if m == nil {
		return
	}
	m.toolCallTotal.WithLabelValues(tool, status).Inc()
}

func (m *WebhookMetrics) ObserveToolLatency(tool string, seconds float64) {
	if m == nil {
		return
	}
	m.toolLatency.WithLabelValues(tool).Observe(seconds)
}

func (m *WebhookMetrics) ObserveDedupeHit() {
	if m == nil {
		return
	}
	m.dedupeHitTotal.Inc()
}

// BookingMetrics counts booking-path outcomes.
type BookingMetrics struct {
	outcomeTotal *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		outcomeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "receptionist",
			Subsystem: "booking",
			Name:      "outcome_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.outcomeTotal)
	return m
}

func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.outcomeTotal.WithLabelValues(outcome).Inc()
}

// SweepMetrics counts notification sweep activity.
type SweepMetrics struct {
	sentTotal   *prometheus.CounterVec
	failedTotal *prometheus.CounterVec
	passTotal   prometheus.Counter
}

func NewSweepMetrics(reg prometheus.Registerer) *SweepMetrics {
	m := &SweepMetrics{
		sentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "receptionist",
			Subsystem: "sweep",
			Name:      "sent_total",
			Help:      "Notifications sent by kind",
		}, []string{"kind"}),
		failedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "receptionist",
			Subsystem: "sweep",
			Name:      "failed_total",
			Help:      "Notification sends that failed after the row was claimed",
		}, []string{"kind"}),
		passTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "receptionist",
			Subsystem: "sweep",
			Name:      "pass_total",
			Help:      "Completed sweep passes",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.sentTotal, m.failedTotal, m.passTotal)
	return m
}

func (m *SweepMetrics) ObserveSent(kind string) {
	if m == nil {
		return
	}
	m.sentTotal.WithLabelValues(kind).Inc()
}

func (m *SweepMetrics) ObserveSendFailed(kind string) {
	if m == nil {
		return
	}
	m.failedTotal.WithLabelValues(kind).Inc()
}

func (m *SweepMetrics) ObservePass() {
	if m == nil {
		return
	}
	m.passTotal.Inc()
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RealtimeMetrics tracks websocket hub activity.
type RealtimeMetrics struct {
	connections prometheus.Gauge
	published   *prometheus.CounterVec
	dropped     *prometheus.CounterVec
}

// NewRealtimeMetrics registers the hub metrics on the provided registerer.
func NewRealtimeMetrics(reg prometheus.Registerer) *RealtimeMetrics {
	if reg == nil {
		return &RealtimeMetrics{}
	}
	connections := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_connections",
		Help: "Currently open websocket connections.",
	})
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_events_published_total",
		Help: "Events delivered to at least one connection.",
	}, []string{"event"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_events_dropped_total",
		Help: "Events dropped because a connection's send buffer was full.",
	}, []string{"event"})
	reg.MustRegister(connections, published, dropped)
	return &RealtimeMetrics{
		connections: connections,
		published:   published,
		dropped:     dropped,
	}
}

// ConnOpened increments the live connection gauge.
func (m *RealtimeMetrics) ConnOpened() {
	if m == nil || m.connections == nil {
		return
	}
	m.connections.Inc()
}

// ConnClosed decrements the live connection gauge.
func (m *RealtimeMetrics) ConnClosed() {
	if m == nil || m.connections == nil {
		return
	}
	m.connections.Dec()
}

// IncPublished counts a delivered event.
func (m *RealtimeMetrics) IncPublished(event string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(event)).Inc()
}

// IncDropped counts an event discarded on a saturated connection.
func (m *RealtimeMetrics) IncDropped(event string) {
	if m == nil || m.dropped == nil {
		return
	}
	m.dropped.WithLabelValues(normalizeLabel(event)).Inc()
}

func normalizeLabel(event string) string {
	if event == "" {
		return "unknown"
	}
	return event
}

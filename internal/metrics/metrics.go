// Package metrics exposes the server's prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UnknownEvent is the event label for inbound names the server does not handle.
const UnknownEvent = "unknown"

// Metrics owns a private registry so tests can build as many as they like.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	connections   prometheus.Gauge
	events        *prometheus.CounterVec
	framesSent    prometheus.Counter
	framesDropped prometheus.Counter
	kicks         prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "studysync",
			Name:      "connections",
			Help:      "Live WebSocket connections.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studysync",
			Name:      "events_received_total",
			Help:      "Inbound events by name.",
		}, []string{"event"}),
		framesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studysync",
			Name:      "frames_sent_total",
			Help:      "Outbound frames enqueued to connections.",
		}),
		framesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studysync",
			Name:      "frames_dropped_total",
			Help:      "Outbound frames rejected by a full or closed queue.",
		}),
		kicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studysync",
			Name:      "backpressure_kicks_total",
			Help:      "Connections closed by the backpressure policy.",
		}),
	}
	reg.MustRegister(
		m.connections, m.events, m.framesSent, m.framesDropped, m.kicks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// WatchRooms exports the room count read from fn at scrape time.
func (m *Metrics) WatchRooms(fn func() int) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "studysync",
		Name:      "rooms",
		Help:      "Rooms held in memory. Rooms are never reclaimed.",
	}, func() float64 { return float64(fn()) }))
}

func (m *Metrics) ConnectionOpened() {
	if m != nil {
		m.connections.Inc()
	}
}

func (m *Metrics) ConnectionClosed() {
	if m != nil {
		m.connections.Dec()
	}
}

func (m *Metrics) EventReceived(event string) {
	if m != nil {
		m.events.WithLabelValues(event).Inc()
	}
}

func (m *Metrics) FramesPublished(sent, dropped int) {
	if m == nil {
		return
	}
	m.framesSent.Add(float64(sent))
	m.framesDropped.Add(float64(dropped))
}

func (m *Metrics) Kicked() {
	if m != nil {
		m.kicks.Inc()
	}
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

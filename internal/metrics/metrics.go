// Package metrics exposes relay counters to prometheus. A nil *Metrics is
// valid and records nothing.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "pulse"

type Metrics struct {
	onlineUsers    prometheus.Gauge
	channels       prometheus.Gauge
	relayed        *prometheus.CounterVec
	droppedSignals *prometheus.CounterVec
	backpressure   prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		onlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_users",
			Help:      "Users with a routable presence entry.",
		}),
		channels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_channels",
			Help:      "Open duplex connections, registered or anonymous.",
		}),
		relayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relayed_events_total",
			Help:      "Events forwarded by the relay and signaling broker.",
		}, []string{"event", "kind"}),
		droppedSignals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_signals_total",
			Help:      "Signaling payloads that were not forwarded.",
		}, []string{"reason", "kind"}),
		backpressure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backpressure_total",
			Help:      "Frames that hit a full send queue.",
		}),
	}
	reg.MustRegister(m.onlineUsers, m.channels, m.relayed, m.droppedSignals, m.backpressure)
	return m
}

func (m *Metrics) SetOnlineUsers(n int) {
	if m == nil {
		return
	}
	m.onlineUsers.Set(float64(n))
}

func (m *Metrics) ChannelOpened() {
	if m == nil {
		return
	}
	m.channels.Inc()
}

func (m *Metrics) ChannelClosed() {
	if m == nil {
		return
	}
	m.channels.Dec()
}

// Relayed counts a conversation event. Its kind label stays empty.
func (m *Metrics) Relayed(event string) {
	m.SignalRelayed(event, "")
}

// SignalRelayed counts a forwarded call-setup payload by its SDP kind.
func (m *Metrics) SignalRelayed(event, kind string) {
	if m == nil {
		return
	}
	m.relayed.WithLabelValues(event, kind).Inc()
}

func (m *Metrics) SignalDropped(reason, kind string) {
	if m == nil {
		return
	}
	m.droppedSignals.WithLabelValues(reason, kind).Inc()
}

func (m *Metrics) Backpressure() {
	if m == nil {
		return
	}
	m.backpressure.Inc()
}

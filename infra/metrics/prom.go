package metrics

import (
	coremetrics "github.com/meditrack/lifeline/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records core activity in Prometheus metrics.
type PromSink struct {
	events      *prometheus.CounterVec
	alerts      *prometheus.CounterVec
	active      prometheus.Gauge
	transitions *prometheus.CounterVec
	reconnects  prometheus.Counter
}

// NewPromSink registers the metrics on the default Prometheus registerer.
// The HTTP server is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global one.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lifeline_events_received_total",
			Help: "Inbound real-time events by kind",
		}, []string{"kind"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lifeline_alerts_created_total",
			Help: "Alerts created by severity",
		}, []string{"severity"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lifeline_alerts_active",
			Help: "Alerts currently held by the store",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lifeline_dispatch_transitions_total",
			Help: "Ambulance request status transitions",
		}, []string{"from", "to"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lifeline_transport_reconnects_total",
			Help: "Transport reconnection attempts",
		}),
	}

	for _, c := range []prometheus.Collector{s.events, s.alerts, s.active, s.transitions, s.reconnects} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return s, nil
}

// RecordEvent increments the inbound event counter.
func (s *PromSink) RecordEvent(kind string) error {
	s.events.WithLabelValues(kind).Inc()
	return nil
}

// RecordAlert increments the alert counter.
func (s *PromSink) RecordAlert(severity string) error {
	s.alerts.WithLabelValues(severity).Inc()
	return nil
}

// SetActiveAlerts sets the active alert gauge.
func (s *PromSink) SetActiveAlerts(n int) error {
	s.active.Set(float64(n))
	return nil
}

// RecordTransition increments the transition counter.
func (s *PromSink) RecordTransition(from, to string) error {
	s.transitions.WithLabelValues(from, to).Inc()
	return nil
}

// RecordReconnect increments the reconnect counter.
func (s *PromSink) RecordReconnect() error {
	s.reconnects.Inc()
	return nil
}

var _ coremetrics.Sink = (*PromSink)(nil)

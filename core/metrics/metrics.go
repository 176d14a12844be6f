package metrics

import "fmt"

// Sink records operational metrics of the real-time core. Implementations
// live in infra/metrics.
type Sink interface {
	// RecordEvent counts one inbound event of the given kind.
	RecordEvent(kind string) error
	// RecordAlert counts one alert created with the given severity.
	RecordAlert(severity string) error
	// SetActiveAlerts sets the current number of alerts held by the store.
	SetActiveAlerts(n int) error
	// RecordTransition counts one ambulance request status transition.
	RecordTransition(from, to string) error
	// RecordReconnect counts one transport reconnection attempt.
	RecordReconnect() error
}

// Config selects and parameterizes the metrics sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusAddr    string `json:"prometheus_addr"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.PrometheusAddr == "" {
		c.PrometheusAddr = ":9090"
	}
}

// Validate checks mandatory fields of enabled sinks.
func (c Config) Validate() error {
	if c.InfluxEnabled && c.InfluxURL == "" {
		return fmt.Errorf("influx_url is required when influx is enabled")
	}
	return nil
}

// NopSink discards all metrics.
type NopSink struct{}

func (NopSink) RecordEvent(string) error           { return nil }
func (NopSink) RecordAlert(string) error           { return nil }
func (NopSink) SetActiveAlerts(int) error          { return nil }
func (NopSink) RecordTransition(_, _ string) error { return nil }
func (NopSink) RecordReconnect() error             { return nil }

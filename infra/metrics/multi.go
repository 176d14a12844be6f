package metrics

import coremetrics "github.com/meditrack/lifeline/core/metrics"

// MultiSink fans every record out to several sinks, returning the first
// error encountered.
type MultiSink struct {
	sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordEvent(kind string) error {
	return m.each(func(s coremetrics.Sink) error { return s.RecordEvent(kind) })
}

func (m *MultiSink) RecordAlert(severity string) error {
	return m.each(func(s coremetrics.Sink) error { return s.RecordAlert(severity) })
}

func (m *MultiSink) SetActiveAlerts(n int) error {
	return m.each(func(s coremetrics.Sink) error { return s.SetActiveAlerts(n) })
}

func (m *MultiSink) RecordTransition(from, to string) error {
	return m.each(func(s coremetrics.Sink) error { return s.RecordTransition(from, to) })
}

func (m *MultiSink) RecordReconnect() error {
	return m.each(func(s coremetrics.Sink) error { return s.RecordReconnect() })
}

func (m *MultiSink) each(fn func(coremetrics.Sink) error) error {
	var first error
	for _, s := range m.sinks {
		if err := fn(s); err != nil && first == nil {
			first = err
		}
	}
	return first
}

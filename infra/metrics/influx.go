package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/meditrack/lifeline/core/metrics"
	"github.com/meditrack/lifeline/infra/logger"
)

// InfluxSink writes core activity to an InfluxDB instance using the official
// client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails, so a missing backend never blocks the core.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordEvent writes one inbound event point.
func (s *InfluxSink) RecordEvent(kind string) error {
	p := write.NewPointWithMeasurement("event_received").
		AddTag("kind", kind).
		AddField("count", 1).
		SetTime(time.Now())
	return s.write(p)
}

// RecordAlert writes one alert creation point.
func (s *InfluxSink) RecordAlert(severity string) error {
	p := write.NewPointWithMeasurement("alert_created").
		AddTag("severity", severity).
		AddField("count", 1).
		SetTime(time.Now())
	return s.write(p)
}

// SetActiveAlerts writes the current alert census.
func (s *InfluxSink) SetActiveAlerts(n int) error {
	p := write.NewPointWithMeasurement("alerts_active").
		AddField("count", n).
		SetTime(time.Now())
	return s.write(p)
}

// RecordTransition writes one request transition point.
func (s *InfluxSink) RecordTransition(from, to string) error {
	p := write.NewPointWithMeasurement("dispatch_transition").
		AddTag("from", from).
		AddTag("to", to).
		AddField("count", 1).
		SetTime(time.Now())
	return s.write(p)
}

// RecordReconnect writes one reconnect attempt point.
func (s *InfluxSink) RecordReconnect() error {
	p := write.NewPointWithMeasurement("transport_reconnect").
		AddField("count", 1).
		SetTime(time.Now())
	return s.write(p)
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() { s.client.Close() }

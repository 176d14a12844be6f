package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/meditrack/lifeline/api/status"
	"github.com/meditrack/lifeline/config"
	"github.com/meditrack/lifeline/core/alerts"
	"github.com/meditrack/lifeline/core/connection"
	"github.com/meditrack/lifeline/core/dispatch"
	"github.com/meditrack/lifeline/core/events"
	coremetrics "github.com/meditrack/lifeline/core/metrics"
	"github.com/meditrack/lifeline/core/model"
	"github.com/meditrack/lifeline/core/rooms"
	"github.com/meditrack/lifeline/infra/logger"
	"github.com/meditrack/lifeline/infra/metrics"
	"github.com/meditrack/lifeline/infra/mqtt"
	"github.com/meditrack/lifeline/infra/snapshot"
)

// Service assembles the real-time core: one connection manager, one room
// registry, one alert store and one dispatch manager, all communicating
// through the event dispatcher.
type Service struct {
	cfg *config.Config
	log logger.Logger

	Dispatcher *events.Dispatcher
	Connection *connection.Manager
	Rooms      *rooms.Registry
	Alerts     *alerts.Store
	Dispatch   *dispatch.Manager
	sink       coremetrics.Sink
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket))
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	transport, err := mqtt.New(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}

	dispatcher := events.NewDispatcher(logger.New("dispatcher"))
	conn := connection.NewManager(transport, dispatcher, logger.New("connection"), sink)
	registry := rooms.NewRegistry(conn, logger.New("rooms"))
	conn.OnConnect(func(resumed bool) {
		if resumed {
			registry.Replay()
		}
	})

	store := alerts.NewStore(time.Duration(cfg.Alerts.DwellSeconds)*time.Second, logger.New("alerts"), sink)
	store.Attach(dispatcher)

	mgr, err := dispatch.NewManager(cfg.Dispatch, logger.New("dispatch"), sink)
	if err != nil {
		return nil, err
	}

	return &Service{
		cfg:        cfg,
		log:        logg,
		Dispatcher: dispatcher,
		Connection: conn,
		Rooms:      registry,
		Alerts:     store,
		Dispatch:   mgr,
		sink:       sink,
	}, nil
}

// Run connects, seeds the fleet, joins the configured rooms and blocks until
// the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	identity := model.Identity{UserID: s.cfg.Identity.UserID, UserRole: s.cfg.Identity.UserRole}
	if err := s.Connection.Connect(ctx, identity); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	if s.cfg.Snapshot.BaseURL != "" {
		s.seedSnapshot(ctx)
	}

	for _, id := range s.cfg.Rooms.Patients {
		s.Rooms.JoinPatientMonitoring(id)
	}
	for _, id := range s.cfg.Rooms.Hospitals {
		s.Rooms.JoinHospitalUpdates(id)
	}
	if s.cfg.Rooms.TriageQueue {
		s.Rooms.JoinTriageQueue()
	}

	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.cfg.API.Enabled {
		go s.serveAPI(ctx)
	}
	go s.logDispatchUpdates()

	<-ctx.Done()
	s.Connection.Disconnect()
	return nil
}

func (s *Service) seedSnapshot(ctx context.Context) {
	client := snapshot.NewClient(s.cfg.Snapshot)
	fleet, err := client.Fleet(ctx)
	if err != nil {
		s.log.Warnf("fleet snapshot unavailable: %v", err)
		return
	}
	if err := s.Dispatch.SeedFleet(fleet); err != nil {
		s.log.Warnf("seed fleet: %v", err)
		return
	}
	s.log.Infof("seeded %d fleet units", len(fleet))

	open, err := client.OpenRequests(ctx)
	if err != nil {
		s.log.Warnf("open requests snapshot unavailable: %v", err)
		return
	}
	if err := s.Dispatch.SeedRequests(open); err != nil {
		s.log.Warnf("seed open requests: %v", err)
		return
	}
	s.log.Infof("restored %d open requests", len(open))
}

func (s *Service) serveAPI(ctx context.Context) {
	handler := status.NewHandler(s.Alerts, s.Dispatch, s.Connection)
	srv := &http.Server{Addr: s.cfg.API.Addr, Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Errorf("api server: %v", err)
	}
}

func (s *Service) logDispatchUpdates() {
	updates := s.Dispatch.Updates()
	for r := range updates {
		s.log.Debugw("request update", map[string]any{
			"request_id": r.ID,
			"status":     r.Status.String(),
			"eta_min":    r.ETAMinutes,
		})
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.Dispatch.Close()
	s.Connection.Disconnect()
	return nil
}

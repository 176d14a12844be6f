package alerts

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meditrack/lifeline/core/events"
	"github.com/meditrack/lifeline/core/logger"
	"github.com/meditrack/lifeline/core/metrics"
	"github.com/meditrack/lifeline/core/model"
)

// DefaultDwell is how long info and success alerts stay before automatic
// removal.
const DefaultDwell = 10 * time.Second

// Store holds the in-memory set of user-facing alerts, newest first. It owns
// its alerts exclusively; consumers receive copies.
type Store struct {
	mu     sync.Mutex
	alerts []*model.Alert
	timers map[string]*time.Timer
	dwell  time.Duration
	log    logger.Logger
	sink   metrics.Sink
}

// NewStore creates a Store with the given dwell interval for transient
// alerts. A non-positive dwell falls back to DefaultDwell; a nil sink
// defaults to metrics.NopSink.
func NewStore(dwell time.Duration, log logger.Logger, sink metrics.Sink) *Store {
	if dwell <= 0 {
		dwell = DefaultDwell
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Store{
		timers: make(map[string]*time.Timer),
		dwell:  dwell,
		log:    log,
		sink:   sink,
	}
}

// Attach subscribes the store to every alert-producing event kind.
func (s *Store) Attach(d *events.Dispatcher) {
	for _, kind := range []model.EventKind{
		model.EventPatientAlert,
		model.EventRiskUpdated,
		model.EventTriageUpdated,
		model.EventHospitalAlert,
		model.EventStaffAvailabilityChanged,
		model.EventBedStatusChanged,
	} {
		d.On(kind, s.handleEvent)
	}
}

func (s *Store) handleEvent(ev model.Event) {
	alert, ok := FromEvent(ev)
	if !ok {
		return
	}
	s.Add(alert)
}

// Add inserts the alert at the head of the sequence with a fresh id and
// timestamp, unread. Transient severities are scheduled for automatic
// removal after the dwell interval. Returns the assigned id.
func (s *Store) Add(a model.Alert) string {
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()
	a.Read = false

	s.mu.Lock()
	s.alerts = append([]*model.Alert{&a}, s.alerts...)
	if a.Severity.Transient() {
		id := a.ID
		s.timers[id] = time.AfterFunc(s.dwell, func() { s.Remove(id) })
	}
	active := len(s.alerts)
	s.mu.Unlock()

	s.log.Debugf("alert %s added (%s)", a.ID, a.Severity)
	s.record(a.Severity, active)
	return a.ID
}

func (s *Store) record(sev model.Severity, active int) {
	if err := s.sink.RecordAlert(sev.String()); err != nil {
		s.log.Warnf("record alert: %v", err)
	}
	if err := s.sink.SetActiveAlerts(active); err != nil {
		s.log.Warnf("record active alerts: %v", err)
	}
}

// Remove deletes the alert with the given id. Unknown ids are a no-op, so a
// dwell timer firing after a manual removal is harmless.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	s.stopTimerLocked(id)
	removed := false
	for i, a := range s.alerts {
		if a.ID == id {
			s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
			removed = true
			break
		}
	}
	active := len(s.alerts)
	s.mu.Unlock()

	if removed {
		if err := s.sink.SetActiveAlerts(active); err != nil {
			s.log.Warnf("record active alerts: %v", err)
		}
	}
}

// MarkAsRead flips the alert's read flag. Idempotent; unknown ids are a
// no-op.
func (s *Store) MarkAsRead(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.alerts {
		if a.ID == id {
			a.Read = true
			return
		}
	}
}

// ClearAll empties the store and cancels pending dwell timers.
func (s *Store) ClearAll() {
	s.mu.Lock()
	for id := range s.timers {
		s.stopTimerLocked(id)
	}
	s.alerts = nil
	s.mu.Unlock()

	if err := s.sink.SetActiveAlerts(0); err != nil {
		s.log.Warnf("record active alerts: %v", err)
	}
}

// Alerts returns a snapshot of the alerts, newest first.
func (s *Store) Alerts() []model.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Alert, len(s.alerts))
	for i, a := range s.alerts {
		out[i] = *a
	}
	return out
}

// UnreadCount recomputes the number of unread alerts. It is always derived
// from the live set, never a counter of its own.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.alerts {
		if !a.Read {
			n++
		}
	}
	return n
}

func (s *Store) stopTimerLocked(id string) {
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

package dispatch

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meditrack/lifeline/core/logger"
	"github.com/meditrack/lifeline/core/metrics"
	"github.com/meditrack/lifeline/core/model"
	"github.com/meditrack/lifeline/internal/eventbus"
)

// RequestDetails carries the user-supplied fields of a new transport task.
type RequestDetails struct {
	PatientID      string
	PatientName    string
	Priority       model.Priority
	PickupLocation string
	Destination    string
	Notes          string
}

// Manager owns the ambulance fleet and the request lifecycle
// Pending -> Accepted -> EnRoute -> Arrived -> Completed, with Cancelled
// reachable from Pending and Accepted. It runs its own countdown timer,
// started on construction and stopped by Close, so no UI surface has to keep
// it alive. All mutations hold one lock: a tick never observes a
// half-applied transition.
type Manager struct {
	mu       sync.Mutex
	requests map[string]*model.AmbulanceRequest
	order    []string
	fleet    map[string]*model.Ambulance
	cfg      Config
	rng      *rand.Rand
	log      logger.Logger
	sink     metrics.Sink
	bus      *eventbus.TypedBus[model.AmbulanceRequest]

	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a Manager and starts its countdown timer. A nil sink
// defaults to metrics.NopSink.
func NewManager(cfg Config, log logger.Logger, sink metrics.Sink) (*Manager, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("dispatch config: %w", err)
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	m := &Manager{
		requests: make(map[string]*model.AmbulanceRequest),
		fleet:    make(map[string]*model.Ambulance),
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		log:      log,
		sink:     sink,
		bus:      eventbus.NewTyped[model.AmbulanceRequest](),
		stop:     make(chan struct{}),
	}
	go m.run()
	return m, nil
}

func (m *Manager) run() {
	ticker := time.NewTicker(time.Duration(m.cfg.TickSeconds) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Tick()
		case <-m.stop:
			return
		}
	}
}

// Close stops the countdown timer and the update bus. Safe to call more than
// once.
func (m *Manager) Close() {
	m.stopOnce.Do(func() {
		close(m.stop)
		m.bus.Close()
	})
}

// Updates returns a channel receiving a copy of every request after each
// mutation, including tick-driven ones.
func (m *Manager) Updates() <-chan model.AmbulanceRequest {
	return m.bus.Subscribe()
}

// SeedFleet registers fleet units, replacing units with the same id.
func (m *Manager) SeedFleet(units []model.Ambulance) error {
	for _, a := range units {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range units {
		u := a
		m.fleet[u.ID] = &u
	}
	return nil
}

// SeedRequests loads requests that already existed before startup, typically
// from the backend snapshot. Requests with the same id are replaced. Vehicle
// bindings of non-terminal requests are restored on the fleet so a restart
// does not free a vehicle that is still on a run.
func (m *Manager) SeedRequests(reqs []model.AmbulanceRequest) error {
	for _, r := range reqs {
		if r.ID == "" {
			return fmt.Errorf("request id is required")
		}
		if r.Status < model.StatusPending || r.Status > model.StatusCancelled {
			return fmt.Errorf("request %s: unknown status %d", r.ID, r.Status)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range reqs {
		req := r
		if _, ok := m.requests[req.ID]; !ok {
			m.order = append(m.order, req.ID)
		}
		m.requests[req.ID] = &req
		if req.Status.Terminal() || req.AssignedVehicleID == "" {
			continue
		}
		if v, ok := m.fleet[req.AssignedVehicleID]; ok {
			if req.Status == model.StatusArrived {
				v.Status = model.VehicleBusy
			} else {
				v.Status = model.VehicleOnRoute
			}
		}
	}
	return nil
}

// RequestAmbulance creates a new request in Pending.
func (m *Manager) RequestAmbulance(d RequestDetails) (model.AmbulanceRequest, error) {
	if d.PatientID == "" {
		return model.AmbulanceRequest{}, fmt.Errorf("patient id is required")
	}
	if d.PickupLocation == "" {
		return model.AmbulanceRequest{}, fmt.Errorf("pickup location is required")
	}
	r := &model.AmbulanceRequest{
		ID:             uuid.NewString(),
		PatientID:      d.PatientID,
		PatientName:    d.PatientName,
		Priority:       d.Priority,
		Status:         model.StatusPending,
		PickupLocation: d.PickupLocation,
		Destination:    d.Destination,
		RequestedAt:    time.Now(),
		Notes:          d.Notes,
	}
	m.mu.Lock()
	m.requests[r.ID] = r
	m.order = append(m.order, r.ID)
	snapshot := *r
	m.mu.Unlock()

	m.log.Infof("ambulance requested for patient %s (%s)", d.PatientID, d.Priority)
	m.bus.Publish(snapshot)
	return snapshot, nil
}

// AcceptRequest binds an available vehicle to a Pending request and marks the
// vehicle OnRoute. Any other starting status is rejected and leaves both the
// request and the vehicle untouched.
func (m *Manager) AcceptRequest(requestID, vehicleID string) error {
	m.mu.Lock()
	r, ok := m.requests[requestID]
	if !ok {
		m.mu.Unlock()
		return ErrUnknownRequest
	}
	if r.Status != model.StatusPending {
		m.mu.Unlock()
		return fmt.Errorf("%w: accept from %s", ErrInvalidTransition, r.Status)
	}
	v, ok := m.fleet[vehicleID]
	if !ok {
		m.mu.Unlock()
		return ErrUnknownVehicle
	}
	if v.Status != model.VehicleAvailable {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", ErrVehicleUnavailable, vehicleID, v.Status)
	}
	m.transitionLocked(r, model.StatusAccepted)
	r.AssignedVehicleID = v.ID
	r.DriverName = v.DriverName
	r.DriverContact = v.DriverContact
	v.Status = model.VehicleOnRoute
	snapshot := *r
	m.mu.Unlock()

	m.log.Infof("request %s accepted, vehicle %s on route", requestID, vehicleID)
	m.bus.Publish(snapshot)
	return nil
}

// MarkEnRoute moves an Accepted request to EnRoute, drawing an initial ETA in
// the configured range and a starting location label.
func (m *Manager) MarkEnRoute(requestID string) error {
	m.mu.Lock()
	r, ok := m.requests[requestID]
	if !ok {
		m.mu.Unlock()
		return ErrUnknownRequest
	}
	if r.Status != model.StatusAccepted {
		m.mu.Unlock()
		return fmt.Errorf("%w: en route from %s", ErrInvalidTransition, r.Status)
	}
	m.transitionLocked(r, model.StatusEnRoute)
	span := m.cfg.ETAMaxMinutes - m.cfg.ETAMinMinutes + 1
	r.ETAMinutes = m.cfg.ETAMinMinutes + m.rng.Intn(span)
	r.CurrentLocationLabel = "Departing " + r.PickupLocation
	snapshot := *r
	m.mu.Unlock()

	m.log.Infof("request %s en route, eta %d min", requestID, snapshot.ETAMinutes)
	m.bus.Publish(snapshot)
	return nil
}

// CompleteRequest finishes an Arrived request and releases its vehicle.
func (m *Manager) CompleteRequest(requestID string) error {
	m.mu.Lock()
	r, ok := m.requests[requestID]
	if !ok {
		m.mu.Unlock()
		return ErrUnknownRequest
	}
	if r.Status != model.StatusArrived {
		m.mu.Unlock()
		return fmt.Errorf("%w: complete from %s", ErrInvalidTransition, r.Status)
	}
	m.transitionLocked(r, model.StatusCompleted)
	m.releaseVehicleLocked(r)
	snapshot := *r
	m.mu.Unlock()

	m.log.Infof("request %s completed", requestID)
	m.bus.Publish(snapshot)
	return nil
}

// CancelRequest cancels a Pending or Accepted request, releasing an assigned
// vehicle. Cancelling from any later status is rejected.
func (m *Manager) CancelRequest(requestID string) error {
	m.mu.Lock()
	r, ok := m.requests[requestID]
	if !ok {
		m.mu.Unlock()
		return ErrUnknownRequest
	}
	if r.Status != model.StatusPending && r.Status != model.StatusAccepted {
		m.mu.Unlock()
		return fmt.Errorf("%w: cancel from %s", ErrInvalidTransition, r.Status)
	}
	m.transitionLocked(r, model.StatusCancelled)
	m.releaseVehicleLocked(r)
	snapshot := *r
	m.mu.Unlock()

	m.log.Infof("request %s cancelled", requestID)
	m.bus.Publish(snapshot)
	return nil
}

// UpdateStatus applies one explicit single-step status change. It covers the
// transitions a UI surface drives directly; creation and acceptance have
// their own entry points.
func (m *Manager) UpdateStatus(requestID string, status model.RequestStatus) error {
	switch status {
	case model.StatusEnRoute:
		return m.MarkEnRoute(requestID)
	case model.StatusArrived:
		return m.markArrived(requestID)
	case model.StatusCompleted:
		return m.CompleteRequest(requestID)
	case model.StatusCancelled:
		return m.CancelRequest(requestID)
	default:
		return fmt.Errorf("%w: explicit update to %s", ErrInvalidTransition, status)
	}
}

func (m *Manager) markArrived(requestID string) error {
	m.mu.Lock()
	r, ok := m.requests[requestID]
	if !ok {
		m.mu.Unlock()
		return ErrUnknownRequest
	}
	if r.Status != model.StatusEnRoute {
		m.mu.Unlock()
		return fmt.Errorf("%w: arrive from %s", ErrInvalidTransition, r.Status)
	}
	m.arriveLocked(r)
	snapshot := *r
	m.mu.Unlock()
	m.bus.Publish(snapshot)
	return nil
}

// Tick advances the ETA simulation by one period. EnRoute requests with a
// positive ETA lose one minute and get a fresh location label. A request
// whose ETA already reached zero arrives on this tick, one period after the
// countdown ended. Everything else is untouched.
func (m *Manager) Tick() {
	m.mu.Lock()
	var updated []model.AmbulanceRequest
	for _, id := range m.order {
		r := m.requests[id]
		if r.Status != model.StatusEnRoute {
			continue
		}
		if r.ETAMinutes == 0 {
			m.arriveLocked(r)
		} else {
			r.ETAMinutes--
			r.CurrentLocationLabel = fmt.Sprintf("Moving toward %s, %d min out", r.Destination, r.ETAMinutes)
		}
		updated = append(updated, *r)
	}
	m.mu.Unlock()

	for _, snapshot := range updated {
		m.bus.Publish(snapshot)
	}
}

// arriveLocked transitions an EnRoute request to Arrived and parks its
// vehicle at the scene.
func (m *Manager) arriveLocked(r *model.AmbulanceRequest) {
	m.transitionLocked(r, model.StatusArrived)
	r.CurrentLocationLabel = "Arrived at " + r.Destination
	if v, ok := m.fleet[r.AssignedVehicleID]; ok {
		v.Status = model.VehicleBusy
	}
	m.log.Infof("request %s arrived at %s", r.ID, r.Destination)
}

func (m *Manager) releaseVehicleLocked(r *model.AmbulanceRequest) {
	if v, ok := m.fleet[r.AssignedVehicleID]; ok {
		v.Status = model.VehicleAvailable
	}
}

func (m *Manager) transitionLocked(r *model.AmbulanceRequest, to model.RequestStatus) {
	from := r.Status
	r.Status = to
	if err := m.sink.RecordTransition(from.String(), to.String()); err != nil {
		m.log.Warnf("record transition: %v", err)
	}
}

// Request returns a copy of one request.
func (m *Manager) Request(id string) (model.AmbulanceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return model.AmbulanceRequest{}, ErrUnknownRequest
	}
	return *r, nil
}

// Requests returns copies of all requests in creation order.
func (m *Manager) Requests() []model.AmbulanceRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.AmbulanceRequest, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.requests[id])
	}
	return out
}

// Ambulance returns a copy of one fleet unit.
func (m *Manager) Ambulance(id string) (model.Ambulance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.fleet[id]
	if !ok {
		return model.Ambulance{}, ErrUnknownVehicle
	}
	return *v, nil
}

// Ambulances returns copies of the fleet.
func (m *Manager) Ambulances() []model.Ambulance {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Ambulance, 0, len(m.fleet))
	for _, v := range m.fleet {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

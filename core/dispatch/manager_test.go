package dispatch

import (
	"errors"
	"testing"

	"github.com/meditrack/lifeline/core/model"
	"github.com/meditrack/lifeline/infra/logger"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{}, logger.NopLogger{}, nil)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	t.Cleanup(m.Close)
	if err := m.SeedFleet([]model.Ambulance{
		{ID: "V-01", VehicleNumber: "AMB-001", DriverName: "K. Osei", DriverContact: "555-0101", EquipmentLevel: "ALS"},
		{ID: "V-02", VehicleNumber: "AMB-002", DriverName: "M. Laurent", DriverContact: "555-0102", EquipmentLevel: "BLS"},
	}); err != nil {
		t.Fatalf("seed fleet: %v", err)
	}
	return m
}

func mustRequest(t *testing.T, m *Manager, d RequestDetails) model.AmbulanceRequest {
	t.Helper()
	r, err := m.RequestAmbulance(d)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return r
}

func TestManager_FullLifecycle(t *testing.T) {
	m := newTestManager(t)
	r := mustRequest(t, m, RequestDetails{
		PatientID:      "P1",
		PatientName:    "Ada Brook",
		Priority:       model.PriorityCritical,
		PickupLocation: "Ward 3",
		Destination:    "St. Mary ER",
	})
	if r.Status != model.StatusPending {
		t.Fatalf("new request status = %s", r.Status)
	}

	if err := m.AcceptRequest(r.ID, "V-01"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	got, _ := m.Request(r.ID)
	if got.Status != model.StatusAccepted || got.AssignedVehicleID != "V-01" {
		t.Fatalf("after accept: %+v", got)
	}
	if got.DriverName != "K. Osei" || got.DriverContact != "555-0101" {
		t.Fatalf("driver identity not copied: %q %q", got.DriverName, got.DriverContact)
	}
	v, _ := m.Ambulance("V-01")
	if v.Status != model.VehicleOnRoute {
		t.Fatalf("vehicle status = %s, want OnRoute", v.Status)
	}

	if err := m.MarkEnRoute(r.ID); err != nil {
		t.Fatalf("en route: %v", err)
	}
	got, _ = m.Request(r.ID)
	if got.ETAMinutes < 10 || got.ETAMinutes > 40 {
		t.Fatalf("eta %d outside [10,40]", got.ETAMinutes)
	}
	if got.CurrentLocationLabel == "" {
		t.Fatalf("no starting location label")
	}

	// Cancel is only allowed from Pending or Accepted.
	if err := m.CancelRequest(r.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancel from EnRoute: %v", err)
	}
}

func TestManager_TickCountdownAndLaggedArrival(t *testing.T) {
	m := newTestManager(t)
	r := mustRequest(t, m, RequestDetails{PatientID: "P1", PickupLocation: "Ward 1", Destination: "ICU"})
	if err := m.AcceptRequest(r.ID, "V-01"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := m.MarkEnRoute(r.ID); err != nil {
		t.Fatalf("en route: %v", err)
	}

	// Drive the countdown to one minute, then verify the one-tick lag:
	// the tick that reaches zero does not arrive, the next does.
	for {
		got, _ := m.Request(r.ID)
		if got.ETAMinutes == 1 {
			break
		}
		m.Tick()
	}
	m.Tick()
	got, _ := m.Request(r.ID)
	if got.ETAMinutes != 0 || got.Status != model.StatusEnRoute {
		t.Fatalf("after zero tick: eta=%d status=%s", got.ETAMinutes, got.Status)
	}
	m.Tick()
	got, _ = m.Request(r.ID)
	if got.Status != model.StatusArrived {
		t.Fatalf("after next tick: status=%s, want Arrived", got.Status)
	}
	v, _ := m.Ambulance("V-01")
	if v.Status != model.VehicleBusy {
		t.Fatalf("vehicle at scene = %s, want Busy", v.Status)
	}

	if err := m.CompleteRequest(r.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	v, _ = m.Ambulance("V-01")
	if v.Status != model.VehicleAvailable {
		t.Fatalf("vehicle after completion = %s, want Available", v.Status)
	}
}

func TestManager_CancelAfterArrivalRejected(t *testing.T) {
	m := newTestManager(t)
	r := mustRequest(t, m, RequestDetails{PatientID: "P1", PickupLocation: "Ward 1", Destination: "ICU"})
	if err := m.AcceptRequest(r.ID, "V-01"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := m.MarkEnRoute(r.ID); err != nil {
		t.Fatalf("en route: %v", err)
	}
	if err := m.UpdateStatus(r.ID, model.StatusArrived); err != nil {
		t.Fatalf("arrive: %v", err)
	}

	if err := m.CancelRequest(r.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancel from Arrived: %v", err)
	}
	got, _ := m.Request(r.ID)
	if got.Status != model.StatusArrived {
		t.Fatalf("status after rejected cancel: %s", got.Status)
	}
	v, _ := m.Ambulance("V-01")
	if v.Status != model.VehicleBusy {
		t.Fatalf("vehicle released by rejected cancel: %s", v.Status)
	}
}

func TestManager_SeedRequestsRestoresState(t *testing.T) {
	m := newTestManager(t)
	err := m.SeedRequests([]model.AmbulanceRequest{
		{ID: "R-1", PatientID: "P1", Status: model.StatusEnRoute, AssignedVehicleID: "V-01", ETAMinutes: 3, Destination: "ICU"},
		{ID: "R-2", PatientID: "P2", Status: model.StatusArrived, AssignedVehicleID: "V-02", Destination: "ER"},
		{ID: "R-3", PatientID: "P3", Status: model.StatusCancelled, AssignedVehicleID: "V-01"},
	})
	if err != nil {
		t.Fatalf("seed requests: %v", err)
	}

	// Non-terminal bindings are restored; the terminal one is ignored.
	v, _ := m.Ambulance("V-01")
	if v.Status != model.VehicleOnRoute {
		t.Fatalf("en-route vehicle = %s, want OnRoute", v.Status)
	}
	v, _ = m.Ambulance("V-02")
	if v.Status != model.VehicleBusy {
		t.Fatalf("arrived vehicle = %s, want Busy", v.Status)
	}

	// The restored lifecycle keeps running: countdown, arrival, completion.
	m.Tick()
	got, _ := m.Request("R-1")
	if got.ETAMinutes != 2 || got.Status != model.StatusEnRoute {
		t.Fatalf("restored request not ticking: %+v", got)
	}
	if err := m.CompleteRequest("R-2"); err != nil {
		t.Fatalf("complete restored request: %v", err)
	}
	v, _ = m.Ambulance("V-02")
	if v.Status != model.VehicleAvailable {
		t.Fatalf("vehicle after completion = %s, want Available", v.Status)
	}
}

func TestManager_SeedRequestsValidation(t *testing.T) {
	m := newTestManager(t)
	if err := m.SeedRequests([]model.AmbulanceRequest{{PatientID: "P1"}}); err == nil {
		t.Fatalf("missing id accepted")
	}
	if err := m.SeedRequests([]model.AmbulanceRequest{{ID: "R-1", Status: model.RequestStatus(99)}}); err == nil {
		t.Fatalf("unknown status accepted")
	}
	if len(m.Requests()) != 0 {
		t.Fatalf("invalid batch partially applied")
	}
}

func TestManager_TickIgnoresPendingRequests(t *testing.T) {
	m := newTestManager(t)
	r := mustRequest(t, m, RequestDetails{PatientID: "P1", PickupLocation: "Ward 1"})
	m.Tick()
	got, _ := m.Request(r.ID)
	if got.Status != model.StatusPending || got.ETAMinutes != 0 {
		t.Fatalf("tick touched pending request: %+v", got)
	}
}

func TestManager_InvalidTransitionsRejected(t *testing.T) {
	m := newTestManager(t)
	r := mustRequest(t, m, RequestDetails{PatientID: "P1", PickupLocation: "Ward 1"})

	// Pending cannot jump ahead.
	if err := m.UpdateStatus(r.ID, model.StatusArrived); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending->arrived: %v", err)
	}
	if err := m.CompleteRequest(r.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending->completed: %v", err)
	}
	if err := m.MarkEnRoute(r.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending->enroute: %v", err)
	}

	if err := m.CancelRequest(r.ID); err != nil {
		t.Fatalf("cancel pending: %v", err)
	}
	// Terminal state is never overwritten and the vehicle is untouched.
	if err := m.AcceptRequest(r.ID, "V-02"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("accept cancelled: %v", err)
	}
	v, _ := m.Ambulance("V-02")
	if v.Status != model.VehicleAvailable {
		t.Fatalf("vehicle touched by rejected accept: %s", v.Status)
	}
	got, _ := m.Request(r.ID)
	if got.Status != model.StatusCancelled {
		t.Fatalf("terminal state overwritten: %s", got.Status)
	}
}

func TestManager_DoubleAcceptRejected(t *testing.T) {
	m := newTestManager(t)
	r := mustRequest(t, m, RequestDetails{PatientID: "P1", PickupLocation: "Ward 1"})
	if err := m.AcceptRequest(r.ID, "V-01"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := m.AcceptRequest(r.ID, "V-02"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("double accept: %v", err)
	}
	v, _ := m.Ambulance("V-02")
	if v.Status != model.VehicleAvailable {
		t.Fatalf("second vehicle touched: %s", v.Status)
	}
}

func TestManager_AcceptBusyVehicleRejected(t *testing.T) {
	m := newTestManager(t)
	r1 := mustRequest(t, m, RequestDetails{PatientID: "P1", PickupLocation: "Ward 1"})
	r2 := mustRequest(t, m, RequestDetails{PatientID: "P2", PickupLocation: "Ward 2"})
	if err := m.AcceptRequest(r1.ID, "V-01"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := m.AcceptRequest(r2.ID, "V-01"); !errors.Is(err, ErrVehicleUnavailable) {
		t.Fatalf("accept with on-route vehicle: %v", err)
	}
}

func TestManager_CancelReleasesVehicle(t *testing.T) {
	m := newTestManager(t)
	r := mustRequest(t, m, RequestDetails{PatientID: "P1", PickupLocation: "Ward 1"})
	if err := m.AcceptRequest(r.ID, "V-01"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := m.CancelRequest(r.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	v, _ := m.Ambulance("V-01")
	if v.Status != model.VehicleAvailable {
		t.Fatalf("vehicle not released: %s", v.Status)
	}
}

func TestManager_UnknownIDs(t *testing.T) {
	m := newTestManager(t)
	if err := m.AcceptRequest("nope", "V-01"); !errors.Is(err, ErrUnknownRequest) {
		t.Fatalf("unknown request: %v", err)
	}
	r := mustRequest(t, m, RequestDetails{PatientID: "P1", PickupLocation: "Ward 1"})
	if err := m.AcceptRequest(r.ID, "nope"); !errors.Is(err, ErrUnknownVehicle) {
		t.Fatalf("unknown vehicle: %v", err)
	}
}

func TestManager_RequestValidation(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.RequestAmbulance(RequestDetails{PickupLocation: "Ward 1"}); err == nil {
		t.Fatalf("missing patient id accepted")
	}
	if _, err := m.RequestAmbulance(RequestDetails{PatientID: "P1"}); err == nil {
		t.Fatalf("missing pickup accepted")
	}
}

func TestManager_UpdatesBus(t *testing.T) {
	m := newTestManager(t)
	ch := m.Updates()
	r := mustRequest(t, m, RequestDetails{PatientID: "P1", PickupLocation: "Ward 1"})
	got := <-ch
	if got.ID != r.ID || got.Status != model.StatusPending {
		t.Fatalf("unexpected update: %+v", got)
	}
	if err := m.AcceptRequest(r.ID, "V-01"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	got = <-ch
	if got.Status != model.StatusAccepted {
		t.Fatalf("expected accepted update, got %s", got.Status)
	}
}

func TestManager_RequestsOrdered(t *testing.T) {
	m := newTestManager(t)
	a := mustRequest(t, m, RequestDetails{PatientID: "P1", PickupLocation: "Ward 1"})
	b := mustRequest(t, m, RequestDetails{PatientID: "P2", PickupLocation: "Ward 2"})
	list := m.Requests()
	if len(list) != 2 || list[0].ID != a.ID || list[1].ID != b.ID {
		t.Fatalf("requests out of creation order")
	}
}

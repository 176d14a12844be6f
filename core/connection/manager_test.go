package connection

import (
	"context"
	"errors"
	"testing"

	"github.com/meditrack/lifeline/core/events"
	"github.com/meditrack/lifeline/core/model"
	"github.com/meditrack/lifeline/infra/logger"
)

type fakeTransport struct {
	listener  Listener
	connected bool
	connects  int
	connErr   error
	joins     []string
	leaves    []string
}

func (f *fakeTransport) Connect(_ context.Context, _ model.Identity) error {
	f.connects++
	if f.connErr != nil {
		return f.connErr
	}
	f.connected = true
	f.listener.OnConnected(false)
	return nil
}

func (f *fakeTransport) Disconnect()             { f.connected = false }
func (f *fakeTransport) IsConnected() bool       { return f.connected }
func (f *fakeTransport) SetListener(l Listener)  { f.listener = l }
func (f *fakeTransport) JoinRoom(r string) error { f.joins = append(f.joins, r); return nil }
func (f *fakeTransport) LeaveRoom(r string) error {
	f.leaves = append(f.leaves, r)
	return nil
}

func newTestManager(ft *fakeTransport) (*Manager, *events.Dispatcher) {
	d := events.NewDispatcher(logger.NopLogger{})
	m := NewManager(ft, d, logger.NopLogger{}, nil)
	return m, d
}

func TestManager_ConnectIdempotent(t *testing.T) {
	ft := &fakeTransport{}
	m, _ := newTestManager(ft)
	id := model.Identity{UserID: "u1", UserRole: "nurse"}
	if err := m.Connect(context.Background(), id); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := m.Connect(context.Background(), id); err != nil {
		t.Fatalf("second connect: %v", err)
	}
	if ft.connects != 1 {
		t.Fatalf("transport connected %d times", ft.connects)
	}
	if !m.IsConnected() || m.State() != StateConnected {
		t.Fatalf("state = %s", m.State())
	}
}

func TestManager_ConnectErrorSurfacesAndEmits(t *testing.T) {
	ft := &fakeTransport{connErr: errors.New("refused")}
	m, d := newTestManager(ft)
	var kinds []model.EventKind
	d.On(model.EventSocketError, func(ev model.Event) { kinds = append(kinds, ev.Kind) })

	err := m.Connect(context.Background(), model.Identity{UserID: "u1"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if m.State() != StateError {
		t.Fatalf("state = %s, want error", m.State())
	}
	if len(kinds) != 1 {
		t.Fatalf("expected socket_error event, got %v", kinds)
	}
}

func TestManager_SyntheticLifecycleEvents(t *testing.T) {
	ft := &fakeTransport{}
	m, d := newTestManager(ft)
	var got []model.EventKind
	for _, k := range []model.EventKind{model.EventSocketConnected, model.EventSocketDisconnected, model.EventSocketError} {
		kind := k
		d.On(kind, func(model.Event) { got = append(got, kind) })
	}

	if err := m.Connect(context.Background(), model.Identity{UserID: "u1"}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	m.OnDisconnected(errors.New("broken pipe"))
	if len(got) != 3 {
		t.Fatalf("events = %v", got)
	}
	if got[0] != model.EventSocketConnected || got[1] != model.EventSocketError || got[2] != model.EventSocketDisconnected {
		t.Fatalf("unexpected order: %v", got)
	}
	if m.State() != StateError {
		t.Fatalf("state = %s", m.State())
	}
}

func TestManager_DisconnectNoop(t *testing.T) {
	ft := &fakeTransport{}
	m, _ := newTestManager(ft)
	m.Disconnect()
	m.Disconnect()
	if m.State() != StateDisconnected {
		t.Fatalf("state = %s", m.State())
	}
}

func TestManager_RoomCommandsRequireSession(t *testing.T) {
	ft := &fakeTransport{}
	m, _ := newTestManager(ft)
	if err := m.JoinRoom("patient_P1"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("join without session: %v", err)
	}
	if err := m.LeaveRoom("patient_P1"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("leave without session: %v", err)
	}
	if err := m.Connect(context.Background(), model.Identity{UserID: "u1"}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := m.JoinRoom("patient_P1"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(ft.joins) != 1 {
		t.Fatalf("joins = %v", ft.joins)
	}
}

func TestManager_OnConnectHooksRun(t *testing.T) {
	ft := &fakeTransport{}
	m, _ := newTestManager(ft)
	var resumes []bool
	m.OnConnect(func(resumed bool) { resumes = append(resumes, resumed) })

	if err := m.Connect(context.Background(), model.Identity{UserID: "u1"}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	m.OnConnected(true) // transport reconnected on its own
	if len(resumes) != 2 || resumes[0] || !resumes[1] {
		t.Fatalf("hook calls = %v", resumes)
	}
}

func TestManager_InboundEventsFlowToDispatcher(t *testing.T) {
	ft := &fakeTransport{}
	m, d := newTestManager(ft)
	var got []string
	d.On(model.EventRiskUpdated, func(ev model.Event) { got = append(got, ev.Payload.PatientID) })

	m.OnEvent(model.Event{Kind: model.EventRiskUpdated, Payload: model.EventPayload{PatientID: "P9"}})
	if len(got) != 1 || got[0] != "P9" {
		t.Fatalf("events = %v", got)
	}
}

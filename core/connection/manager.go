package connection

import (
	"context"
	"sync"
	"time"

	"github.com/meditrack/lifeline/core/events"
	"github.com/meditrack/lifeline/core/logger"
	"github.com/meditrack/lifeline/core/metrics"
	"github.com/meditrack/lifeline/core/model"
)

// State is the lifecycle state of the managed session.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateError
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "disconnected"
	}
}

// Manager holds the single transport session for the process and republishes
// its lifecycle as synthetic events so dependent surfaces never poll. It is
// an explicit dependency of its consumers, not a package-level singleton.
type Manager struct {
	mu        sync.Mutex
	state     State
	identity  model.Identity
	transport Transport

	dispatcher *events.Dispatcher
	log        logger.Logger
	sink       metrics.Sink
	onConnect  []func(resumed bool)
}

// NewManager wires the transport's callbacks into the dispatcher. A nil sink
// defaults to metrics.NopSink.
func NewManager(t Transport, d *events.Dispatcher, log logger.Logger, sink metrics.Sink) *Manager {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	m := &Manager{
		transport:  t,
		dispatcher: d,
		log:        log,
		sink:       sink,
	}
	t.SetListener(m)
	return m
}

// OnConnect registers fn to run after every successful connection,
// including automatic reconnections. Used for default-listener wiring such
// as room replay.
func (m *Manager) OnConnect(fn func(resumed bool)) {
	m.mu.Lock()
	m.onConnect = append(m.onConnect, fn)
	m.mu.Unlock()
}

// Connect opens the session for the given identity. Idempotent: when already
// connected it returns immediately. The initial attempt's error is returned
// to the caller; later failures only surface as events.
func (m *Manager) Connect(ctx context.Context, identity model.Identity) error {
	m.mu.Lock()
	if m.state == StateConnected || m.state == StateConnecting {
		m.mu.Unlock()
		return nil
	}
	m.state = StateConnecting
	m.identity = identity
	m.mu.Unlock()

	if err := m.transport.Connect(ctx, identity); err != nil {
		m.mu.Lock()
		m.state = StateError
		m.mu.Unlock()
		m.log.Errorf("connect failed: %v", err)
		m.dispatchSynthetic(model.EventSocketError, model.EventPayload{Err: err.Error()})
		return err
	}
	return nil
}

// Disconnect tears down the session. Safe to call when already disconnected.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	if m.state == StateDisconnected {
		m.mu.Unlock()
		return
	}
	m.state = StateDisconnected
	m.mu.Unlock()
	m.transport.Disconnect()
}

// IsConnected reports whether the session is currently up.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateConnected
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OnConnected implements Listener.
func (m *Manager) OnConnected(resumed bool) {
	m.mu.Lock()
	m.state = StateConnected
	hooks := make([]func(bool), len(m.onConnect))
	copy(hooks, m.onConnect)
	m.mu.Unlock()

	m.log.Infof("session established (resumed=%v)", resumed)
	m.dispatchSynthetic(model.EventSocketConnected, model.EventPayload{})
	for _, fn := range hooks {
		fn(resumed)
	}
}

// OnDisconnected implements Listener.
func (m *Manager) OnDisconnected(err error) {
	m.mu.Lock()
	if err != nil {
		m.state = StateError
	} else {
		m.state = StateDisconnected
	}
	m.mu.Unlock()

	if err != nil {
		m.log.Warnf("session lost: %v", err)
		m.dispatchSynthetic(model.EventSocketError, model.EventPayload{Err: err.Error()})
	}
	m.dispatchSynthetic(model.EventSocketDisconnected, model.EventPayload{})
}

// OnReconnectAttempt implements Listener.
func (m *Manager) OnReconnectAttempt(attempt int) {
	m.log.Infof("reconnect attempt %d", attempt)
	if err := m.sink.RecordReconnect(); err != nil {
		m.log.Warnf("record reconnect: %v", err)
	}
}

// OnEvent implements Listener. Inbound events flow straight to the
// dispatcher; delivery order is the transport arrival order.
func (m *Manager) OnEvent(ev model.Event) {
	if err := m.sink.RecordEvent(ev.Kind.String()); err != nil {
		m.log.Warnf("record event: %v", err)
	}
	m.dispatcher.Dispatch(ev)
}

func (m *Manager) dispatchSynthetic(kind model.EventKind, p model.EventPayload) {
	m.dispatcher.Dispatch(model.Event{Kind: kind, Payload: p, ReceivedAt: time.Now()})
}

package connection

import (
	"context"

	"github.com/meditrack/lifeline/core/model"
)

// Transport is the single real-time session to the backend. Implementations
// live in infra; the MQTT one is the default. The manager is the sole owner
// of the handle, no other component opens a second session.
type Transport interface {
	// Connect opens the session with the identity as handshake metadata.
	Connect(ctx context.Context, identity model.Identity) error
	// Disconnect tears the session down. No-op when not connected.
	Disconnect()
	// IsConnected reports a synchronous snapshot of the session state.
	IsConnected() bool
	// JoinRoom and LeaveRoom issue room subscription commands.
	JoinRoom(room string) error
	LeaveRoom(room string) error
	// SetListener installs the receiver of session callbacks. Must be called
	// before Connect.
	SetListener(l Listener)
}

// Listener receives transport callbacks. All methods are invoked from the
// transport's receive path, one at a time.
type Listener interface {
	// OnConnected fires after a session is established. resumed is true for
	// automatic reconnections.
	OnConnected(resumed bool)
	// OnDisconnected fires when the session drops. err is nil for a clean
	// disconnect.
	OnDisconnected(err error)
	// OnReconnectAttempt fires before each bounded reconnection attempt.
	OnReconnectAttempt(attempt int)
	// OnEvent delivers one normalized inbound event.
	OnEvent(ev model.Event)
}

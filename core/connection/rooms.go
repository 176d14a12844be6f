package connection

import "errors"

// ErrNotConnected is returned for room commands issued without a session.
// The room registry keeps the interest and replays it after reconnect.
var ErrNotConnected = errors.New("transport not connected")

// JoinRoom issues a join command on the transport.
func (m *Manager) JoinRoom(room string) error {
	if !m.IsConnected() {
		return ErrNotConnected
	}
	return m.transport.JoinRoom(room)
}

// LeaveRoom issues a leave command on the transport.
func (m *Manager) LeaveRoom(room string) error {
	if !m.IsConnected() {
		return ErrNotConnected
	}
	return m.transport.LeaveRoom(room)
}

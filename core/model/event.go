package model

import "time"

// EventKind defines the category of an inbound real-time message.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventPatientAlert
	EventRiskUpdated
	EventTriageUpdated
	EventHospitalAlert
	EventStaffAvailabilityChanged
	EventBedStatusChanged

	// Synthetic kinds emitted by the connection manager, never by the wire.
	EventSocketConnected
	EventSocketDisconnected
	EventSocketError
)

// String returns the wire name of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventPatientAlert:
		return "patient_alert"
	case EventRiskUpdated:
		return "risk_updated"
	case EventTriageUpdated:
		return "triage_updated"
	case EventHospitalAlert:
		return "hospital_alert"
	case EventStaffAvailabilityChanged:
		return "staff_availability_changed"
	case EventBedStatusChanged:
		return "bed_status_changed"
	case EventSocketConnected:
		return "socket_connected"
	case EventSocketDisconnected:
		return "socket_disconnected"
	case EventSocketError:
		return "socket_error"
	default:
		return "unknown"
	}
}

// ParseEventKind maps a wire event name to its kind. Unrecognized names map
// to EventUnknown.
func ParseEventKind(name string) EventKind {
	switch name {
	case "patient_alert":
		return EventPatientAlert
	case "risk_updated":
		return EventRiskUpdated
	case "triage_updated":
		return EventTriageUpdated
	case "hospital_alert":
		return EventHospitalAlert
	case "staff_availability_changed":
		return EventStaffAvailabilityChanged
	case "bed_status_changed":
		return EventBedStatusChanged
	default:
		return EventUnknown
	}
}

// Event is a normalized inbound message. Immutable once constructed.
type Event struct {
	Kind       EventKind
	Payload    EventPayload
	ReceivedAt time.Time
}

// EventPayload carries the kind-specific fields of an event. Only the fields
// relevant to the event's kind are populated.
type EventPayload struct {
	PatientID  string  `json:"patient_id,omitempty"`
	HospitalID string  `json:"hospital_id,omitempty"`
	TriageID   string  `json:"triage_id,omitempty"`
	StaffID    string  `json:"staff_id,omitempty"`
	StaffType  string  `json:"staff_type,omitempty"`
	AlertType  string  `json:"alert_type,omitempty"`
	Message    string  `json:"message,omitempty"`
	RiskLevel  string  `json:"risk_level,omitempty"`
	RiskScore  float64 `json:"risk_score,omitempty"`
	Status     string  `json:"status,omitempty"`
	Available  bool    `json:"available,omitempty"`
	// Err carries the transport error for socket_error events.
	Err string `json:"error,omitempty"`
}

// Identity is the authenticated subject a connection is opened for. It is
// handshake metadata, not a message.
type Identity struct {
	UserID   string
	UserRole string
}

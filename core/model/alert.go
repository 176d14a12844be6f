package model

import "time"

// Severity classifies an alert for display purposes.
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarning
	SeverityCritical
)

// String returns a human-readable representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityWarning:
		return "warning"
	case SeveritySuccess:
		return "success"
	default:
		return "info"
	}
}

// Transient reports whether alerts of this severity expire automatically.
func (s Severity) Transient() bool {
	return s == SeverityInfo || s == SeveritySuccess
}

// Alert is a user-facing projection of one inbound event. It is owned
// exclusively by the alert store; only the Read flag mutates after creation.
type Alert struct {
	ID         string    `json:"id"`
	Severity   Severity  `json:"severity"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	SourceKind EventKind `json:"source_kind"`
	CreatedAt  time.Time `json:"created_at"`
	Read       bool      `json:"read"`
}

package model

import (
	"fmt"
	"time"
)

// RequestStatus is the lifecycle state of an ambulance request.
type RequestStatus int

const (
	StatusPending RequestStatus = iota
	StatusAccepted
	StatusEnRoute
	StatusArrived
	StatusCompleted
	StatusCancelled
)

// String returns a human-readable representation of the status.
func (s RequestStatus) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusAccepted:
		return "Accepted"
	case StatusEnRoute:
		return "EnRoute"
	case StatusArrived:
		return "Arrived"
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status admits no further transitions.
func (s RequestStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Priority ranks the urgency of a transport task.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

// String returns a human-readable representation of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "Critical"
	case PriorityHigh:
		return "High"
	case PriorityMedium:
		return "Medium"
	default:
		return "Low"
	}
}

// VehicleStatus is the availability state of a fleet unit.
type VehicleStatus int

const (
	VehicleAvailable VehicleStatus = iota
	VehicleOnRoute
	VehicleBusy
)

// String returns a human-readable representation of the vehicle status.
func (s VehicleStatus) String() string {
	switch s {
	case VehicleOnRoute:
		return "OnRoute"
	case VehicleBusy:
		return "Busy"
	default:
		return "Available"
	}
}

// Ambulance represents one fleet unit.
type Ambulance struct {
	ID             string        `json:"id"`
	VehicleNumber  string        `json:"vehicle_number"`
	Status         VehicleStatus `json:"status"`
	DriverName     string        `json:"driver_name"`
	DriverContact  string        `json:"driver_contact"`
	EquipmentLevel string        `json:"equipment_level"`
}

// Validate checks that the ambulance definition is sound.
func (a Ambulance) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("ambulance id is required")
	}
	if a.VehicleNumber == "" {
		return fmt.Errorf("vehicle number is required for %s", a.ID)
	}
	return nil
}

// AmbulanceRequest represents one transport task. Requests are never deleted;
// they only reach a terminal status.
type AmbulanceRequest struct {
	ID                   string        `json:"id"`
	PatientID            string        `json:"patient_id"`
	PatientName          string        `json:"patient_name"`
	Priority             Priority      `json:"priority"`
	Status               RequestStatus `json:"status"`
	PickupLocation       string        `json:"pickup_location"`
	Destination          string        `json:"destination"`
	AssignedVehicleID    string        `json:"assigned_vehicle_id,omitempty"`
	DriverName           string        `json:"driver_name,omitempty"`
	DriverContact        string        `json:"driver_contact,omitempty"`
	ETAMinutes           int           `json:"eta_minutes,omitempty"`
	CurrentLocationLabel string        `json:"current_location_label,omitempty"`
	RequestedAt          time.Time     `json:"requested_at"`
	Notes                string        `json:"notes,omitempty"`
}

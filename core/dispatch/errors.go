package dispatch

import "errors"

var (
	// ErrUnknownRequest is returned when a request id has no record.
	ErrUnknownRequest = errors.New("unknown ambulance request")
	// ErrUnknownVehicle is returned when a vehicle id has no fleet record.
	ErrUnknownVehicle = errors.New("unknown ambulance")
	// ErrVehicleUnavailable is returned when assigning a vehicle that is not Available.
	ErrVehicleUnavailable = errors.New("ambulance not available")
	// ErrInvalidTransition is returned for any status change the lifecycle
	// does not allow. Terminal states are never overwritten.
	ErrInvalidTransition = errors.New("invalid request transition")
)

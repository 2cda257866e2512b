package domain

import "time"

type StatusChangeEvent struct {
	VehicleID string
	Status    Status
	Distance  float64
	Timestamp time.Time
}

// Directive is an externally computed status for a vehicle received over pub/sub
// or the HTTP directive endpoint.
type Directive struct {
	VehicleID string
	Status    Status
	Distance  float64
}

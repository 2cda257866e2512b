package domain

import (
	"strings"
	"time"
)

type Status string

const (
	StatusOK    Status = "OK"
	StatusAlert Status = "ALERT"
	StatusStop  Status = "STOP"
)

// ParseStatus matches s against the known tiers, ignoring case.
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusOK:
		return StatusOK, true
	case StatusAlert:
		return StatusAlert, true
	case StatusStop:
		return StatusStop, true
	}
	return "", false
}

type Position struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Vehicle is the flat record pushed to live viewers and served by the query API.
// Distance and nearest node always describe Lat/Lon as committed.
type Vehicle struct {
	ID              string    `json:"id"`
	Lat             float64   `json:"latitude"`
	Lon             float64   `json:"longitude"`
	Status          Status    `json:"status"`
	LastUpdate      time.Time `json:"lastUpdate"`
	StatusChangedAt time.Time `json:"statusChangedAt"`
	Distance        float64   `json:"distanceToNearestNode"`
	NearestNodeID   string    `json:"nearestNodeId"`
	NearestNodeName string    `json:"nearestNodeName"`
}

func (v Vehicle) Position() Position {
	return Position{Lat: v.Lat, Lon: v.Lon}
}

type UpdateResult struct {
	Vehicle        Vehicle
	PreviousStatus Status
	Changed        bool
	// Frozen is set when the vehicle was in STOP and the submitted coordinates were discarded.
	Frozen bool
}

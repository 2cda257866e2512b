package publisher

import (
	"context"
	"time"

	"github.com/MedRayenZoubli/TruckTrack/module/core/domain"
)

type StatusPublisher interface {
	PublishStatusChange(ctx context.Context, event *domain.StatusChangeEvent) error
}

// StatusMessage is the wire payload for status changes on every transport.
// Origin identifies the hub instance that published it.
type StatusMessage struct {
	TruckID   string        `json:"truckId"`
	Status    domain.Status `json:"status"`
	Distance  float64       `json:"distance"`
	Timestamp time.Time     `json:"timestamp"`
	Origin    string        `json:"origin,omitempty"`
}

func NewStatusMessage(event *domain.StatusChangeEvent, origin string) StatusMessage {
	return StatusMessage{
		TruckID:   event.VehicleID,
		Status:    event.Status,
		Distance:  event.Distance,
		Timestamp: event.Timestamp.UTC(),
		Origin:    origin,
	}
}

package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/MedRayenZoubli/TruckTrack/module/core/domain"
	"github.com/MedRayenZoubli/TruckTrack/module/core/internal/repository/publisher"
)

var _ publisher.StatusPublisher = (*StatusPublisher)(nil)

const (
	topicNamespace = "trucks"
	qosAtLeastOnce = 1
)

// StatusTopic is the per-vehicle topic status changes are published on.
func StatusTopic(vehicleID string) string {
	return fmt.Sprintf("%s/%s/status", topicNamespace, vehicleID)
}

type StatusPublisher struct {
	client pahomqtt.Client
	origin string
}

func NewStatusPublisher(client pahomqtt.Client, origin string) *StatusPublisher {
	return &StatusPublisher{client: client, origin: origin}
}

func (p *StatusPublisher) PublishStatusChange(ctx context.Context, event *domain.StatusChangeEvent) error {
	body, err := json.Marshal(publisher.NewStatusMessage(event, p.origin))
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}

	token := p.client.Publish(StatusTopic(event.VehicleID), qosAtLeastOnce, false, body)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish %s: %w: %w", StatusTopic(event.VehicleID), domain.ErrTransport, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w: %w", StatusTopic(event.VehicleID), domain.ErrTransport, err)
	}
	return nil
}

package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/MedRayenZoubli/TruckTrack/module/core/domain"
)

const topicPattern = "trucks/+/status"

type telemetryService interface {
	ApplyDirective(ctx context.Context, d domain.Directive) (*domain.Vehicle, error)
}

type directiveMessage struct {
	TruckID  string  `json:"truckId"`
	Status   string  `json:"status"`
	Distance float64 `json:"distance"`
	Origin   string  `json:"origin"`
}

// directiveHandler turns raw status messages into directives. Messages
// carrying this hub's own origin are echoes of its notifications and skipped.
type directiveHandler struct {
	telemetrySvc telemetryService
	origin       string
	log          zerolog.Logger
}

func (h *directiveHandler) handle(ctx context.Context, vehicleID string, payload []byte) {
	var raw directiveMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		h.log.Warn().Err(err).Str("vehicle_id", vehicleID).Msg("invalid directive message")
		return
	}
	if raw.Origin != "" && raw.Origin == h.origin {
		return
	}

	if err := validateDirectiveMessage(vehicleID, &raw); err != nil {
		h.log.Warn().Err(err).Str("vehicle_id", vehicleID).Msg("directive validation error")
		return
	}

	status, _ := domain.ParseStatus(raw.Status)
	_, err := h.telemetrySvc.ApplyDirective(ctx, domain.Directive{
		VehicleID: vehicleID,
		Status:    status,
		Distance:  raw.Distance,
	})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.log.Debug().Str("vehicle_id", vehicleID).Msg("directive for unknown vehicle")
	case err != nil:
		h.log.Error().Err(err).Str("vehicle_id", vehicleID).Msg("apply directive")
	}
}

func validateDirectiveMessage(vehicleID string, msg *directiveMessage) error {
	if vehicleID == "" {
		return fmt.Errorf("vehicle id: required")
	}
	if msg.TruckID != "" && msg.TruckID != vehicleID {
		return fmt.Errorf("truckId: %q does not match topic vehicle %q", msg.TruckID, vehicleID)
	}
	if _, ok := domain.ParseStatus(msg.Status); !ok {
		return fmt.Errorf("status: must be one of OK, ALERT, STOP")
	}
	if msg.Distance < 0 {
		return fmt.Errorf("distance: must not be negative")
	}
	return nil
}

// vehicleFromTopic extracts <id> from trucks/<id>/status.
func vehicleFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "trucks" || parts[2] != "status" {
		return ""
	}
	return parts[1]
}

type DirectiveSubscriber struct {
	client mqtt.Client
	directiveHandler
}

func NewDirectiveSubscriber(client mqtt.Client, telemetrySvc telemetryService, origin string, log zerolog.Logger) *DirectiveSubscriber {
	return &DirectiveSubscriber{
		client: client,
		directiveHandler: directiveHandler{
			telemetrySvc: telemetrySvc,
			origin:       origin,
			log:          log.With().Str("component", "mqtt_directives").Logger(),
		},
	}
}

func (s *DirectiveSubscriber) Start(_ context.Context) error {
	token := s.client.Subscribe(topicPattern, 1, s.handleMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topicPattern, err)
	}
	s.log.Info().Str("topic", topicPattern).Msg("subscribed to status directives")
	return nil
}

func (s *DirectiveSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	s.handle(context.Background(), vehicleFromTopic(msg.Topic()), msg.Payload())
}

package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/MedRayenZoubli/TruckTrack/module/core/domain"
	"github.com/MedRayenZoubli/TruckTrack/module/core/internal/repository/publisher"
)

var _ publisher.StatusPublisher = (*StatusPublisher)(nil)

const ExchangeName = "trucks"

// RoutingKey mirrors the MQTT topic layout with AMQP topic-exchange separators.
func RoutingKey(vehicleID string) string {
	return fmt.Sprintf("trucks.%s.status", vehicleID)
}

// DeclareExchange declares the durable topic exchange shared by the publisher,
// the directive subscriber and the event listener.
func DeclareExchange(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	return nil
}

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type StatusPublisher struct {
	mu     sync.Mutex
	ch     channel
	origin string
	now    func() time.Time
}

func NewStatusPublisher(conn *amqp.Connection, origin string) (*StatusPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := DeclareExchange(ch); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return newStatusPublisher(ch, origin), nil
}

func newStatusPublisher(ch channel, origin string) *StatusPublisher {
	return &StatusPublisher{ch: ch, origin: origin, now: time.Now}
}

func (p *StatusPublisher) PublishStatusChange(ctx context.Context, event *domain.StatusChangeEvent) error {
	body, err := json.Marshal(publisher.NewStatusMessage(event, p.origin))
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, ExchangeName, RoutingKey(event.VehicleID), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now(),
		AppId:        p.origin,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w: %w", RoutingKey(event.VehicleID), domain.ErrTransport, err)
	}
	return nil
}

func (p *StatusPublisher) Close() error {
	return p.ch.Close()
}

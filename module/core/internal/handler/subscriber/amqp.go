package subscriber

import (
	"context"
	"fmt"
	"io"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/MedRayenZoubli/TruckTrack/module/core/internal/repository/publisher/rabbitmq"
)

const bindingKey = "trucks.*.status"

// AMQPDirectiveSubscriber consumes directives from a private queue bound to
// the trucks topic exchange.
type AMQPDirectiveSubscriber struct {
	conn *amqp.Connection
	directiveHandler
}

func NewAMQPDirectiveSubscriber(conn *amqp.Connection, telemetrySvc telemetryService, origin string, log zerolog.Logger) *AMQPDirectiveSubscriber {
	return &AMQPDirectiveSubscriber{
		conn: conn,
		directiveHandler: directiveHandler{
			telemetrySvc: telemetrySvc,
			origin:       origin,
			log:          log.With().Str("component", "amqp_directives").Logger(),
		},
	}
}

// Start declares the queue and consumes in the background until ctx is done.
func (s *AMQPDirectiveSubscriber) Start(ctx context.Context) error {
	ch, err := s.conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := rabbitmq.DeclareExchange(ch); err != nil {
		_ = ch.Close()
		return err
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, bindingKey, rabbitmq.ExchangeName, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("bind queue: %w", err)
	}

	deliveries, err := ch.Consume(q.Name, "", false, true, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("consume: %w", err)
	}

	s.log.Info().Str("queue", q.Name).Str("binding", bindingKey).Msg("consuming status directives")
	go s.consume(ctx, ch, deliveries)
	return nil
}

func (s *AMQPDirectiveSubscriber) consume(ctx context.Context, ch io.Closer, deliveries <-chan amqp.Delivery) {
	defer func() { _ = ch.Close() }()
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				s.log.Warn().Msg("directive deliveries closed")
				return
			}
			s.handle(ctx, vehicleFromRoutingKey(d.RoutingKey), d.Body)
			if err := d.Ack(false); err != nil {
				s.log.Error().Err(err).Msg("ack directive")
			}
		}
	}
}

// vehicleFromRoutingKey extracts <id> from trucks.<id>.status.
func vehicleFromRoutingKey(key string) string {
	rest, ok := strings.CutPrefix(key, "trucks.")
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, ".status")
	if !ok {
		return ""
	}
	return id
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/MedRayenZoubli/TruckTrack/config"
	"github.com/MedRayenZoubli/TruckTrack/pkg/logger"
)

const (
	exchangeName = "trucks"
	queueName    = "truck_status_changes"
	bindingKey   = "trucks.*.status"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.Init(logger.Options{Pretty: true, Service: "event-listener"})

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	conn, err := config.NewRabbitMQ(cfg, "trucktrack-event-listener")
	if err != nil {
		log.Fatal().Err(err).Msg("rabbitmq connect")
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal().Err(err).Msg("rabbitmq channel")
	}
	defer func() { _ = ch.Close() }()

	if err := ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		log.Fatal().Err(err).Msg("declare exchange")
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		log.Fatal().Err(err).Msg("declare queue")
	}

	if err := ch.QueueBind(queueName, bindingKey, exchangeName, false, nil); err != nil {
		log.Fatal().Err(err).Msg("bind queue")
	}

	msgs, err := ch.Consume(queueName, "", true, false, false, false, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("consume")
	}

	log.Info().Str("queue", queueName).Msg("waiting for truck status changes")

	go func() {
		for msg := range msgs {
			var change struct {
				TruckID  string  `json:"truckId"`
				Status   string  `json:"status"`
				Distance float64 `json:"distance"`
			}
			if err := json.Unmarshal(msg.Body, &change); err != nil {
				continue
			}
			fmt.Printf("[%s] %s %.2fkm %s\n", change.Status, change.TruckID, change.Distance, string(msg.Body))
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
}

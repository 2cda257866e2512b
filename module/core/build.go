package core

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/MedRayenZoubli/TruckTrack/module/core/domain"
	"github.com/MedRayenZoubli/TruckTrack/module/core/internal/broadcast"
	handler "github.com/MedRayenZoubli/TruckTrack/module/core/internal/handler/http"
	"github.com/MedRayenZoubli/TruckTrack/module/core/internal/handler/subscriber"
	"github.com/MedRayenZoubli/TruckTrack/module/core/internal/handler/ws"
	"github.com/MedRayenZoubli/TruckTrack/module/core/internal/repository/database/memory"
	"github.com/MedRayenZoubli/TruckTrack/module/core/internal/repository/publisher"
	mqttpub "github.com/MedRayenZoubli/TruckTrack/module/core/internal/repository/publisher/mqtt"
	"github.com/MedRayenZoubli/TruckTrack/module/core/internal/repository/publisher/rabbitmq"
	"github.com/MedRayenZoubli/TruckTrack/module/core/service"
)

// Options carries the module's dependencies. Exactly one of MQTT and AMQP is
// used as the pub/sub transport; MQTT wins when both are set.
type Options struct {
	Nodes          []domain.ReferenceNode
	MQTT           mqtt.Client
	AMQP           *amqp.Connection
	InstanceID     string
	PublishTimeout time.Duration
	Live           LiveOptions
	Log            zerolog.Logger
}

// LiveOptions tunes the websocket live channel.
type LiveOptions = ws.Options

type directiveSource interface {
	Start(ctx context.Context) error
}

type Module struct {
	TelemetrySvc *service.TelemetryService
	GeofenceSvc  *service.GeofenceService
	Hub          *broadcast.Hub

	vehicles   *handler.VehicleHandler
	nodes      *handler.NodeHandler
	live       *ws.LiveHandler
	directives directiveSource
	closePub   func() error
	log        zerolog.Logger
}

func Build(opts Options) (*Module, error) {
	geofenceSvc, err := service.NewGeofenceService(opts.Nodes)
	if err != nil {
		return nil, err
	}

	store := memory.NewVehicleStore()
	hub := broadcast.NewHub(store, opts.Log)

	var (
		pub      publisher.StatusPublisher
		closePub = func() error { return nil }
	)
	switch {
	case opts.MQTT != nil:
		pub = mqttpub.NewStatusPublisher(opts.MQTT, opts.InstanceID)
	case opts.AMQP != nil:
		amqpPub, err := rabbitmq.NewStatusPublisher(opts.AMQP, opts.InstanceID)
		if err != nil {
			return nil, fmt.Errorf("status publisher: %w", err)
		}
		pub, closePub = amqpPub, amqpPub.Close
	default:
		return nil, fmt.Errorf("no pub/sub transport: %w", domain.ErrConfiguration)
	}

	telemetrySvc := service.NewTelemetryService(store, geofenceSvc, pub, hub, opts.PublishTimeout, opts.Log)

	var directives directiveSource
	if opts.MQTT != nil {
		directives = subscriber.NewDirectiveSubscriber(opts.MQTT, telemetrySvc, opts.InstanceID, opts.Log)
	} else {
		directives = subscriber.NewAMQPDirectiveSubscriber(opts.AMQP, telemetrySvc, opts.InstanceID, opts.Log)
	}

	return &Module{
		TelemetrySvc: telemetrySvc,
		GeofenceSvc:  geofenceSvc,
		Hub:          hub,
		vehicles:     handler.NewVehicleHandler(telemetrySvc),
		nodes:        handler.NewNodeHandler(telemetrySvc),
		live:         ws.NewLiveHandler(hub, opts.Live, opts.Log),
		directives:   directives,
		closePub:     closePub,
		log:          opts.Log,
	}, nil
}

// RegisterRoutes mounts the REST API on api and the live channel on root.
func (m *Module) RegisterRoutes(root *gin.Engine, api *gin.RouterGroup) {
	m.vehicles.Register(api)
	m.nodes.Register(api)
	m.live.Register(root)
}

func (m *Module) StartSubscribers(ctx context.Context) error {
	return m.directives.Start(ctx)
}

// Shutdown disconnects every live viewer, waits for queued status
// notifications until ctx is done and releases the publisher channel.
func (m *Module) Shutdown(ctx context.Context) error {
	m.Hub.Close()
	if err := m.TelemetrySvc.Flush(ctx); err != nil {
		m.log.Warn().Err(err).Msg("status notifications still queued at shutdown")
	}
	if err := m.closePub(); err != nil {
		return fmt.Errorf("close status publisher: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/MedRayenZoubli/TruckTrack/config"
	"github.com/MedRayenZoubli/TruckTrack/module/core"
	applog "github.com/MedRayenZoubli/TruckTrack/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("trucktrack")
	}
}

// run returns instead of exiting so deferred broker disconnects always run.
func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	logger := applog.Init(applog.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "trucktrack"})

	nodes, err := config.LoadNodes(cfg.NodesFile)
	if err != nil {
		return fmt.Errorf("reference nodes: %w", err)
	}

	instanceID := uuid.NewString()

	var (
		mqttClient mqtt.Client
		amqpConn   *amqp.Connection
	)
	switch cfg.Transport {
	case config.TransportMQTT:
		mqttClient, err = config.NewMQTT(cfg, instanceID[:8], logger)
		if err != nil {
			return err
		}
		defer mqttClient.Disconnect(250)
	case config.TransportAMQP:
		amqpConn, err = config.NewRabbitMQ(cfg, "trucktrack-hub-"+instanceID[:8])
		if err != nil {
			return err
		}
		defer func() { _ = amqpConn.Close() }()
	}

	coreModule, err := core.Build(core.Options{
		Nodes:          nodes,
		MQTT:           mqttClient,
		AMQP:           amqpConn,
		InstanceID:     instanceID,
		PublishTimeout: cfg.PublishTimeout,
		Live: core.LiveOptions{
			SendBuffer:   cfg.Live.SendBuffer,
			WriteTimeout: cfg.Live.WriteTimeout,
			PingInterval: cfg.Live.PingInterval,
		},
		Log: logger,
	})
	if err != nil {
		return fmt.Errorf("core module: %w", err)
	}

	if err := coreModule.StartSubscribers(ctx); err != nil {
		return fmt.Errorf("start subscribers: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), applog.Middleware(logger))

	health := config.NewHealthChecker(amqpConn, mqttClient, coreModule.Hub)
	health.Register(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	coreModule.RegisterRoutes(r, r.Group("/api"))

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Str("addr", srv.Addr).
			Str("transport", cfg.Transport).
			Str("instance", instanceID).
			Int("nodes", len(nodes)).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := coreModule.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("core module shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	logger.Info().Msg("shut down")
	return nil
}

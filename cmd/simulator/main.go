package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/MedRayenZoubli/TruckTrack/config"
	"github.com/MedRayenZoubli/TruckTrack/pkg/logger"
)

type updateMessage struct {
	ID        string  `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type statusMessage struct {
	Status   string  `json:"status"`
	Distance float64 `json:"distance"`
}

// The simulated truck wanders near its start point for a few ticks, then
// drives south until the hub reports STOP on its status topic.
func main() {
	truckID := flag.String("id", "TRUCK-003", "truck id")
	hubURL := flag.String("hub", "http://localhost:8080", "hub base URL")
	interval := flag.Duration("interval", 2*time.Second, "update interval")
	lat := flag.Float64("lat", 33.985, "start latitude")
	lon := flag.Float64("lon", -118.25, "start longitude")
	wander := flag.Int("wander", 10, "ticks of random drift before heading away")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.Init(logger.Options{Pretty: true, Service: "simulator"}).
		With().Str("truck_id", *truckID).Logger()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	var stopped atomic.Bool
	topic := fmt.Sprintf("trucks/%s/status", *truckID)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTT.Broker).
		SetClientID("trucktrack-sim-" + uuid.NewString()[:8])

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	token := client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		var s statusMessage
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Warn().Err(err).Msg("invalid status message")
			return
		}
		log.Info().Str("status", s.Status).Float64("distance_km", s.Distance).Msg("status update")
		stopped.Store(s.Status == "STOP")
	})
	if token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt subscribe")
	}

	httpClient := &http.Client{Timeout: 5 * time.Second}
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for i := 1; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !stopped.Load() {
			if i <= *wander {
				*lat += (rand.Float64() - 0.5) * 0.002
				*lon += (rand.Float64() - 0.5) * 0.002
			} else {
				*lat -= 0.004
				*lon += (rand.Float64() - 0.5) * 0.001
			}
		}

		if err := postUpdate(ctx, httpClient, *hubURL, updateMessage{ID: *truckID, Latitude: *lat, Longitude: *lon}); err != nil {
			log.Error().Err(err).Msg("post update")
			continue
		}
		log.Info().Float64("latitude", *lat).Float64("longitude", *lon).Bool("frozen", stopped.Load()).Msg("position sent")
	}
}

func postUpdate(ctx context.Context, client *http.Client, hubURL string, msg updateMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hubURL+"/api/vehicles/update", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("hub returned %s", resp.Status)
	}
	return nil
}

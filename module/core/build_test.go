package core

import (
	"context"
	"errors"
	"testing"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/MedRayenZoubli/TruckTrack/module/core/domain"
)

type fakeMQTTClient struct {
	mqtt.Client
}

var testNodes = []domain.ReferenceNode{{ID: "NODE-001", Name: "Downtown Warehouse", Lat: 34.05, Lon: -118.25}}

func TestBuild_RequiresTransport(t *testing.T) {
	_, err := Build(Options{Nodes: testNodes, Log: zerolog.Nop()})
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestBuild_RequiresNodes(t *testing.T) {
	_, err := Build(Options{MQTT: &fakeMQTTClient{}, Log: zerolog.Nop()})
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestBuild_MQTT(t *testing.T) {
	m, err := Build(Options{Nodes: testNodes, MQTT: &fakeMQTTClient{}, InstanceID: "hub-1", Log: zerolog.Nop()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.TelemetrySvc == nil || m.Hub == nil {
		t.Fatal("module not fully wired")
	}
	if got := m.GeofenceSvc.Nodes()[0].StopRadiusKm; got != domain.DefaultStopRadiusKm {
		t.Errorf("expected default stop radius, got %v", got)
	}
	if err := m.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

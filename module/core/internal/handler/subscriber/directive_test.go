package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/MedRayenZoubli/TruckTrack/module/core/domain"
)

type mockTelemetrySvc struct {
	applyDirectiveFn func(ctx context.Context, d domain.Directive) (*domain.Vehicle, error)
}

func (m *mockTelemetrySvc) ApplyDirective(ctx context.Context, d domain.Directive) (*domain.Vehicle, error) {
	return m.applyDirectiveFn(ctx, d)
}

type fakeMQTTMessage struct {
	topic   string
	payload []byte
}

func (f *fakeMQTTMessage) Duplicate() bool   { return false }
func (f *fakeMQTTMessage) Qos() byte         { return 1 }
func (f *fakeMQTTMessage) Retained() bool    { return false }
func (f *fakeMQTTMessage) Topic() string     { return f.topic }
func (f *fakeMQTTMessage) MessageID() uint16 { return 0 }
func (f *fakeMQTTMessage) Payload() []byte   { return f.payload }
func (f *fakeMQTTMessage) Ack()              {}

const hubOrigin = "hub-instance-1"

func newTestSubscriber(svc telemetryService) *DirectiveSubscriber {
	return NewDirectiveSubscriber(nil, svc, hubOrigin, zerolog.Nop())
}

func directivePayload(t *testing.T, msg directiveMessage) []byte {
	t.Helper()
	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestHandleMessage_Success(t *testing.T) {
	var got domain.Directive
	calls := 0
	svc := &mockTelemetrySvc{
		applyDirectiveFn: func(_ context.Context, d domain.Directive) (*domain.Vehicle, error) {
			calls++
			got = d
			return &domain.Vehicle{ID: d.VehicleID, Status: d.Status}, nil
		},
	}

	sub := newTestSubscriber(svc)
	payload := directivePayload(t, directiveMessage{TruckID: "TRUCK-001", Status: "ok", Distance: 2.5, Origin: "dispatcher"})
	sub.handleMessage(nil, &fakeMQTTMessage{topic: "trucks/TRUCK-001/status", payload: payload})

	if calls != 1 {
		t.Fatalf("expected ApplyDirective once, got %d", calls)
	}
	if got.VehicleID != "TRUCK-001" || got.Status != domain.StatusOK || got.Distance != 2.5 {
		t.Errorf("unexpected directive %+v", got)
	}
}

func TestHandleMessage_SkipsOwnOrigin(t *testing.T) {
	svc := &mockTelemetrySvc{
		applyDirectiveFn: func(context.Context, domain.Directive) (*domain.Vehicle, error) {
			t.Fatal("ApplyDirective should not be called for own notifications")
			return nil, nil
		},
	}

	sub := newTestSubscriber(svc)
	payload := directivePayload(t, directiveMessage{TruckID: "TRUCK-001", Status: "STOP", Distance: 9.1, Origin: hubOrigin})
	sub.handleMessage(nil, &fakeMQTTMessage{topic: "trucks/TRUCK-001/status", payload: payload})
}

func TestHandleMessage_Rejected(t *testing.T) {
	cases := []struct {
		name    string
		topic   string
		payload []byte
	}{
		{"invalid json", "trucks/TRUCK-001/status", []byte("invalid")},
		{"unknown status", "trucks/TRUCK-001/status", []byte(`{"truckId":"TRUCK-001","status":"PARKED"}`)},
		{"mismatched truck", "trucks/TRUCK-001/status", []byte(`{"truckId":"TRUCK-002","status":"OK"}`)},
		{"negative distance", "trucks/TRUCK-001/status", []byte(`{"status":"OK","distance":-1}`)},
		{"bad topic", "fleet/TRUCK-001/location", []byte(`{"status":"OK"}`)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockTelemetrySvc{
				applyDirectiveFn: func(context.Context, domain.Directive) (*domain.Vehicle, error) {
					t.Fatal("ApplyDirective should not be called")
					return nil, nil
				},
			}
			newTestSubscriber(svc).handleMessage(nil, &fakeMQTTMessage{topic: tc.topic, payload: tc.payload})
		})
	}
}

func TestHandleMessage_ServiceError(t *testing.T) {
	for _, err := range []error{
		fmt.Errorf("vehicle TRUCK-009: %w", domain.ErrNotFound),
		fmt.Errorf("store: unavailable"),
	} {
		svc := &mockTelemetrySvc{
			applyDirectiveFn: func(context.Context, domain.Directive) (*domain.Vehicle, error) {
				return nil, err
			},
		}
		// Errors are logged, never propagated to the MQTT client.
		newTestSubscriber(svc).handleMessage(nil, &fakeMQTTMessage{
			topic:   "trucks/TRUCK-009/status",
			payload: []byte(`{"status":"OK"}`),
		})
	}
}

func TestVehicleFromTopic(t *testing.T) {
	cases := map[string]string{
		"trucks/TRUCK-001/status":   "TRUCK-001",
		"trucks//status":            "",
		"trucks/TRUCK-001/status/x": "",
		"cars/TRUCK-001/status":     "",
	}
	for topic, want := range cases {
		if got := vehicleFromTopic(topic); got != want {
			t.Errorf("vehicleFromTopic(%q) = %q, want %q", topic, got, want)
		}
	}
}

func TestVehicleFromRoutingKey(t *testing.T) {
	cases := map[string]string{
		"trucks.TRUCK-001.status": "TRUCK-001",
		"trucks.TRUCK-001.alert":  "",
		"trucks.status":           "",
	}
	for key, want := range cases {
		if got := vehicleFromRoutingKey(key); got != want {
			t.Errorf("vehicleFromRoutingKey(%q) = %q, want %q", key, got, want)
		}
	}
}

package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/MedRayenZoubli/TruckTrack/module/core/domain"
	"github.com/MedRayenZoubli/TruckTrack/module/core/internal/repository/publisher"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func completedToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

type fakeClient struct {
	pahomqtt.Client
	publishFn func(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	return c.publishFn(topic, qos, retained, payload)
}

func testEvent() *domain.StatusChangeEvent {
	return &domain.StatusChangeEvent{
		VehicleID: "TRUCK-001",
		Status:    domain.StatusAlert,
		Distance:  5.56,
		Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.FixedZone("PST", -8*3600)),
	}
}

func TestPublishStatusChange_Success(t *testing.T) {
	var (
		gotTopic    string
		gotQos      byte
		gotRetained bool
		gotPayload  []byte
	)
	client := &fakeClient{publishFn: func(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
		gotTopic, gotQos, gotRetained = topic, qos, retained
		gotPayload = payload.([]byte)
		return completedToken(nil)
	}}

	pub := NewStatusPublisher(client, "hub-1")
	if err := pub.PublishStatusChange(context.Background(), testEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotTopic != "trucks/TRUCK-001/status" {
		t.Errorf("unexpected topic %s", gotTopic)
	}
	if gotQos != 1 || gotRetained {
		t.Errorf("expected qos 1 not retained, got qos %d retained %v", gotQos, gotRetained)
	}

	var msg publisher.StatusMessage
	if err := json.Unmarshal(gotPayload, &msg); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if msg.TruckID != "TRUCK-001" || msg.Status != domain.StatusAlert || msg.Distance != 5.56 || msg.Origin != "hub-1" {
		t.Errorf("unexpected payload %+v", msg)
	}
	if msg.Timestamp.Location() != time.UTC || msg.Timestamp.Hour() != 18 {
		t.Errorf("expected UTC timestamp, got %s", msg.Timestamp)
	}
}

func TestPublishStatusChange_BrokerError(t *testing.T) {
	client := &fakeClient{publishFn: func(string, byte, bool, interface{}) pahomqtt.Token {
		return completedToken(errors.New("not connected"))
	}}

	err := NewStatusPublisher(client, "hub-1").PublishStatusChange(context.Background(), testEvent())
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestPublishStatusChange_ContextDeadline(t *testing.T) {
	client := &fakeClient{publishFn: func(string, byte, bool, interface{}) pahomqtt.Token {
		return &fakeToken{done: make(chan struct{})}
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := NewStatusPublisher(client, "hub-1").PublishStatusChange(ctx, testEvent())
	if !errors.Is(err, domain.ErrTransport) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected ErrTransport wrapping deadline, got %v", err)
	}
}

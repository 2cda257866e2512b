package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/MedRayenZoubli/TruckTrack/module/core/domain"
	"github.com/MedRayenZoubli/TruckTrack/module/core/internal/metrics"
	"github.com/MedRayenZoubli/TruckTrack/module/core/internal/repository/publisher"
)

// statusNotifier publishes status changes off the commit path. Events are
// queued per vehicle in commit order and each queue is drained by at most one
// goroutine, so a vehicle's notifications leave in the order they were
// committed while a slow broker never holds the vehicle's lock.
type statusNotifier struct {
	publisher publisher.StatusPublisher
	timeout   time.Duration
	log       zerolog.Logger

	mu      sync.Mutex
	outbox  map[string][]domain.StatusChangeEvent
	running int
	idle    chan struct{}
}

func newStatusNotifier(pub publisher.StatusPublisher, timeout time.Duration, log zerolog.Logger) *statusNotifier {
	idle := make(chan struct{})
	close(idle)
	return &statusNotifier{
		publisher: pub,
		timeout:   timeout,
		log:       log,
		outbox:    make(map[string][]domain.StatusChangeEvent),
		idle:      idle,
	}
}

// enqueue never blocks. It is called under the vehicle's lock.
func (n *statusNotifier) enqueue(event domain.StatusChangeEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()

	queue, draining := n.outbox[event.VehicleID]
	n.outbox[event.VehicleID] = append(queue, event)
	if draining {
		return
	}
	if n.running == 0 {
		n.idle = make(chan struct{})
	}
	n.running++
	go n.drain(event.VehicleID)
}

func (n *statusNotifier) drain(vehicleID string) {
	for {
		n.mu.Lock()
		queue := n.outbox[vehicleID]
		if len(queue) == 0 {
			delete(n.outbox, vehicleID)
			n.running--
			if n.running == 0 {
				close(n.idle)
			}
			n.mu.Unlock()
			return
		}
		event := queue[0]
		n.outbox[vehicleID] = queue[1:]
		n.mu.Unlock()

		n.publish(&event)
	}
}

func (n *statusNotifier) publish(event *domain.StatusChangeEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	if err := n.publisher.PublishStatusChange(ctx, event); err != nil {
		metrics.PublishFailuresTotal.Inc()
		n.log.Warn().Err(err).Str("vehicle_id", event.VehicleID).Msg("status publish failed")
	}
}

// flush waits until every queued event has been handed to the publisher or
// ctx is done.
func (n *statusNotifier) flush(ctx context.Context) error {
	n.mu.Lock()
	idle := n.idle
	n.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

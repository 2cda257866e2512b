package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/MedRayenZoubli/TruckTrack/module/core/domain"
	"github.com/MedRayenZoubli/TruckTrack/module/core/internal/metrics"
	"github.com/MedRayenZoubli/TruckTrack/module/core/internal/repository/database"
	"github.com/MedRayenZoubli/TruckTrack/module/core/internal/repository/publisher"
)

const defaultPublishTimeout = 2 * time.Second

type broadcaster interface {
	Broadcast(v domain.Vehicle)
}

// TelemetryService ingests position updates and status directives. Every
// commit is pushed to live viewers; status transitions caused by updates are
// also published on the pub/sub bus.
type TelemetryService struct {
	store       database.VehicleStore
	geofence    *GeofenceService
	notifier    *statusNotifier
	broadcaster broadcaster
	log         zerolog.Logger
	now         func() time.Time
}

func NewTelemetryService(
	store database.VehicleStore,
	geofence *GeofenceService,
	pub publisher.StatusPublisher,
	bc broadcaster,
	publishTimeout time.Duration,
	log zerolog.Logger,
) *TelemetryService {
	if publishTimeout <= 0 {
		publishTimeout = defaultPublishTimeout
	}
	log = log.With().Str("component", "telemetry").Logger()
	return &TelemetryService{
		store:       store,
		geofence:    geofence,
		notifier:    newStatusNotifier(pub, publishTimeout, log),
		broadcaster: bc,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *TelemetryService) SubmitUpdate(ctx context.Context, id string, lat, lon float64) (*domain.UpdateResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("vehicle id required: %w", domain.ErrInvalidInput)
	}
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	var frozen bool
	commit := func(current domain.Vehicle, exists bool) domain.Vehicle {
		now := s.now()

		var existing *domain.Vehicle
		next := current
		if exists {
			existing = &current
		} else {
			next = domain.Vehicle{ID: id, Status: domain.StatusOK, StatusChangedAt: now}
		}

		var pos domain.Position
		pos, frozen = applyFreeze(existing, domain.Position{Lat: lat, Lon: lon})

		previous := next.Status
		if !frozen {
			eval := s.geofence.Evaluate(pos.Lat, pos.Lon)
			next.Lat, next.Lon = pos.Lat, pos.Lon
			next.Status = eval.Status
			next.Distance = eval.Distance
			next.NearestNodeID = eval.NearestNodeID
			next.NearestNodeName = eval.NearestNodeName
		}
		next.LastUpdate = now
		if next.Status != previous {
			next.StatusChangedAt = now
		}
		return next
	}

	notify := func(v domain.Vehicle, previous domain.Status) {
		if v.Status != previous {
			s.publishChange(v, previous)
		}
	}
	push := func(v domain.Vehicle, _ domain.Status) {
		s.broadcaster.Broadcast(v)
	}

	v, previous, _ := s.store.Commit(id, commit, notify, push)
	metrics.UpdatesTotal.WithLabelValues(string(v.Status)).Inc()

	s.log.Debug().
		Str("vehicle_id", v.ID).
		Float64("latitude", v.Lat).
		Float64("longitude", v.Lon).
		Str("status", string(v.Status)).
		Float64("distance_km", v.Distance).
		Bool("frozen", frozen).
		Msg("vehicle updated")

	return &domain.UpdateResult{
		Vehicle:        v,
		PreviousStatus: previous,
		Changed:        v.Status != previous,
		Frozen:         frozen,
	}, nil
}

// ApplyDirective sets a vehicle's status from an external source. Position and
// distance are left as committed; this is how a STOP vehicle is released.
func (s *TelemetryService) ApplyDirective(ctx context.Context, d domain.Directive) (*domain.Vehicle, error) {
	status, ok := domain.ParseStatus(string(d.Status))
	if !ok {
		metrics.DirectivesTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("status %q: %w", d.Status, domain.ErrInvalidInput)
	}
	if _, err := s.store.Get(d.VehicleID); err != nil {
		metrics.DirectivesTotal.WithLabelValues("not_found").Inc()
		return nil, err
	}

	commit := func(current domain.Vehicle, _ bool) domain.Vehicle {
		next := current
		if next.Status != status {
			next.Status = status
			next.StatusChangedAt = s.now()
		}
		return next
	}
	push := func(v domain.Vehicle, previous domain.Status) {
		if v.Status != previous {
			s.broadcaster.Broadcast(v)
		}
	}

	v, previous, _ := s.store.Commit(d.VehicleID, commit, push)
	if v.Status == previous {
		metrics.DirectivesTotal.WithLabelValues("ignored").Inc()
		return &v, nil
	}

	metrics.DirectivesTotal.WithLabelValues("applied").Inc()
	metrics.StatusTransitionsTotal.WithLabelValues(string(previous), string(v.Status)).Inc()
	s.log.Info().
		Str("vehicle_id", v.ID).
		Str("from", string(previous)).
		Str("to", string(v.Status)).
		Float64("reported_distance_km", d.Distance).
		Msg("status directive applied")
	return &v, nil
}

func (s *TelemetryService) ListVehicles(_ context.Context) []domain.Vehicle {
	return s.store.List()
}

func (s *TelemetryService) GetVehicle(_ context.Context, id string) (*domain.Vehicle, error) {
	v, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// VehiclesByStatus matches status case-insensitively. An unknown status
// matches nothing.
func (s *TelemetryService) VehiclesByStatus(_ context.Context, status string) []domain.Vehicle {
	results := make([]domain.Vehicle, 0)
	for _, v := range s.store.List() {
		if strings.EqualFold(string(v.Status), status) {
			results = append(results, v)
		}
	}
	return results
}

func (s *TelemetryService) ListNodes(_ context.Context) []domain.ReferenceNode {
	return s.geofence.Nodes()
}

func (s *TelemetryService) GetNode(_ context.Context, id string) (*domain.ReferenceNode, error) {
	n, err := s.geofence.Node(id)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *TelemetryService) NodesInfo(_ context.Context) domain.NodesInfo {
	nodes := s.geofence.Nodes()
	return domain.NodesInfo{TotalNodes: len(nodes), Nodes: nodes}
}

// publishChange runs inside the vehicle's commit. It only queues the event;
// the broker is contacted outside the lock.
func (s *TelemetryService) publishChange(v domain.Vehicle, previous domain.Status) {
	metrics.StatusTransitionsTotal.WithLabelValues(string(previous), string(v.Status)).Inc()
	s.log.Info().
		Str("vehicle_id", v.ID).
		Str("from", string(previous)).
		Str("to", string(v.Status)).
		Float64("distance_km", v.Distance).
		Msg("status change")

	s.notifier.enqueue(domain.StatusChangeEvent{
		VehicleID: v.ID,
		Status:    v.Status,
		Distance:  v.Distance,
		Timestamp: v.StatusChangedAt,
	})
}

// Flush waits for queued status notifications to be published, or for ctx.
func (s *TelemetryService) Flush(ctx context.Context) error {
	return s.notifier.flush(ctx)
}

func validateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v: must be between -90 and 90: %w", lat, domain.ErrInvalidInput)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("longitude %v: must be between -180 and 180: %w", lon, domain.ErrInvalidInput)
	}
	return nil
}

package service

import (
	"fmt"
	"math"

	"github.com/MedRayenZoubli/TruckTrack/module/core/domain"
)

const earthRadiusKm = 6371

type GeofenceService struct {
	nodes []domain.ReferenceNode
	byID  map[string]int
}

// NewGeofenceService fails with domain.ErrConfiguration when nodes is empty.
// Nodes without radii fall back to the default 5/8 km tiers.
func NewGeofenceService(nodes []domain.ReferenceNode) (*GeofenceService, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("geofence: no reference nodes: %w", domain.ErrConfiguration)
	}

	s := &GeofenceService{
		nodes: make([]domain.ReferenceNode, len(nodes)),
		byID:  make(map[string]int, len(nodes)),
	}
	for i, n := range nodes {
		if n.AlertRadiusKm <= 0 {
			n.AlertRadiusKm = domain.DefaultAlertRadiusKm
		}
		if n.StopRadiusKm <= 0 {
			n.StopRadiusKm = domain.DefaultStopRadiusKm
		}
		if n.StopRadiusKm <= n.AlertRadiusKm {
			return nil, fmt.Errorf("geofence: node %s: stop radius must exceed alert radius: %w", n.ID, domain.ErrConfiguration)
		}
		if _, dup := s.byID[n.ID]; dup {
			return nil, fmt.Errorf("geofence: duplicate node id %s: %w", n.ID, domain.ErrConfiguration)
		}
		s.nodes[i] = n
		s.byID[n.ID] = i
	}
	return s, nil
}

// Evaluate finds the nearest node to (lat, lon) and classifies the distance
// against that node's radii. Ties go to the node listed first.
func (s *GeofenceService) Evaluate(lat, lon float64) domain.Evaluation {
	nearest := 0
	best := math.Inf(1)
	for i, n := range s.nodes {
		d := haversine(lat, lon, n.Lat, n.Lon)
		if d < best {
			best = d
			nearest = i
		}
	}

	n := s.nodes[nearest]
	return domain.Evaluation{
		Status:          classify(best, n),
		Distance:        best,
		NearestNodeID:   n.ID,
		NearestNodeName: n.Name,
	}
}

func (s *GeofenceService) Nodes() []domain.ReferenceNode {
	out := make([]domain.ReferenceNode, len(s.nodes))
	copy(out, s.nodes)
	return out
}

func (s *GeofenceService) Node(id string) (domain.ReferenceNode, error) {
	i, ok := s.byID[id]
	if !ok {
		return domain.ReferenceNode{}, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	return s.nodes[i], nil
}

func classify(distance float64, n domain.ReferenceNode) domain.Status {
	switch {
	case distance <= n.AlertRadiusKm:
		return domain.StatusOK
	case distance <= n.StopRadiusKm:
		return domain.StatusAlert
	default:
		return domain.StatusStop
	}
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/MedRayenZoubli/TruckTrack/module/core/domain"
)

type nodeFile struct {
	Nodes []nodeEntry `yaml:"nodes" validate:"required,min=1,dive"`
}

type nodeEntry struct {
	ID            string  `yaml:"id" validate:"required"`
	Name          string  `yaml:"name" validate:"required"`
	Latitude      float64 `yaml:"latitude" validate:"gte=-90,lte=90"`
	Longitude     float64 `yaml:"longitude" validate:"gte=-180,lte=180"`
	AlertRadiusKm float64 `yaml:"alert_radius_km" validate:"gte=0"`
	StopRadiusKm  float64 `yaml:"stop_radius_km" validate:"gte=0"`
}

// DefaultNodes are used when no nodes file is configured.
func DefaultNodes() []domain.ReferenceNode {
	return []domain.ReferenceNode{
		{ID: "NODE-001", Name: "Downtown Warehouse", Lat: 34.05, Lon: -118.25, AlertRadiusKm: domain.DefaultAlertRadiusKm, StopRadiusKm: domain.DefaultStopRadiusKm},
		{ID: "NODE-002", Name: "Airport Hub", Lat: 34.07, Lon: -118.25, AlertRadiusKm: domain.DefaultAlertRadiusKm, StopRadiusKm: domain.DefaultStopRadiusKm},
		{ID: "NODE-003", Name: "Harbor Depot", Lat: 34.06, Lon: -118.20, AlertRadiusKm: domain.DefaultAlertRadiusKm, StopRadiusKm: domain.DefaultStopRadiusKm},
	}
}

// LoadNodes reads reference nodes from path, or returns DefaultNodes when path
// is empty. Missing radii default to 5 and 8 km.
func LoadNodes(path string) ([]domain.ReferenceNode, error) {
	if path == "" {
		return DefaultNodes(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read nodes file: %w", err)
	}
	return parseNodes(data)
}

func parseNodes(data []byte) ([]domain.ReferenceNode, error) {
	var f nodeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse nodes file: %w", err)
	}
	if err := validator.New().Struct(f); err != nil {
		return nil, fmt.Errorf("validate nodes file: %w: %w", domain.ErrConfiguration, err)
	}

	seen := make(map[string]struct{}, len(f.Nodes))
	nodes := make([]domain.ReferenceNode, 0, len(f.Nodes))
	for _, e := range f.Nodes {
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("node %s: duplicate id: %w", e.ID, domain.ErrConfiguration)
		}
		seen[e.ID] = struct{}{}

		n := domain.ReferenceNode{
			ID:            e.ID,
			Name:          e.Name,
			Lat:           e.Latitude,
			Lon:           e.Longitude,
			AlertRadiusKm: e.AlertRadiusKm,
			StopRadiusKm:  e.StopRadiusKm,
		}
		if n.AlertRadiusKm == 0 {
			n.AlertRadiusKm = domain.DefaultAlertRadiusKm
		}
		if n.StopRadiusKm == 0 {
			n.StopRadiusKm = domain.DefaultStopRadiusKm
		}
		if n.StopRadiusKm <= n.AlertRadiusKm {
			return nil, fmt.Errorf("node %s: stop radius must exceed alert radius: %w", e.ID, domain.ErrConfiguration)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/MedRayenZoubli/TruckTrack/module/core/domain"
)

func TestLoadNodes_Default(t *testing.T) {
	nodes, err := LoadNodes("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 3 || nodes[0].ID != "NODE-001" || nodes[2].Name != "Harbor Depot" {
		t.Errorf("unexpected default nodes %+v", nodes)
	}
}

func TestLoadNodes_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodes.yaml")
	data := []byte(`nodes:
  - id: YARD-1
    name: North Yard
    latitude: 40.71
    longitude: -74.0
  - id: YARD-2
    name: South Yard
    latitude: 40.6
    longitude: -74.1
    alert_radius_km: 2
    stop_radius_km: 3.5
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	nodes, err := LoadNodes(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	if nodes[0].AlertRadiusKm != domain.DefaultAlertRadiusKm || nodes[0].StopRadiusKm != domain.DefaultStopRadiusKm {
		t.Errorf("expected default radii, got %+v", nodes[0])
	}
	if nodes[1].AlertRadiusKm != 2 || nodes[1].StopRadiusKm != 3.5 {
		t.Errorf("expected explicit radii, got %+v", nodes[1])
	}
}

func TestLoadNodes_MissingFile(t *testing.T) {
	if _, err := LoadNodes(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseNodes_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty list":               "nodes: []\n",
		"missing name":             "nodes:\n  - id: A\n    latitude: 1\n    longitude: 1\n",
		"bad latitude":             "nodes:\n  - id: A\n    name: A\n    latitude: 91\n    longitude: 1\n",
		"duplicate id":             "nodes:\n  - id: A\n    name: A\n  - id: A\n    name: B\n",
		"inverted radii":           "nodes:\n  - id: A\n    name: A\n    alert_radius_km: 9\n    stop_radius_km: 4\n",
		"stop below default alert": "nodes:\n  - id: A\n    name: A\n    stop_radius_km: 3\n",
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseNodes([]byte(data))
			if !errors.Is(err, domain.ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestParseNodes_Malformed(t *testing.T) {
	if _, err := parseNodes([]byte("nodes: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

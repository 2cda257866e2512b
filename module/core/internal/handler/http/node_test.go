package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/MedRayenZoubli/TruckTrack/module/core/domain"
)

type mockNodeService struct {
	nodes []domain.ReferenceNode
}

func (m *mockNodeService) ListNodes(context.Context) []domain.ReferenceNode {
	return m.nodes
}

func (m *mockNodeService) GetNode(_ context.Context, id string) (*domain.ReferenceNode, error) {
	for _, n := range m.nodes {
		if n.ID == id {
			return &n, nil
		}
	}
	return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
}

func (m *mockNodeService) NodesInfo(context.Context) domain.NodesInfo {
	return domain.NodesInfo{TotalNodes: len(m.nodes), Nodes: m.nodes}
}

func setupNodeRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewNodeHandler(&mockNodeService{nodes: []domain.ReferenceNode{
		{ID: "NODE-001", Name: "Downtown Warehouse", Lat: 34.05, Lon: -118.25, AlertRadiusKm: 5, StopRadiusKm: 8},
		{ID: "NODE-002", Name: "Airport Hub", Lat: 34.07, Lon: -118.25, AlertRadiusKm: 5, StopRadiusKm: 8},
	}}).Register(r.Group("/api"))
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestGetAllNodes(t *testing.T) {
	w := get(setupNodeRouter(), "/api/nodes")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var nodes []domain.ReferenceNode
	if err := json.Unmarshal(w.Body.Bytes(), &nodes); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(nodes) != 2 || nodes[0].ID != "NODE-001" {
		t.Errorf("unexpected nodes %+v", nodes)
	}
}

func TestGetNode(t *testing.T) {
	r := setupNodeRouter()

	w := get(r, "/api/nodes/NODE-002")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var n domain.ReferenceNode
	_ = json.Unmarshal(w.Body.Bytes(), &n)
	if n.Name != "Airport Hub" {
		t.Errorf("expected Airport Hub, got %s", n.Name)
	}

	if w := get(r, "/api/nodes/NODE-404"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestGetNodesInfo(t *testing.T) {
	w := get(setupNodeRouter(), "/api/nodes/info")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var info domain.NodesInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if info.TotalNodes != 2 || info.Nodes[1].StopRadiusKm != 8 {
		t.Errorf("unexpected info %+v", info)
	}
}

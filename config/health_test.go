package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
)

type fakeMQTTClient struct {
	mqtt.Client
	connected bool
}

func (c *fakeMQTTClient) IsConnected() bool { return c.connected }

type fixedCount int

func (n fixedCount) Count() int { return int(n) }

func serveHealth(t *testing.T, h *HealthChecker) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.Register(r)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/healthz", nil)
	r.ServeHTTP(w, req)

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return w.Code, body
}

func TestHealth_MQTTUp(t *testing.T) {
	code, body := serveHealth(t, NewHealthChecker(nil, &fakeMQTTClient{connected: true}, fixedCount(3)))

	if code != http.StatusOK || body["status"] != "healthy" {
		t.Fatalf("expected healthy 200, got %d %v", code, body)
	}
	deps := body["dependencies"].(map[string]any)
	if _, ok := deps["rabbitmq"]; ok {
		t.Error("unconfigured rabbitmq must not be reported")
	}
	if body["liveSessions"].(float64) != 3 {
		t.Errorf("expected 3 live sessions, got %v", body["liveSessions"])
	}
}

func TestHealth_MQTTDown(t *testing.T) {
	code, body := serveHealth(t, NewHealthChecker(nil, &fakeMQTTClient{}, fixedCount(0)))

	if code != http.StatusServiceUnavailable || body["status"] != "unhealthy" {
		t.Fatalf("expected unhealthy 503, got %d %v", code, body)
	}
}

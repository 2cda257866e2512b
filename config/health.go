package config

import (
	"net/http"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
)

type sessionCounter interface {
	Count() int
}

// HealthChecker reports the broker in use and the live session count. A nil
// broker client is treated as not configured and left out of the report.
type HealthChecker struct {
	amqpConn *amqp.Connection
	mqtt     mqtt.Client
	sessions sessionCounter
}

func NewHealthChecker(amqpConn *amqp.Connection, mqttClient mqtt.Client, sessions sessionCounter) *HealthChecker {
	return &HealthChecker{amqpConn: amqpConn, mqtt: mqttClient, sessions: sessions}
}

func (h *HealthChecker) Register(r *gin.Engine) {
	r.GET("/healthz", h.Handle)
}

func (h *HealthChecker) Handle(c *gin.Context) {
	status := http.StatusOK
	deps := gin.H{}

	if h.amqpConn != nil {
		if h.amqpConn.IsClosed() {
			deps["rabbitmq"] = gin.H{"status": "down", "error": "connection closed"}
			status = http.StatusServiceUnavailable
		} else {
			deps["rabbitmq"] = gin.H{"status": "up"}
		}
	}

	if h.mqtt != nil {
		if !h.mqtt.IsConnected() {
			deps["mqtt"] = gin.H{"status": "down", "error": "not connected"}
			status = http.StatusServiceUnavailable
		} else {
			deps["mqtt"] = gin.H{"status": "up"}
		}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":       overall,
		"dependencies": deps,
		"liveSessions": h.sessions.Count(),
	})
}

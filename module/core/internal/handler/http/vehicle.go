package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MedRayenZoubli/TruckTrack/module/core/domain"
)

type telemetryService interface {
	SubmitUpdate(ctx context.Context, id string, lat, lon float64) (*domain.UpdateResult, error)
	ApplyDirective(ctx context.Context, d domain.Directive) (*domain.Vehicle, error)
	ListVehicles(ctx context.Context) []domain.Vehicle
	GetVehicle(ctx context.Context, id string) (*domain.Vehicle, error)
	VehiclesByStatus(ctx context.Context, status string) []domain.Vehicle
}

type updateRequest struct {
	ID        string  `json:"id" binding:"required"`
	Latitude  float64 `json:"latitude" binding:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" binding:"gte=-180,lte=180"`
}

type updateResponse struct {
	Message     string        `json:"message"`
	ID          string        `json:"id"`
	Status      domain.Status `json:"status"`
	Distance    float64       `json:"distance"`
	NearestNode string        `json:"nearestNode"`
}

type directiveRequest struct {
	Status string `json:"status" binding:"required"`
}

type VehicleHandler struct {
	telemetrySvc telemetryService
}

func NewVehicleHandler(telemetrySvc telemetryService) *VehicleHandler {
	return &VehicleHandler{telemetrySvc: telemetrySvc}
}

func (h *VehicleHandler) Register(r *gin.RouterGroup) {
	r.GET("/vehicles", h.GetAllVehicles)
	r.GET("/vehicles/:vehicle_id", h.GetVehicle)
	r.GET("/vehicles/status/:status", h.GetVehiclesByStatus)
	r.POST("/vehicles/update", h.UpdateVehicle)
	r.POST("/vehicles/:vehicle_id/status", h.SetStatus)
}

func (h *VehicleHandler) UpdateVehicle(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vehicle id required and coordinates must be valid"})
		return
	}

	res, err := h.telemetrySvc.SubmitUpdate(c.Request.Context(), req.ID, req.Latitude, req.Longitude)
	if err != nil {
		writeError(c, err)
		return
	}

	msg := "Truck updated"
	if res.Frozen {
		msg = "Truck stopped, no movement applied"
	}
	c.JSON(http.StatusOK, updateResponse{
		Message:     msg,
		ID:          res.Vehicle.ID,
		Status:      res.Vehicle.Status,
		Distance:    res.Vehicle.Distance,
		NearestNode: res.Vehicle.NearestNodeName,
	})
}

func (h *VehicleHandler) GetAllVehicles(c *gin.Context) {
	c.JSON(http.StatusOK, h.telemetrySvc.ListVehicles(c.Request.Context()))
}

func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	v, err := h.telemetrySvc.GetVehicle(c.Request.Context(), c.Param("vehicle_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *VehicleHandler) GetVehiclesByStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.telemetrySvc.VehiclesByStatus(c.Request.Context(), c.Param("status")))
}

func (h *VehicleHandler) SetStatus(c *gin.Context) {
	var req directiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status required"})
		return
	}

	v, err := h.telemetrySvc.ApplyDirective(c.Request.Context(), domain.Directive{
		VehicleID: c.Param("vehicle_id"),
		Status:    domain.Status(req.Status),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

/*
 * @module api/controllers/health_controller
 * @description Health check controller
 * @architecture MVC - controller layer
 * @documentReference dev_docs/qs_score_requirements.md
 * @stateFlow HTTP request handling
 * @rules plain health endpoints for container checks and load balancers
 * @dependencies net/http
 * @refs api/routes.go
 */

package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// HealthController health check controller
type HealthController struct{}

// NewHealthController creates a health check controller
func NewHealthController() *HealthController {
	return &HealthController{}
}

// HealthResponse health check response body
type HealthResponse struct {
	Status    string    `json:"status" example:"ok"`
	Timestamp time.Time `json:"timestamp" example:"2024-01-01T00:00:00Z"`
	Version   string    `json:"version" example:"1.0.0"`
	Service   string    `json:"service" example:"qs-service"`
}

// Health liveness check
// @Summary Health check
// @Description Reports service liveness
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Service:   "qs-service",
	}

	render.JSON(w, r, response)
}

// Ready readiness check
// @Summary Readiness check
// @Description Reports service readiness
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /ready [get]
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Service:   "qs-service",
	}

	render.JSON(w, r, response)
}

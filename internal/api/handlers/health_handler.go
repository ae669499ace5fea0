package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ekoatlas/data-api/internal/models"
	"github.com/ekoatlas/data-api/internal/storage"
	"github.com/gin-gonic/gin"
)

// ManifestStatus reports which section manifests are cached.
type ManifestStatus interface {
	Loaded() []models.Section
}

// HealthHandler serves the health check endpoints
type HealthHandler struct {
	store     storage.Store
	manifests ManifestStatus
}

// NewHealthHandler creates a health handler checking store. manifests may be nil.
func NewHealthHandler(store storage.Store, manifests ManifestStatus) *HealthHandler {
	return &HealthHandler{
		store:     store,
		manifests: manifests,
	}
}

// HealthResponse is the health check response body
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Manifests []string          `json:"manifests,omitempty"`
	Error     string            `json:"error,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// Liveness godoc
// @Summary Liveness probe endpoint
// @Description Reports that the process is running, without checking dependencies
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /liveness [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "alive",
		Timestamp: time.Now().Unix(),
	})
}

// Readiness godoc
// @Summary Readiness probe endpoint
// @Description Reports whether the data store is reachable
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /readiness [get]
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "ready",
		Checks:    make(map[string]string),
		Timestamp: time.Now().Unix(),
	}

	if err := h.store.Ping(ctx); err != nil {
		response.Checks["storage"] = "failed"
		response.Status = "not_ready"
		response.Error = err.Error()
	} else {
		response.Checks["storage"] = "ok"
	}

	statusCode := http.StatusOK
	if response.Status == "not_ready" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}

// Health godoc
// @Summary Comprehensive health check endpoint
// @Description Reports store reachability and the manifests cached so far
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Checks:    map[string]string{"storage_backend": h.store.Name()},
		Timestamp: time.Now().Unix(),
	}

	if err := h.store.Ping(ctx); err != nil {
		response.Checks["storage"] = "failed"
		response.Status = "unhealthy"
		response.Error = "storage connectivity check failed: " + err.Error()
	} else {
		response.Checks["storage"] = "ok"
	}

	if h.manifests != nil {
		for _, s := range h.manifests.Loaded() {
			response.Manifests = append(response.Manifests, s.String())
		}
	}

	statusCode := http.StatusOK
	if response.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/neowatch/internal/domain/dto"
)

// HealthHandler provides health, liveness and readiness endpoints.
//
// Responsibilities:
//   - /health: service banner consumed by dashboards.
//   - /healthz: liveness probe (always 200 OK).
//   - /readyz: readiness probe, 503 while ready reports an error.
type HealthHandler struct {
	ready func() error
}

// NewHealthHandler constructs a HealthHandler. ready may be nil, in which case
// the service always reports ready.
func NewHealthHandler(ready func() error) *HealthHandler {
	return &HealthHandler{ready: ready}
}

// Health godoc
// @Summary      Service health
// @Tags         health
// @Produce      json
// @Success      200  {object}  dto.HealthResponse
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "OK", Message: "NEO feed service is running"})
}

// Register mounts the probes on r.
//
// Routes:
//   - GET /healthz: always 200 OK.
//   - GET /readyz: 200 when ready() is nil, 503 with the reason otherwise.
func (h *HealthHandler) Register(r gin.IRoutes) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/readyz", func(c *gin.Context) {
		if h.ready != nil {
			if err := h.ready(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "reason": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/learnpath-backend/internal/services"
)

type HealthHandler struct {
	health services.HealthService
}

func NewHealthHandler(health services.HealthService) *HealthHandler {
	return &HealthHandler{health: health}
}

// GET /healthcheck
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	st, err := h.health.Check(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, st)
		return
	}
	c.JSON(http.StatusOK, st)
}

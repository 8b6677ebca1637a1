package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opsdesk/backend/internal/infrastructure/persistence"
)

// SystemHandler handles health and readiness endpoints
type SystemHandler struct {
	BaseHandler
	db        *persistence.Database
	appName   string
	startedAt time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db *persistence.Database, appName string) *SystemHandler {
	return &SystemHandler{
		db:        db,
		appName:   appName,
		startedAt: time.Now(),
	}
}

// HealthResponse represents the health check payload
type HealthResponse struct {
	Status   string `json:"status"`
	App      string `json:"app"`
	Uptime   string `json:"uptime"`
	Database string `json:"database"`
}

// Health handles GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:   "ok",
		App:      h.appName,
		Uptime:   time.Since(h.startedAt).Round(time.Second).String(),
		Database: "ok",
	}

	if err := h.db.Ping(); err != nil {
		resp.Status = "degraded"
		resp.Database = "unreachable"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RegisterRoutes registers system routes on the given router group
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
}

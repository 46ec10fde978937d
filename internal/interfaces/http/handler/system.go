package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/poa/backend/internal/infrastructure/config"
)

// SystemHandler handles system info endpoints
type SystemHandler struct {
	BaseHandler
	cfg       *config.Config
	startedAt time.Time
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(cfg *config.Config) *SystemHandler {
	return &SystemHandler{cfg: cfg, startedAt: time.Now()}
}

// SystemInfoResponse describes the running service
type SystemInfoResponse struct {
	Name        string `json:"name"`
	Environment string `json:"environment"`
	Uptime      string `json:"uptime"`
	ServerTime  string `json:"server_time"`
}

// Info returns basic service information
func (h *SystemHandler) Info(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:        h.cfg.App.Name,
		Environment: h.cfg.App.Env,
		Uptime:      time.Since(h.startedAt).Round(time.Second).String(),
		ServerTime:  time.Now().UTC().Format(time.RFC3339),
	})
}

// Ping responds with a liveness acknowledgement
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, gin.H{"message": "pong"})
}

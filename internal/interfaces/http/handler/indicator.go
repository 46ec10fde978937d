package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	planningapp "github.com/poa/backend/internal/application/planning"
	"github.com/poa/backend/internal/interfaces/http/dto"
)

// IndicatorHandler handles indicator progress endpoints
type IndicatorHandler struct {
	BaseHandler
	service *planningapp.ProgressService
}

// NewIndicatorHandler creates a new indicator handler
func NewIndicatorHandler(service *planningapp.ProgressService) *IndicatorHandler {
	return &IndicatorHandler{service: service}
}

// Progress returns the aggregated progress of an indicator computed
// from its approved reports
func (h *IndicatorHandler) Progress(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid indicator ID")
		return
	}

	progress, err := h.service.IndicatorProgress(c.Request.Context(), uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, progress)
}

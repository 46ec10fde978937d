package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	procurementapp "github.com/poa/backend/internal/application/procurement"
	"github.com/poa/backend/internal/interfaces/http/dto"
)

// ProcurementLinkHandler handles activity-procurement link endpoints
type ProcurementLinkHandler struct {
	BaseHandler
	service *procurementapp.LinkService
}

// NewProcurementLinkHandler creates a new procurement link handler
func NewProcurementLinkHandler(service *procurementapp.LinkService) *ProcurementLinkHandler {
	return &ProcurementLinkHandler{service: service}
}

type createLinkRequest struct {
	ActivityID           uuid.UUID `json:"activity_id" binding:"required"`
	ProcurementProcessID uuid.UUID `json:"procurement_process_id" binding:"required"`
	IsEssential          bool      `json:"is_essential"`
	LinkReason           string    `json:"link_reason" binding:"max=500"`
}

type updateLinkRequest struct {
	IsEssential bool   `json:"is_essential"`
	LinkReason  string `json:"link_reason" binding:"max=500"`
}

// Create links an activity to a procurement process
func (h *ProcurementLinkHandler) Create(c *gin.Context) {
	var req createLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	result, err := h.service.CreateLink(c.Request.Context(), procurementapp.CreateLinkRequest{
		ActivityID:           req.ActivityID,
		ProcurementProcessID: req.ProcurementProcessID,
		IsEssential:          req.IsEssential,
		LinkReason:           req.LinkReason,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// Update changes the essential flag or reason of a link
func (h *ProcurementLinkHandler) Update(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid link ID")
		return
	}

	var req updateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	result, err := h.service.UpdateLink(c.Request.Context(), uuid.MustParse(uri.ID), procurementapp.UpdateLinkRequest{
		IsEssential: req.IsEssential,
		LinkReason:  req.LinkReason,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Delete removes a link and reports the recomputed warning state
func (h *ProcurementLinkHandler) Delete(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid link ID")
		return
	}

	result, err := h.service.DeleteLink(c.Request.Context(), uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ListByActivity returns the processes linked to an activity
func (h *ProcurementLinkHandler) ListByActivity(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid activity ID")
		return
	}

	links, err := h.service.ListByActivity(c.Request.Context(), uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, links)
}

// Alerts returns the budget consistency warning for an activity
func (h *ProcurementLinkHandler) Alerts(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid activity ID")
		return
	}

	warning, err := h.service.ActivityAlerts(c.Request.Context(), uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, warning)
}

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	approvalapp "github.com/poa/backend/internal/application/approval"
	"github.com/poa/backend/internal/interfaces/http/dto"
)

// ProgressReportHandler handles progress report endpoints
type ProgressReportHandler struct {
	BaseHandler
	service *approvalapp.Service
}

// NewProgressReportHandler creates a new progress report handler
func NewProgressReportHandler(service *approvalapp.Service) *ProgressReportHandler {
	return &ProgressReportHandler{service: service}
}

type createReportRequest struct {
	ActivityID   *uuid.UUID      `json:"activity_id"`
	IndicatorID  *uuid.UUID      `json:"indicator_id"`
	Period       string          `json:"period" binding:"required,period"`
	CurrentValue decimal.Decimal `json:"current_value"`
	TargetValue  decimal.Decimal `json:"target_value"`
}

type updateReportRequest struct {
	CurrentValue decimal.Decimal `json:"current_value"`
	TargetValue  decimal.Decimal `json:"target_value"`
}

type approveRequest struct {
	Comments string `json:"comments" binding:"max=2000"`
}

type rejectRequest struct {
	Reason   string `json:"reason" binding:"required,max=2000"`
	Comments string `json:"comments" binding:"max=2000"`
}

type resubmitRequest struct {
	CurrentValue *decimal.Decimal `json:"current_value"`
	TargetValue  *decimal.Decimal `json:"target_value"`
}

type reportListRequest struct {
	dto.ListRequest
	Status      string     `form:"status" binding:"omitempty,oneof=DRAFT SUBMITTED APPROVED REJECTED WITHDRAWN"`
	ActivityID  *uuid.UUID `form:"activity_id" binding:"omitempty"`
	IndicatorID *uuid.UUID `form:"indicator_id" binding:"omitempty"`
	Period      string     `form:"period"`
}

func (r *reportListRequest) toFilter() approvalapp.ReportListFilter {
	r.Normalize()
	return approvalapp.ReportListFilter{
		Status:      r.Status,
		ActivityID:  r.ActivityID,
		IndicatorID: r.IndicatorID,
		Period:      r.Period,
		Page:        r.Page,
		PageSize:    r.PageSize,
		OrderBy:     r.OrderBy,
		OrderDir:    r.OrderDir,
	}
}

// Create creates a DRAFT progress report
func (h *ProgressReportHandler) Create(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	report, err := h.service.CreateReport(c.Request.Context(), actor, approvalapp.CreateReportRequest{
		ActivityID:   req.ActivityID,
		IndicatorID:  req.IndicatorID,
		Period:       req.Period,
		CurrentValue: req.CurrentValue,
		TargetValue:  req.TargetValue,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, report)
}

// Get returns a single progress report by ID
func (h *ProgressReportHandler) Get(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid report ID")
		return
	}

	report, err := h.service.GetReport(c.Request.Context(), uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, report)
}

// Update updates the figures of a DRAFT report
func (h *ProgressReportHandler) Update(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid report ID")
		return
	}

	var req updateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	report, err := h.service.UpdateReport(c.Request.Context(), actor, uuid.MustParse(uri.ID), approvalapp.UpdateReportRequest{
		CurrentValue: req.CurrentValue,
		TargetValue:  req.TargetValue,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, report)
}

// List returns progress reports matching the query filters
func (h *ProgressReportHandler) List(c *gin.Context) {
	var req reportListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter := req.toFilter()
	reports, total, err := h.service.ListReports(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, reports, total, filter.Page, filter.PageSize)
}

// Submit moves a DRAFT report into review
func (h *ProgressReportHandler) Submit(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid report ID")
		return
	}

	result, err := h.service.Submit(c.Request.Context(), actor, uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Approve approves a SUBMITTED report
func (h *ProgressReportHandler) Approve(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid report ID")
		return
	}

	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	result, err := h.service.Approve(c.Request.Context(), actor, uuid.MustParse(uri.ID), req.Comments)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Reject rejects a SUBMITTED report with a mandatory reason
func (h *ProgressReportHandler) Reject(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid report ID")
		return
	}

	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Rejection reason is required")
		return
	}

	result, err := h.service.Reject(c.Request.Context(), actor, uuid.MustParse(uri.ID), req.Reason, req.Comments)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Withdraw pulls a SUBMITTED report back before a decision
func (h *ProgressReportHandler) Withdraw(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid report ID")
		return
	}

	result, err := h.service.Withdraw(c.Request.Context(), actor, uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Resubmit creates a corrected revision of a REJECTED report
func (h *ProgressReportHandler) Resubmit(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid report ID")
		return
	}

	var req resubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	result, err := h.service.Resubmit(c.Request.Context(), actor, uuid.MustParse(uri.ID), approvalapp.ResubmitRequest{
		CurrentValue: req.CurrentValue,
		TargetValue:  req.TargetValue,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// History returns the full audit trail of a report
func (h *ProgressReportHandler) History(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid report ID")
		return
	}

	entries, err := h.service.History(c.Request.Context(), uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, entries)
}

// Pending lists SUBMITTED reports awaiting the caller's decision
func (h *ProgressReportHandler) Pending(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var req reportListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter := req.toFilter()
	reports, total, err := h.service.PendingReports(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, reports, total, filter.Page, filter.PageSize)
}

// Mine lists the caller's own reports
func (h *ProgressReportHandler) Mine(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var req reportListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter := req.toFilter()
	reports, total, err := h.service.MyReports(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, reports, total, filter.Page, filter.PageSize)
}

// Stats returns the approval workload summary for the caller's scope
func (h *ProgressReportHandler) Stats(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, stats)
}

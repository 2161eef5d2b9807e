package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/lymau/lead-app/internal/presales/service"
)

type OpportunityHandler struct {
	svc   *service.OpportunityService
	query *service.QueryService
}

func NewOpportunityHandler(svc *service.OpportunityService, query *service.QueryService) *OpportunityHandler {
	return &OpportunityHandler{svc: svc, query: query}
}

// SubmitOpportunityRequest header plus solution lines
type SubmitOpportunityRequest struct {
	service.ParentInput
	Lines []service.LineInput `json:"lines"`
}

// Submit POST /opportunities
func (h *OpportunityHandler) Submit(c *gin.Context) {
	var req SubmitOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.PresalesName == "" {
		req.PresalesName = actingUser(c)
	}

	res, err := h.svc.SubmitOpportunity(c.Request.Context(), req.ParentInput, req.Lines)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, res)
}

// List GET /opportunities
func (h *OpportunityHandler) List(c *gin.Context) {
	lines, err := h.query.ListVisible(c.Request.Context(), actingUser(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, ListResponse{Items: lines, Total: len(lines)})
}

// GetLines GET /deals/:opportunityId
func (h *OpportunityHandler) GetLines(c *gin.Context) {
	lines, err := h.query.GetByOpportunityID(c.Request.Context(), c.Param("opportunityId"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, ListResponse{Items: lines, Total: len(lines)})
}

// Summary GET /deals/:opportunityId/summary
func (h *OpportunityHandler) Summary(c *gin.Context) {
	sum, err := h.query.Summary(c.Request.Context(), c.Param("opportunityId"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, sum)
}

// GetLine GET /opportunities/:uid
func (h *OpportunityHandler) GetLine(c *gin.Context) {
	line, err := h.query.GetByUID(c.Request.Context(), c.Param("uid"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, line)
}

// UpdateLine PATCH /opportunities/:uid
func (h *OpportunityHandler) UpdateLine(c *gin.Context) {
	var req service.PartialUpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	uid := c.Param("uid")
	if err := h.svc.PartialUpdate(c.Request.Context(), uid, req, actingUser(c)); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"uid": uid})
}

// EditLine PUT /opportunities/:uid. The response carries the line's uid after the edit.
func (h *OpportunityHandler) EditLine(c *gin.Context) {
	var req service.FullEditInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	tr, err := h.svc.FullEdit(c.Request.Context(), c.Param("uid"), req, actingUser(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, tr)
}

// ActivityLogs GET /activity-logs
func (h *OpportunityHandler) ActivityLogs(c *gin.Context) {
	logs, err := h.query.ActivityLogs(c.Request.Context(), actingUser(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, ListResponse{Items: logs, Total: len(logs)})
}

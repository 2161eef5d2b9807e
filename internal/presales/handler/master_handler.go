package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/lymau/lead-app/internal/presales/service"
)

type MasterHandler struct {
	svc *service.MasterService
}

func NewMasterHandler(svc *service.MasterService) *MasterHandler {
	return &MasterHandler{svc: svc}
}

func (h *MasterHandler) ListPillars(c *gin.Context) {
	items, err := h.svc.ListPillars(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, ListResponse{Items: items, Total: len(items)})
}

func (h *MasterHandler) ListBrands(c *gin.Context) {
	items, err := h.svc.ListBrands(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, ListResponse{Items: items, Total: len(items)})
}

// BrandChannels GET /master/brands/:brand/channels
func (h *MasterHandler) BrandChannels(c *gin.Context) {
	channels, err := h.svc.BrandChannels(c.Request.Context(), c.Param("brand"))
	if err != nil {
		Fail(c, err)
		return
	}
	if channels == nil {
		channels = []string{}
	}
	Success(c, gin.H{"brand": c.Param("brand"), "channels": channels})
}

func (h *MasterHandler) ListCompanies(c *gin.Context) {
	items, err := h.svc.ListCompanies(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, ListResponse{Items: items, Total: len(items)})
}

type AddCompanyRequest struct {
	CompanyName      string `json:"company_name"`
	VerticalIndustry string `json:"vertical_industry"`
}

// AddCompany POST /master/companies. 201 when added, 200 when it already existed.
func (h *MasterHandler) AddCompany(c *gin.Context) {
	var req AddCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	added, err := h.svc.AddCompany(c.Request.Context(), req.CompanyName, req.VerticalIndustry)
	if err != nil {
		Fail(c, err)
		return
	}
	data := gin.H{"company_name": req.CompanyName, "added": added}
	if added {
		Created(c, data)
		return
	}
	Success(c, data)
}

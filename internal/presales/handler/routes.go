package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the presales API on an authenticated group.
func RegisterRoutes(api *gin.RouterGroup, h *Handlers) {
	presales := api.Group("/presales")
	{
		presales.POST("/opportunities", h.Opportunity.Submit)
		presales.GET("/opportunities", h.Opportunity.List)
		presales.GET("/opportunities/export", h.Export.Export)
		presales.GET("/opportunities/:uid", h.Opportunity.GetLine)
		presales.PATCH("/opportunities/:uid", h.Opportunity.UpdateLine)
		presales.PUT("/opportunities/:uid", h.Opportunity.EditLine)

		presales.GET("/deals/:opportunityId", h.Opportunity.GetLines)
		presales.GET("/deals/:opportunityId/summary", h.Opportunity.Summary)

		presales.GET("/activity-logs", h.Opportunity.ActivityLogs)

		master := presales.Group("/master")
		master.GET("/pillars", h.Master.ListPillars)
		master.GET("/brands", h.Master.ListBrands)
		master.GET("/brands/:brand/channels", h.Master.BrandChannels)
		master.GET("/companies", h.Master.ListCompanies)
		master.POST("/companies", h.Master.AddCompany)
	}
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lymau/lead-app/internal/presales/service"
)

type ExportHandler struct {
	svc *service.ExportService
}

func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{svc: svc}
}

// Export GET /opportunities/export. Streams the workbook; X-Archive-URL points at the stored copy when archiving is on.
func (h *ExportHandler) Export(c *gin.Context) {
	res, err := h.svc.ExportOpportunities(c.Request.Context(), actingUser(c))
	if err != nil {
		Fail(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+res.FileName+"\"")
	c.Header("Content-Transfer-Encoding", "binary")
	if res.URL != "" {
		c.Header("X-Archive-URL", res.URL)
	}
	c.Data(http.StatusOK, service.XLSXContentType, res.Data)
}

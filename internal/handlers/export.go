package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"docportal-backend/internal/middleware"
	"docportal-backend/internal/services"
)

type ExportHandler struct {
	service *services.DocumentationService
}

func NewExportHandler(service *services.DocumentationService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Export godoc
// @Summary     Download the documentation
// @Tags        export
// @Produce     plain
// @Param       project_id path  string true  "Project ID"
// @Param       format     query string false "markdown, html or text"
// @Success     200 {string} string
// @Router      /projects/{project_id}/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	export, err := h.service.Export(c.Request.Context(), middleware.ActorFromContext(c), id, c.Query("format"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, export.ContentType, []byte(export.Body))
}

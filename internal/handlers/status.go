package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docportal-backend/internal/middleware"
	"docportal-backend/internal/services"
)

type StatusHandler struct {
	service *services.DocumentationService
}

func NewStatusHandler(service *services.DocumentationService) *StatusHandler {
	return &StatusHandler{service: service}
}

// GetStatus godoc
// @Summary     Get generation status
// @Description Returns status and progress of the project's documentation generation. Clients poll this endpoint.
// @Tags        status
// @Produce     json
// @Param       project_id path string true "Project ID"
// @Success     200 {object} models.StatusResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/status [get]
func (h *StatusHandler) GetStatus(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	project, err := h.service.GetProject(c.Request.Context(), middleware.ActorFromContext(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toStatusResponse(project))
}

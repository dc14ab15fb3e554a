package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docportal-backend/internal/middleware"
	"docportal-backend/internal/models"
	"docportal-backend/internal/services"
)

type SectionsHandler struct {
	service *services.DocumentationService
}

func NewSectionsHandler(service *services.DocumentationService) *SectionsHandler {
	return &SectionsHandler{service: service}
}

// GetSections godoc
// @Summary     Get rendered documentation sections
// @Tags        sections
// @Produce     json
// @Param       project_id path string true "Project ID"
// @Success     200 {object} models.SectionsResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /projects/{project_id}/sections [get]
func (h *SectionsHandler) GetSections(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	tree, err := h.service.Sections(c.Request.Context(), middleware.ActorFromContext(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SectionsResponse{
		ProjectID: id.String(),
		Sections:  toSectionResponses(tree),
	})
}

// SaveSection godoc
// @Summary     Save one edited section
// @Description Stores the editor buffer for a single section without touching the generated documentation
// @Tags        sections
// @Accept      json
// @Produce     json
// @Param       project_id path string                    true "Project ID"
// @Param       section_id path string                    true "Section ID"
// @Param       request    body models.SaveSectionRequest true "Editor buffer"
// @Success     200 {object} models.SaveSectionResponse
// @Security    Bearer
// @Router      /projects/{project_id}/sections/{section_id} [put]
func (h *SectionsHandler) SaveSection(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	var req models.SaveSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	sectionID := c.Param("section_id")
	html, err := h.service.SaveSection(c.Request.Context(), middleware.ActorFromContext(c), id, sectionID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SaveSectionResponse{SectionID: sectionID, HTML: html})
}

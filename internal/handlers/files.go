package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docportal-backend/internal/docgen"
	"docportal-backend/internal/middleware"
	"docportal-backend/internal/models"
	"docportal-backend/internal/services"
)

type FilesHandler struct {
	service *services.DocumentationService
}

func NewFilesHandler(service *services.DocumentationService) *FilesHandler {
	return &FilesHandler{service: service}
}

// GetFiles godoc
// @Summary     List project files
// @Tags        files
// @Produce     json
// @Param       project_id path string true "Project ID"
// @Success     200 {object} models.FilesResponse
// @Router      /projects/{project_id}/files [get]
func (h *FilesHandler) GetFiles(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	project, err := h.service.GetProject(c.Request.Context(), middleware.ActorFromContext(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.FilesResponse{Files: toFileInfos(project.Files)})
}

// GetFileContent godoc
// @Summary     Get one file's text
// @Tags        files
// @Produce     json
// @Param       project_id path string true "Project ID"
// @Param       filename   path string true "Original file name"
// @Success     200 {object} models.FileContentResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/files/{filename} [get]
func (h *FilesHandler) GetFileContent(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	name := strings.TrimPrefix(c.Param("filename"), "/")
	file, err := h.service.GetFile(c.Request.Context(), middleware.ActorFromContext(c), id, name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.FileContentResponse{
		Filename: file.OriginalName,
		Language: docgen.Language(file.OriginalName),
		Size:     file.Size,
		Content:  file.Content,
	})
}

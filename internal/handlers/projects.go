package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"docportal-backend/internal/extractor"
	"docportal-backend/internal/middleware"
	"docportal-backend/internal/models"
	"docportal-backend/internal/services"
)

const multipartMemory = 8 << 20

type ProjectsHandler struct {
	service        *services.DocumentationService
	maxUploadBytes int64
}

func NewProjectsHandler(service *services.DocumentationService, maxUploadBytes int64) *ProjectsHandler {
	return &ProjectsHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
	}
}

// CreateProject godoc
// @Summary     Create a project
// @Description Uploads source files (or ZIP archives) and starts documentation generation in the background
// @Tags        projects
// @Accept      multipart/form-data
// @Produce     json
// @Param       title       formData string true  "Project title"
// @Param       description formData string false "Project description"
// @Param       tags        formData string false "Comma separated tags"
// @Param       is_public   formData bool   false "Visible to everyone"
// @Param       files       formData file   true  "Files to document"
// @Success     202 {object} models.ProjectResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     413 {object} models.ErrorResponse
// @Security    Bearer
// @Router      /projects [post]
func (h *ProjectsHandler) CreateProject(c *gin.Context) {
	actor := middleware.ActorFromContext(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
				Error:   "upload too large",
				Message: fmt.Sprintf("uploads are limited to %d bytes", h.maxUploadBytes),
			})
			return
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid multipart form", Message: err.Error()})
		return
	}

	form := c.Request.MultipartForm
	uploads, err := readUploads(form.File["files"])
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to read upload", Message: err.Error()})
		return
	}

	isPublic, _ := strconv.ParseBool(c.PostForm("is_public"))
	project, err := h.service.CreateProject(c.Request.Context(), actor.UserID, services.CreateProjectInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Tags:        parseTags(form.Value["tags"]),
		IsPublic:    isPublic,
		Uploads:     uploads,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, toProjectResponse(project))
}

func readUploads(headers []*multipart.FileHeader) ([]extractor.RawUpload, error) {
	uploads := make([]extractor.RawUpload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}
		uploads = append(uploads, extractor.RawUpload{Filename: fh.Filename, Data: data})
	}
	return uploads, nil
}

// parseTags accepts repeated fields as well as comma separated values.
func parseTags(values []string) []string {
	var tags []string
	for _, v := range values {
		tags = append(tags, strings.Split(v, ",")...)
	}
	return tags
}

// ListProjects godoc
// @Summary     List projects
// @Description Guests see public projects, admins see every project, other users see their own. scope=public lists public projects for anyone.
// @Tags        projects
// @Produce     json
// @Param       scope query string false "public"
// @Success     200 {object} models.ProjectListResponse
// @Router      /projects [get]
func (h *ProjectsHandler) ListProjects(c *gin.Context) {
	projects, err := h.service.ListProjects(c.Request.Context(), middleware.ActorFromContext(c), c.Query("scope") == "public")
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.ProjectListResponse{Projects: make([]models.ProjectSummary, 0, len(projects))}
	for i := range projects {
		resp.Projects = append(resp.Projects, toProjectSummary(&projects[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetProject godoc
// @Summary     Get project details
// @Tags        projects
// @Produce     json
// @Param       project_id path string true "Project ID"
// @Success     200 {object} models.ProjectResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id} [get]
func (h *ProjectsHandler) GetProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	project, err := h.service.GetProject(c.Request.Context(), middleware.ActorFromContext(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProjectResponse(project))
}

func (h *ProjectsHandler) UpdateProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	var req models.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	project, err := h.service.UpdateProject(c.Request.Context(), middleware.ActorFromContext(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProjectResponse(project))
}

// DeleteProject godoc
// @Summary     Delete a project
// @Description Deletes the project and its stored files
// @Tags        projects
// @Param       project_id path string true "Project ID"
// @Success     204
// @Failure     404 {object} models.ErrorResponse
// @Security    Bearer
// @Router      /projects/{project_id} [delete]
func (h *ProjectsHandler) DeleteProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteProject(c.Request.Context(), middleware.ActorFromContext(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Regenerate godoc
// @Summary     Regenerate documentation
// @Description Discards the current documentation and section edits and generates again from the stored files
// @Tags        projects
// @Produce     json
// @Param       project_id path string true "Project ID"
// @Success     202 {object} models.ProjectResponse
// @Security    Bearer
// @Router      /projects/{project_id}/regenerate [post]
func (h *ProjectsHandler) Regenerate(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	project, err := h.service.Regenerate(c.Request.Context(), middleware.ActorFromContext(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, toProjectResponse(project))
}

func (h *ProjectsHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

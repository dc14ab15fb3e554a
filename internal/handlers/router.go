package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"docportal-backend/internal/config"
	"docportal-backend/internal/middleware"
	"docportal-backend/internal/services"
)

// NewRouter wires every route of the API.
func NewRouter(cfg *config.Config, service *services.DocumentationService, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestLogger(logger))
	router.Use(gin.Recovery())

	projectsHandler := NewProjectsHandler(service, cfg.MaxUploadBytes())
	statusHandler := NewStatusHandler(service)
	filesHandler := NewFilesHandler(service)
	sectionsHandler := NewSectionsHandler(service)
	exportHandler := NewExportHandler(service)
	healthHandler := NewHealthHandler(service)

	router.GET("/health", healthHandler.Health)

	api := router.Group("/api/v1")
	api.GET("/health", healthHandler.Health)

	auth := middleware.AuthMiddleware(cfg)
	optional := middleware.OptionalAuth(cfg)

	// Project routes
	api.POST("/projects", auth, projectsHandler.CreateProject)
	api.GET("/projects", optional, projectsHandler.ListProjects)
	api.GET("/projects/stats", auth, projectsHandler.Stats)
	api.GET("/projects/:project_id", optional, projectsHandler.GetProject)
	api.PUT("/projects/:project_id", auth, projectsHandler.UpdateProject)
	api.DELETE("/projects/:project_id", auth, projectsHandler.DeleteProject)
	api.POST("/projects/:project_id/regenerate", auth, projectsHandler.Regenerate)

	// Status and files
	api.GET("/projects/:project_id/status", optional, statusHandler.GetStatus)
	api.GET("/projects/:project_id/files", optional, filesHandler.GetFiles)
	api.GET("/projects/:project_id/files/*filename", optional, filesHandler.GetFileContent)

	// Sections and export
	api.GET("/projects/:project_id/sections", optional, sectionsHandler.GetSections)
	api.PUT("/projects/:project_id/sections/:section_id", auth, sectionsHandler.SaveSection)
	api.GET("/projects/:project_id/export", optional, exportHandler.Export)

	return router
}

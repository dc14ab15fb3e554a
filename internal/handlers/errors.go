package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docportal-backend/internal/models"
	"docportal-backend/internal/services"
)

// respondError maps service errors to HTTP responses.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "validation failed", Message: verr.Error()})
	case errors.Is(err, models.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
	case errors.Is(err, services.ErrFileNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "file not found"})
	case errors.Is(err, services.ErrSectionNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "section not found"})
	case errors.Is(err, services.ErrNoDocumentation):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "documentation not available", Message: err.Error()})
	case errors.Is(err, services.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "unsupported format", Message: err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal server error", Message: err.Error()})
	}
}

func projectID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
		return uuid.Nil, false
	}
	return id, true
}

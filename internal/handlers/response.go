package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"door-catalog/internal/importer"
	"door-catalog/internal/repository"
	"door-catalog/internal/settings"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// ValidationError representa un error de validación
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// respondError traduce errores conocidos a su código HTTP; el resto es 500
// con un mensaje genérico
func respondError(c *gin.Context, err error, fallback string) {
	var validation *ValidationError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: validation.Message})
	case errors.Is(err, repository.ErrProductNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "product not found"})
	case errors.Is(err, repository.ErrSlugTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, settings.ErrUnknownList),
		errors.Is(err, importer.ErrNoRows),
		errors.Is(err, importer.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		zap.L().Error(fallback, zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fallback})
	}
}

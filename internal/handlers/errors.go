package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/ewaste-check/internal/geo"
	"github.com/example/ewaste-check/internal/pipeline"
	"github.com/example/ewaste-check/internal/repository"
	"github.com/example/ewaste-check/internal/usecase"
)

// MapHTTPStatus maps domain and storage errors to response codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrBinNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrClassifierFailure):
		return http.StatusBadGateway
	case errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrInvalidBin), errors.Is(err, geo.ErrInvalidCoordinates):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrProcessing):
		return http.StatusAccepted
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	status := MapHTTPStatus(err)
	var message string
	switch status {
	case http.StatusNotFound:
		message = "not found"
		if errors.Is(err, pipeline.ErrBinNotFound) {
			message = "Selected bin not found"
		}
	case http.StatusBadGateway:
		message = "classifier unavailable"
	case http.StatusConflict:
		message = "already exists"
	case http.StatusBadRequest:
		message = err.Error()
	default:
		message = "internal error"
	}
	c.JSON(status, gin.H{"error": message})
}

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"thanwia-dashboard/cache"
	"thanwia-dashboard/engine"
	"thanwia-dashboard/loader"
)

// APIError is the JSON body of every failed request
type APIError struct {
	Status  int         `json:"-"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

// toAPIError maps domain errors to HTTP responses
func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var schemaErr *loader.SchemaError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &schemaErr):
		return &APIError{
			Status:  http.StatusUnprocessableEntity,
			Code:    "SCHEMA_ERROR",
			Message: schemaErr.Error(),
			Details: gin.H{"missing": schemaErr.Missing, "sheet": schemaErr.Sheet},
		}
	case errors.Is(err, loader.ErrInvalidWorkbook):
		return &APIError{Status: http.StatusUnprocessableEntity, Code: "INVALID_FILE", Message: "The file is not a readable Excel workbook"}
	case errors.Is(err, loader.ErrMissingInput):
		return &APIError{Status: http.StatusBadRequest, Code: "MISSING_INPUT", Message: "No file supplied"}
	case errors.As(err, &tooLarge):
		return &APIError{Status: http.StatusRequestEntityTooLarge, Code: "PAYLOAD_TOO_LARGE", Message: "Upload exceeds the size limit"}
	case errors.Is(err, cache.ErrNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "DATASET_NOT_FOUND", Message: "Dataset not found, upload the file again"}
	case errors.Is(err, engine.ErrEmptyDataset):
		return &APIError{Status: http.StatusUnprocessableEntity, Code: "EMPTY_DATASET", Message: "The dataset has no student records"}
	case errors.Is(err, engine.ErrInvalidLimit):
		return &APIError{Status: http.StatusBadRequest, Code: "INVALID_PARAMETER", Message: err.Error()}
	default:
		return &APIError{Status: http.StatusInternalServerError, Code: "INTERNAL_SERVER_ERROR", Message: "Internal server error"}
	}
}

// respondError logs server-side failures and writes the error body
func (h *APIHandler) respondError(c *gin.Context, err error) {
	apiErr := toAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		h.logger.ErrorContext(c.Request.Context(), "request failed",
			slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	}
	c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
}

func badRequest(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: "INVALID_REQUEST", Message: message}
}

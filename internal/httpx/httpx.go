package httpx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/martpos/inventory-service/internal/model"
)

// OK writes the success envelope.
func OK(c *gin.Context, code int, data any) {
	c.JSON(code, gin.H{"success": true, "data": data})
}

// OKWithWarnings writes the success envelope with non-fatal warnings attached.
func OKWithWarnings(c *gin.Context, code int, data any, warnings []string) {
	if len(warnings) == 0 {
		OK(c, code, data)
		return
	}
	c.JSON(code, gin.H{"success": true, "data": data, "warnings": warnings})
}

// Fail writes the failure envelope, mapping known domain errors to statuses.
func Fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error()})
}

// FailStatus writes the failure envelope with an explicit status.
func FailStatus(c *gin.Context, code int, err error) {
	c.JSON(code, gin.H{"success": false, "error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrProductNotFound),
		errors.Is(err, model.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrSKUTaken),
		errors.Is(err, model.ErrBarcodeTaken),
		errors.Is(err, model.ErrSessionCommitted),
		errors.Is(err, model.ErrCommitInProgress):
		return http.StatusConflict
	case errors.Is(err, model.ErrInsufficientStock),
		errors.Is(err, model.ErrNoRowsToCommit),
		errors.Is(err, model.ErrProviderNotSet):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrExtractionTimedOut):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

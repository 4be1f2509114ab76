package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ksugimori/docscan/internal/common"
	"github.com/ksugimori/docscan/internal/scan"
)

// respondError maps the error taxonomy to HTTP statuses at the one
// operation boundary. Whatever failed, any open transaction has already
// been rolled back by the layer below.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrValidation),
		errors.Is(err, common.ErrNoConditionSelected),
		errors.Is(err, common.ErrUnsupportedKind):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrMissingCredential):
		status = http.StatusUnauthorized
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, scan.ErrScanInFlight):
		status = http.StatusConflict
	case errors.Is(err, common.ErrFileMissing):
		status = http.StatusConflict
	case errors.Is(err, common.ErrAuth),
		errors.Is(err, common.ErrTransport),
		errors.Is(err, common.ErrUnsupportedContent),
		errors.Is(err, common.ErrExtractionFailed):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

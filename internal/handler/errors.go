package handler

import (
	"errors"
	"net/http"

	"cloudtab/internal/transport/httpdto"
	cloudtab_errors "cloudtab/pkg/errors"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors to HTTP responses. Validation and
// not-found failures carry their reason; storage and decryption failures
// collapse to a generic message so internal paths never leak.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, cloudtab_errors.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("session not found or expired", "SESSION_NOT_FOUND"))
	case errors.Is(err, cloudtab_errors.ErrFileNotFound):
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("file not found in session", "FILE_NOT_FOUND"))
	case errors.Is(err, cloudtab_errors.ErrSessionCompleted):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse("session already completed", "SESSION_COMPLETED"))
	case errors.Is(err, cloudtab_errors.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "VALIDATION_FAILED"))
	case errors.Is(err, cloudtab_errors.ErrTooManyFiles):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "TOO_MANY_FILES"))
	case errors.Is(err, cloudtab_errors.ErrTooLarge):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "FILE_TOO_LARGE"))
	case errors.Is(err, cloudtab_errors.ErrCorruptCiphertext), errors.Is(err, cloudtab_errors.ErrDecryptionFailed):
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("failed to read file", "DECRYPTION_FAILED"))
	case errors.Is(err, cloudtab_errors.ErrExhaustedRetries):
		c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("could not allocate a session", "EXHAUSTED_RETRIES"))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("internal server error", "INTERNAL_ERROR"))
	}
}

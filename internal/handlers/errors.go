package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/voyagecrm/booking-core/internal/apperrors"
	"github.com/voyagecrm/booking-core/internal/validation"
)

var codeStatus = map[string]int{
	apperrors.CodeValidation:          http.StatusBadRequest,
	apperrors.CodeAuthentication:      http.StatusUnauthorized,
	apperrors.CodeAuthorization:       http.StatusForbidden,
	apperrors.CodeNotFound:            http.StatusNotFound,
	apperrors.CodeDuplicateEntry:      http.StatusConflict,
	apperrors.CodeForeignKeyViolation: http.StatusUnprocessableEntity,
	apperrors.CodeRateLimited:         http.StatusTooManyRequests,
	apperrors.CodeNetwork:             http.StatusServiceUnavailable,
	apperrors.CodeCanceled:            statusClientClosedRequest,
}

// statusClientClosedRequest is nginx's non-standard status for a client that
// went away before the response
const statusClientClosedRequest = 499

// statusFor maps an error code to the HTTP status returned to clients
func statusFor(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	if _, ok := apperrors.HTTPStatus(code); ok {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError writes err as a JSON error body. Causes and details other
// than the validation field never leave the process.
func respondError(c *gin.Context, err error) {
	if vErr, ok := validation.AsValidationError(err); ok && apperrors.CodeOf(err) == "" {
		body := gin.H{
			"error":   "validation_error",
			"code":    apperrors.CodeValidation,
			"message": vErr.Message,
		}
		if vErr.Field != "" {
			body["field"] = vErr.Field
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}

	appErr, ok := apperrors.As(err)
	if !ok {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"code":    apperrors.CodeUnknown,
			"message": "An unexpected error occurred",
		})
		return
	}

	body := gin.H{
		"error":   strings.ToLower(appErr.Code),
		"code":    appErr.Code,
		"message": appErr.Message,
	}
	if field, ok := appErr.Details["field"].(string); ok && field != "" {
		body["field"] = field
	}
	c.JSON(statusFor(appErr.Code), body)
}

// badRequest reports a request body or parameter that could not be bound
func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid_request",
		"code":    apperrors.CodeValidation,
		"message": message,
	})
}

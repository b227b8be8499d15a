package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/estate_ledger/internal/apperrors"
	"github.com/SscSPs/estate_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr) && appErr.Code != 0:
		return appErr.Code
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrDuplicatePosting),
		errors.Is(err, apperrors.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrUnbalancedEntry),
		errors.Is(err, apperrors.ErrAccountInactive),
		errors.Is(err, apperrors.ErrInvalidAccount),
		errors.Is(err, apperrors.ErrRefundExceedsOriginal):
		return http.StatusUnprocessableEntity
	case apperrors.IsRetryable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondWithError logs err at a level that matches its status and writes the JSON body.
// Internal errors are not echoed to the caller.
func respondWithError(c *gin.Context, err error, action string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	status := statusFor(err)

	body := gin.H{"error": err.Error()}
	var dup *apperrors.DuplicatePostingError
	if errors.As(err, &dup) {
		body["existingEntryID"] = dup.ExistingEntryID
	}

	switch {
	case status == http.StatusServiceUnavailable:
		logger.Warn("Retryable failure: "+action, slog.String("error", err.Error()))
		c.Header("Retry-After", "1")
	case status >= http.StatusInternalServerError:
		logger.Error("Failed to "+action, slog.String("error", err.Error()))
		body = gin.H{"error": "Failed to " + action}
	default:
		logger.Warn("Rejected request to "+action, slog.String("error", err.Error()), slog.Int("status", status))
	}
	c.JSON(status, body)
}

// bindJSON binds the request body and writes a 400 on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind JSON", slog.String("error", err.Error()))
		body := gin.H{"error": "Invalid request format: " + err.Error()}
		if details := validationDetails(err); details != nil {
			body["details"] = details
		}
		c.JSON(http.StatusBadRequest, body)
		return false
	}
	return true
}

// actor returns the authenticated user, writing a 401 when there is none.
func actor(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}

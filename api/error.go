package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/katatrina/backoffice-BE/internal/fallback"
	"github.com/katatrina/backoffice-BE/internal/records"
	"github.com/katatrina/backoffice-BE/internal/remote"
	"github.com/rs/zerolog/log"
)

var (
	ErrInsufficientRole     = errors.New("your role does not allow this operation")
	ErrManualNotificationType = errors.New("only system and other notifications can be created manually")
)

type FailedValidationResponse struct {
	Message         string            `json:"message"`
	FieldViolations []*FieldViolation `json:"field_violations"`
}

type FieldViolation struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

func errorResponse(err error) gin.H {
	return gin.H{"error": err.Error()}
}

func failedValidationError(violations ...*FieldViolation) *FailedValidationResponse {
	return &FailedValidationResponse{
		Message:         "Invalid request parameters",
		FieldViolations: violations,
	}
}

// statusFor maps a service error to the HTTP status the client sees.
func statusFor(err error) int {
	var validationErr *fallback.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, remote.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, remote.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, records.ErrUploadFailed):
		return http.StatusBadGateway
	case errors.Is(err, fallback.ErrRemoteUnavailable), errors.Is(err, remote.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Validation errors are
// reported as field violations.
func respondError(ctx *gin.Context, err error) {
	var validationErr *fallback.ValidationError
	if errors.As(err, &validationErr) {
		ctx.JSON(http.StatusBadRequest, failedValidationError(&FieldViolation{
			Field:       validationErr.Field,
			Description: validationErr.Message,
		}))
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Err(err).Str("path", ctx.FullPath()).Msg("request failed")
	}
	ctx.JSON(status, errorResponse(err))
}

package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	analyticsdomain "github.com/aibes/standsight/internal/analytics/domain"
	"github.com/aibes/standsight/internal/dbsession"
	"github.com/aibes/standsight/internal/notify"
	"github.com/aibes/standsight/internal/period"
	"github.com/aibes/standsight/internal/report"
	reportdomain "github.com/aibes/standsight/internal/reportstore/domain"
	settingsdomain "github.com/aibes/standsight/internal/settings/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrInternal       = errors.New("internal_error")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, dbsession.ErrSessionNotFound):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "no active database session",
		}
	case errors.Is(err, dbsession.ErrConnectFailed):
		return http.StatusBadGateway, errorPayload{
			Type:    "connect_failed",
			Message: "database connection failed",
		}
	case errors.Is(err, dbsession.ErrTooManySessions):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "too_many_sessions",
			Message: "session limit reached",
		}
	case errors.Is(err, report.ErrNoData):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "no_data",
			Message: "failed to generate report: no data for period",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, notify.ErrNotConfigured),
		errors.Is(err, notify.ErrSenderMissing):
		return http.StatusPreconditionFailed, errorPayload{
			Type:    "email_not_configured",
			Message: "email settings are incomplete",
		}
	case errors.Is(err, notify.ErrAuthFailed):
		return http.StatusBadGateway, errorPayload{
			Type:    "smtp_auth_failed",
			Message: "email server rejected the credentials",
		}
	case errors.Is(err, notify.ErrRecipientsRefused):
		return http.StatusBadGateway, errorPayload{
			Type:    "recipients_refused",
			Message: "email server refused every recipient",
		}
	case errors.Is(err, notify.ErrServerClosed):
		return http.StatusBadGateway, errorPayload{
			Type:    "smtp_server_closed",
			Message: "email server closed the connection",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, period.ErrInvalidRange),
		errors.Is(err, period.ErrRangeTooWide),
		errors.Is(err, period.ErrInvalidTag),
		errors.Is(err, analyticsdomain.ErrInvalidGroupBy),
		errors.Is(err, analyticsdomain.ErrInvalidGrid),
		errors.Is(err, reportdomain.ErrInvalidFilename),
		errors.Is(err, settingsdomain.ErrInvalidCompanyName),
		errors.Is(err, notify.ErrNoRecipients):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, reportdomain.ErrRecordNotFound),
		errors.Is(err, reportdomain.ErrFileNotFound),
		errors.Is(err, notify.ErrAttachmentMissing),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

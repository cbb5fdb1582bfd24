// Package httperr turns usecase and persistence errors into the JSON error
// responses shared by every handler.
package httperr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"crud_backend/internal/platform/persistence"
	"crud_backend/internal/platform/search"
	"crud_backend/internal/shared/validation"
)

// Severity of a message shown to the user.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
	SeverityFatal Severity = "fatal"
)

// ErrorPage is where clients go after an unexpected failure.
const ErrorPage = "/error?expired=true"

// Message is one user-facing message.
type Message struct {
	Severity Severity `json:"severity"`
	Summary  string   `json:"summary"`
}

// Response is the body of every error response.
type Response struct {
	Error    string    `json:"error"`
	Messages []Message `json:"messages"`
	Redirect string    `json:"redirect,omitempty"`
}

const (
	msgConstraint = "This record cannot be removed because other records reference it."
	msgStale      = "This record was changed or removed by another user. Query again."
	msgUnexpected = "The system recovered from an unexpected error."
	msgContinue   = "You can continue using the system normally."
)

// Classify returns the HTTP status and body for err.
func Classify(err error) (int, Response) {
	switch {
	case validation.Is(err),
		errors.Is(err, search.ErrNoField),
		errors.Is(err, search.ErrNoMode),
		errors.Is(err, search.ErrUnknownMode),
		errors.Is(err, search.ErrInvalidIdentifier):
		return http.StatusUnprocessableEntity, warn(err.Error())
	case errors.Is(err, persistence.ErrNotFound):
		return http.StatusNotFound, Response{
			Error:    "record not found",
			Messages: []Message{{Severity: SeverityError, Summary: "Record not found."}},
		}
	case errors.Is(err, persistence.ErrConstraint):
		return http.StatusConflict, warn(msgConstraint)
	case errors.Is(err, persistence.ErrDuplicate):
		return http.StatusConflict, warn("A record with the same values already exists.")
	case errors.Is(err, persistence.ErrStaleObject):
		return http.StatusConflict, Response{
			Error:    msgStale,
			Messages: []Message{{Severity: SeverityError, Summary: msgStale}},
		}
	default:
		return http.StatusInternalServerError, Response{
			Error: "internal server error",
			Messages: []Message{
				{Severity: SeverityFatal, Summary: msgUnexpected},
				{Severity: SeverityInfo, Summary: msgContinue},
			},
			Redirect: ErrorPage,
		}
	}
}

// Respond records err on c, logs it by severity and aborts with the classified response.
func Respond(c *gin.Context, err error) {
	_ = c.Error(err)
	status, body := Classify(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	} else {
		slog.Warn("request rejected", "method", c.Request.Method, "path", c.FullPath(), "status", status, "error", err)
	}
	c.AbortWithStatusJSON(status, body)
}

func warn(summary string) Response {
	return Response{
		Error:    summary,
		Messages: []Message{{Severity: SeverityWarn, Summary: summary}},
	}
}

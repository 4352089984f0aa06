package web

// errors.go turns handler errors into responses.
//
// The technical error is logged with the request id; the client receives the
// mapped core.UserMessage as JSON, or as an alert fragment for HTMX requests.
// The "error" field carries the plain message so existing portal clients that
// read only that field keep working.

import (
	"errors"
	"net/http"

	"github.com/telepoint/emi-portal/internal/core"
	"github.com/telepoint/emi-portal/internal/logging"
	"github.com/telepoint/emi-portal/internal/web/templates"
)

var (
	errRateLimited = errors.New("rate limit exceeded")
	errNoFile      = errors.New("no file provided")
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrNotAuthorized), errors.Is(err, core.ErrRetailerNotFound):
		return http.StatusForbidden
	case errors.Is(err, core.ErrTooManyImports), errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrNoRows),
		errors.Is(err, core.ErrUnsupportedFile),
		errors.Is(err, errNoFile),
		errors.Is(err, core.ErrLookupIdentifierRequired),
		errors.Is(err, core.ErrInvalidAadhaar),
		errors.Is(err, core.ErrInvalidMobile):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrCustomerNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrAmbiguousMobile):
		return http.StatusConflict
	case errors.Is(err, core.ErrReportNotFound), errors.Is(err, core.ErrUnknownCustomer):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped user message with the status from statusFor.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	s.respondErrorStatus(w, r, err, statusFor(err))
}

func (s *Server) respondErrorStatus(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
			logger.Error("render error alert", "error", err)
		}
		return
	}

	writeJSON(w, r, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

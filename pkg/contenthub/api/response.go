package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/pagedao/hub-api/pkg/contenthub"
)

// Error codes carried in error envelopes.
const (
	CodeNotFound      = "NOT_FOUND"
	CodeInvalidParam  = "INVALID_PARAM"
	CodeMissingParam  = "MISSING_PARAM"
	CodeInvalidMethod = "INVALID_METHOD"
	CodeRateLimited   = "RATE_LIMITED"
	CodeServerError   = "SERVER_ERROR"
)

const internalErrorMessage = "An internal server error occurred"

// Envelope wraps every response body.
type Envelope struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorBody `json:"error,omitempty"`
	Timestamp int64      `json:"timestamp"`
}

// ErrorBody describes a failed request. Frame clients get the message only.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// StatusFor maps a service error to its HTTP status and error code.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, contenthub.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, contenthub.ErrMissingParam):
		return http.StatusBadRequest, CodeMissingParam
	case errors.Is(err, contenthub.ErrInvalidParam):
		return http.StatusBadRequest, CodeInvalidParam
	case errors.Is(err, contenthub.ErrUnsupportedOperation):
		return http.StatusBadRequest, CodeInvalidMethod
	default:
		return http.StatusInternalServerError, CodeServerError
	}
}

func timestamp() int64 {
	return time.Now().UnixMilli()
}

// respond writes a success envelope.
func respond(w http.ResponseWriter, r *http.Request, data any) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, Envelope{Success: true, Data: data, Timestamp: timestamp()})
}

// respondError writes an error envelope with a caller chosen status.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	body := &ErrorBody{Message: message, Code: code}
	if IsFrame(r.Context()) {
		body.Code = ""
	}
	render.Status(r, status)
	render.JSON(w, r, Envelope{Success: false, Error: body, Timestamp: timestamp()})
}

// respondErr maps err and writes it. Server errors hide their message.
func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status, code := StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Request failed", "operation", operation, "path", r.URL.Path, "request_id", RequestID(r.Context()), "error", err)
		message = internalErrorMessage
	}
	respondError(w, r, status, code, message)
}

// internal/app/features/errors/errors.go
//
// Package errors writes JSON error responses and logs them. Every error body
// has the shape {"error": <code>, "message": <text>} with an optional
// "field" naming the input that failed validation.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/hakbangquest/hakbangweb/internal/app/admingate"
	"github.com/hakbangquest/hakbangweb/internal/app/suggestion"
	"go.uber.org/zap"
)

// Error codes carried in the "error" member.
const (
	CodeValidation      = "validation"
	CodeUnauthorized    = "unauthorized"
	CodeInvalidLogin    = "authentication"
	CodeNotAuthorized   = "not_authorized"
	CodeUnavailable     = "store_unavailable"
	CodeTooManyRequests = "too_many_requests"
	CodeNotFound        = "not_found"
	CodeInternal        = "internal"
)

// Body is the JSON error envelope.
type Body struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorLogger logs a failure and writes the matching JSON response.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{Log: logger}
}

func (e *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	f := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if err != nil {
		f = append(f, zap.Error(err))
	}
	return f
}

// LogBadRequest responds 400 for input that failed validation.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, field, userMsg string) {
	e.Log.Info(msg, e.fields(r, err)...)
	WriteJSON(w, http.StatusBadRequest, Body{Error: CodeValidation, Message: userMsg, Field: field})
}

// LogUnauthorized responds 401 for rejected credentials or a missing session.
func (e *ErrorLogger) LogUnauthorized(w http.ResponseWriter, r *http.Request, msg string, err error, code, userMsg string) {
	e.Log.Info(msg, e.fields(r, err)...)
	WriteJSON(w, http.StatusUnauthorized, Body{Error: code, Message: userMsg})
}

// LogForbidden responds 403 for a signed-in caller who is not the administrator.
func (e *ErrorLogger) LogForbidden(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Warn(msg, e.fields(r, err)...)
	WriteJSON(w, http.StatusForbidden, Body{Error: CodeNotAuthorized, Message: userMsg})
}

// LogUnavailable responds 503 when a backing service could not be reached.
func (e *ErrorLogger) LogUnavailable(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Error(msg, e.fields(r, err)...)
	WriteJSON(w, http.StatusServiceUnavailable, Body{Error: CodeUnavailable, Message: userMsg})
}

// LogTooManyRequests responds 429 for throttled callers.
func (e *ErrorLogger) LogTooManyRequests(w http.ResponseWriter, r *http.Request, msg string, userMsg string) {
	e.Log.Warn(msg, e.fields(r, nil)...)
	WriteJSON(w, http.StatusTooManyRequests, Body{Error: CodeTooManyRequests, Message: userMsg})
}

// LogNotFound responds 404.
func (e *ErrorLogger) LogNotFound(w http.ResponseWriter, r *http.Request, msg string, userMsg string) {
	e.Log.Info(msg, e.fields(r, nil)...)
	WriteJSON(w, http.StatusNotFound, Body{Error: CodeNotFound, Message: userMsg})
}

// LogServerError responds 500 for anything unexpected.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Error(msg, e.fields(r, err)...)
	WriteJSON(w, http.StatusInternalServerError, Body{Error: CodeInternal, Message: userMsg})
}

// Respond maps a domain error onto the matching response.
func (e *ErrorLogger) Respond(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var ve *suggestion.ValidationError
	switch {
	case stderrors.As(err, &ve):
		e.LogBadRequest(w, r, msg, err, ve.Field, ve.Field+" "+ve.Reason)
	case stderrors.Is(err, suggestion.ErrStoreUnavailable):
		e.LogUnavailable(w, r, msg, err, "The suggestion store is unavailable. Please try again.")
	case stderrors.Is(err, admingate.ErrAuthentication):
		e.LogUnauthorized(w, r, msg, err, CodeInvalidLogin, "Invalid email or password.")
	case stderrors.Is(err, admingate.ErrNotAuthorized):
		e.LogForbidden(w, r, msg, err, "This account is not the administrator.")
	case stderrors.Is(err, context.DeadlineExceeded):
		e.LogUnavailable(w, r, msg, err, "The request timed out. Please try again.")
	default:
		e.LogServerError(w, r, msg, err, "Something went wrong.")
	}
}

// NotFound is the router's fallback handler.
func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, Body{Error: CodeNotFound, Message: "No such endpoint."})
}

// MethodNotAllowed is the router's 405 handler.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusMethodNotAllowed, Body{Error: "method_not_allowed", Message: "Method not allowed."})
}

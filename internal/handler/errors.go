package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/itinera/backend/internal/domain"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine-readable code and a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorStatus maps a domain sentinel to its HTTP status and error code.
// Order matters: the more specific sentinel is checked first.
var errorStatus = []struct {
	sentinel error
	status   int
	code     string
}{
	{domain.ErrValidation, http.StatusUnprocessableEntity, "validation_error"},
	{domain.ErrActivityNotFound, http.StatusNotFound, "activity_not_found"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrNotAuthorized, http.StatusForbidden, "forbidden"},
	{domain.ErrAlreadyCollaborator, http.StatusConflict, "already_collaborator"},
	{domain.ErrRecommendationEngineUnavailable, http.StatusServiceUnavailable, "recommendation_engine_unavailable"},
}

// writeServiceError translates an error returned by a service into a JSON
// error response. Anything that is not a known domain sentinel is logged and
// reported as a 500 without detail.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.sentinel) {
			writeError(w, e.status, e.code, unwrapMessage(err, e.sentinel))
			return
		}
	}
	s.log.ErrorContext(r.Context(), "unhandled service error",
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
	)
	writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

// unwrapMessage extracts the human-readable part after the sentinel text.
// e.g. "service.ItineraryService.Create: validation error: title is required" → "title is required"
// When the sentinel carries no detail its own text is returned.
func unwrapMessage(err, sentinel error) string {
	msg := err.Error()
	key := sentinel.Error() + ": "
	if i := strings.LastIndex(msg, key); i >= 0 {
		return msg[i+len(key):]
	}
	return sentinel.Error()
}

// requestError reports a request rejected before it reached a service,
// e.g. a malformed body or query parameter.
func requestError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnprocessableEntity, "validation_error", message)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody reads a JSON request body into dst. It writes the error
// response itself and reports false when the body is unusable.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", "request body too large")
	case errors.Is(err, io.EOF):
		requestError(w, "request body is required")
	default:
		requestError(w, "malformed request body: "+err.Error())
	}
	return false
}

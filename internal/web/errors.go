package web

// errors.go renders every error response the same way:
//  1. the error is mapped via core.MapError to a user-facing message
//  2. the technical error is logged with the request ID
//  3. the message is written as an HTMX fragment, JSON or plain text

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/ordersan/internal/core"
	"github.com/JonMunkholm/ordersan/internal/logging"
	"github.com/JonMunkholm/ordersan/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`

	// Detail is the technical error text for validation failures the
	// client caused, such as the offending line and column.
	Detail string `json:"detail,omitempty"`

	// RunID is set when validation ran far enough to produce a report.
	RunID string `json:"run_id,omitempty"`
}

var notFoundMessage = core.UserMessage{
	Message: "No report with that run ID",
	Action:  "Reports are kept for the most recent runs only; validate again",
	Code:    "RPT404",
}

var busyMessage = core.UserMessage{
	Message: "The server is busy validating other uploads",
	Action:  "Wait a moment and try again",
	Code:    "SRV503",
}

// respondError logs err server-side and writes a user-friendly response
// in the format the client asked for.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	s.writeError(w, r, err, statusCode, "")
}

// respondRunError reports a hard invariant violation, linking the partial
// report that records it.
func (s *Server) respondRunError(w http.ResponseWriter, r *http.Request, err error, rep *core.Report) {
	status := http.StatusInternalServerError
	if errors.Is(err, core.ErrDuplicateKey) {
		status = http.StatusUnprocessableEntity
	}
	s.writeError(w, r, err, status, rep.RunID.String())
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, statusCode int, runID string) {
	userMsg := core.MapError(err)
	switch {
	case errors.Is(err, errReportNotFound):
		userMsg = notFoundMessage
	case errors.Is(err, errBusy):
		userMsg = busyMessage
	}

	logger := logging.FromContext(r.Context())
	logger.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	resp := ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
		RunID:   runID,
	}
	if statusCode < http.StatusInternalServerError {
		resp.Detail = err.Error()
	}

	switch {
	case isHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(statusCode)
		templates.ErrorAlert(userMsg.Message, userMsg.Action, userMsg.Code).Render(r.Context(), w)
	case wantsJSON(r):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(resp)
	default:
		http.Error(w, userMsg.Message+" ("+userMsg.Code+")", statusCode)
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}

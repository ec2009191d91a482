package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/texbuilder/internal/logfields"
)

// HTTPErrorAdapter writes errors as JSON payloads with a status code derived
// from the error category.
type HTTPErrorAdapter struct {
	logger *slog.Logger
}

// NewHTTPErrorAdapter creates an adapter. A nil logger means slog.Default().
func NewHTTPErrorAdapter(logger *slog.Logger) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPErrorAdapter{logger: logger}
}

// HTTPErrorResponse represents a standard JSON error payload.
type HTTPErrorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
}

var statusByCategory = map[ErrorCategory]int{
	CategoryValidation:    http.StatusBadRequest,
	CategoryConfig:        http.StatusBadRequest,
	CategoryInput:         http.StatusUnprocessableEntity,
	CategoryCompile:       http.StatusUnprocessableEntity,
	CategoryBuild:         http.StatusUnprocessableEntity,
	CategoryAuth:          http.StatusUnauthorized,
	CategoryNotFound:      http.StatusNotFound,
	CategoryAlreadyExists: http.StatusConflict,
	CategoryNetwork:       http.StatusBadGateway,
	CategoryGit:           http.StatusBadGateway,
	CategoryRuntime:       http.StatusServiceUnavailable,
	CategoryDaemon:        http.StatusServiceUnavailable,
}

// StatusCodeFor maps an error to an HTTP status. Unclassified errors and
// storage failures are 500.
func (a *HTTPErrorAdapter) StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if c, ok := AsClassified(err); ok {
		if status, ok := statusByCategory[c.Category()]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// WriteErrorResponse writes the JSON payload for err and logs it. Client
// errors are logged at warn level, server errors at error level.
func (a *HTTPErrorAdapter) WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	status := a.StatusCodeFor(err)
	b, jerr := json.Marshal(a.FormatErrorResponse(err))
	if jerr != nil {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	a.logger.LogAttrs(r.Context(), level, "Request failed",
		logfields.Method(r.Method),
		logfields.Path(r.URL.Path),
		slog.Int("status", status),
		slog.String("category", string(GetCategory(err))),
		logfields.Error(err))
}

// FormatErrorResponse converts err into the canonical payload. Context
// values become details.
func (a *HTTPErrorAdapter) FormatErrorResponse(err error) HTTPErrorResponse {
	if err == nil {
		return HTTPErrorResponse{}
	}
	c, ok := AsClassified(err)
	if !ok {
		return HTTPErrorResponse{Error: err.Error()}
	}

	resp := HTTPErrorResponse{Error: c.Message(), Code: string(c.Category()), Retryable: c.CanRetry()}
	if len(c.Context()) > 0 {
		resp.Details = make(map[string]any, len(c.Context()))
		for k, v := range c.Context() {
			resp.Details[k] = v
		}
	}
	return resp
}

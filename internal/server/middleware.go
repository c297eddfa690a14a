package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"opentrends/internal/apperr"
	"opentrends/internal/bookmarks"
	"opentrends/internal/selector"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// WithLogging wraps a handler with request logging.
func WithLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		slog.Debug("server: request started", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		next(w, r)
		slog.Info("server: request completed", "method", r.Method, "path", r.URL.Path, "duration_ms", time.Since(start).Milliseconds())
	}
}

// CORS allows the browser front-end to call the API from another origin.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func JSONResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("server: encode response", "err", err)
	}
}

func ErrorResponse(w http.ResponseWriter, status int, message string) {
	JSONResponse(w, status, ErrorBody{Error: http.StatusText(status), Message: message})
}

func ParseJSONBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// writeError maps error kinds to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	body := ErrorBody{Message: err.Error(), Hint: apperr.HintOf(err)}
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, selector.ErrSuperseded):
		status = http.StatusConflict
	case apperr.Is(err, apperr.ConfigurationMissing):
		status = http.StatusServiceUnavailable
	case apperr.Is(err, apperr.UpstreamFetchFailed):
		status = http.StatusBadGateway
		body.Message = "The catalog could not be reached and no saved rankings exist yet. Try again shortly."
	case errors.Is(err, bookmarks.ErrNotFound):
		status = http.StatusNotFound
	case apperr.Is(err, apperr.PersistenceFailed):
		body.Message = "Saving failed. Please try again."
	}
	if status >= 500 {
		slog.Error("server: request failed", "status", status, "err", err)
	}
	body.Error = http.StatusText(status)
	JSONResponse(w, status, body)
}

package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/templui/datafolio/internal/ctxkeys"
	"github.com/templui/datafolio/internal/service"
	"github.com/templui/datafolio/internal/validation"
)

// maxJSONBody bounds request bodies; inline table rows are the largest payloads.
const maxJSONBody = 32 << 20

// Messages clients match on.
const (
	msgInvalidForm  = "invalid form data"
	msgUserNotFound = "User not found!"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// decodeJSON reads a JSON body into dst and validates its struct tags.
// Any failure is reported to the client as 403 invalid form data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		err = validation.Struct(dst)
	}
	if errors.Is(err, io.EOF) {
		err = errors.New("empty body")
	}
	if err != nil {
		slog.Debug("request body rejected", "error", err, "path", r.URL.Path, "request_id", ctxkeys.RequestID(r.Context()))
		writeError(w, http.StatusForbidden, msgInvalidForm)
		return false
	}
	return true
}

// handleError maps service errors to statuses. Unexpected errors are logged
// and answered with a generic 500.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidEmail):
		writeError(w, http.StatusForbidden, msgInvalidForm)
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, msgUserNotFound)
	case errors.Is(err, service.ErrPortfolioNotFound),
		errors.Is(err, service.ErrTableNotFound),
		errors.Is(err, service.ErrFileNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPortfolioExists),
		errors.Is(err, service.ErrTableExists),
		errors.Is(err, service.ErrEmailAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, service.ErrInvalidCredentials.Error())
	case errors.Is(err, service.ErrForecastUnavailable):
		slog.Warn("forecast unavailable", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusBadGateway, service.ErrForecastUnavailable.Error())
	default:
		attrs := []any{"error", err, "method", r.Method, "path", r.URL.Path, "request_id", ctxkeys.RequestID(r.Context())}
		if user := ctxkeys.User(r.Context()); user != nil {
			attrs = append(attrs, "user_id", user.ID)
		}
		slog.Error("request failed", attrs...)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func attachment(w http.ResponseWriter, filename, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"barberbook/backend/internal/calendly"
	"barberbook/backend/internal/domain"
	"barberbook/backend/internal/service/appointments"
	"barberbook/backend/internal/service/integration"
	"barberbook/backend/internal/service/tokens"
	"barberbook/backend/internal/service/users"
	"barberbook/backend/internal/store"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// readBody reads at most maxBodyBytes. On failure the response has already
// been written.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body exceeds limit")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "bad_request", "failed to read request body")
		return nil, false
	}
	return body, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, ok := readBody(w, r)
	if !ok {
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return false
	}
	return true
}

// writeServiceError maps service and store errors onto HTTP statuses.
// Unrecognized errors are logged and reported as 500 without detail.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	var vErr *domain.ValidationError
	var apiErr *calendly.APIError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, "invalid_argument", vErr.Error())
	case errors.Is(err, appointments.ErrNoCancellationURL):
		writeError(w, http.StatusBadRequest, "no_cancellation_url", "No cancellation URL available")
	case errors.Is(err, integration.ErrInvalidState):
		writeError(w, http.StatusBadRequest, "invalid_state", "Invalid or expired connect state")
	case errors.Is(err, users.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "unauthenticated", "Invalid email or password")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "Not authorized")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Not found")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", "Already exists")
	case tokens.IsNotConnected(err):
		log.Warn("provider integration unavailable", slog.Any("err", err))
		writeError(w, http.StatusConflict, "integration_not_connected", "Calendly integration not connected")
	case errors.As(err, &apiErr):
		log.Warn("provider call failed", slog.Int("provider_status", apiErr.Status), slog.String("provider_code", apiErr.Code))
		status := apiErr.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		writeError(w, status, "provider_error", "Calendly request failed")
	default:
		log.Error("request failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

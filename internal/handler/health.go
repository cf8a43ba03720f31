package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// APIVersion is reported by GET /.
const APIVersion = "1.0.0"

const pingTimeout = 2 * time.Second

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and info endpoints.
type HealthHandler struct {
	store  Pinger
	logger *slog.Logger
}

func NewHealthHandler(store Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

// HandleHealth answers 200 {"status":"ОК"} when the store responds to a
// ping, 503 {"status":"недоступно"} otherwise.
//
// HTTP: GET /health
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "недоступно"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ОК"})
}

// HandleInfo describes the API.
//
// HTTP: GET /
func (h *HealthHandler) HandleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "API социальной платформы",
		"version": APIVersion,
	})
}

// HandleNotFound is the router's fallback for unmatched paths.
func HandleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Не найдено"})
}

// HandleMethodNotAllowed answers a known path with the wrong method.
func HandleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Метод не поддерживается"})
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Singh-Codes/youtube-downloader/internal/domain"
	"github.com/Singh-Codes/youtube-downloader/internal/downloads"
	"github.com/Singh-Codes/youtube-downloader/internal/middleware"
)

// App is the handler container; dependencies are injected once at startup.
type App struct {
	Downloads *downloads.Service
	Logger    zerolog.Logger
}

func NewApp(svc *downloads.Service, logger zerolog.Logger) *App {
	return &App{Downloads: svc, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// domainError maps service errors to HTTP responses. A foreign-owner lookup
// answers exactly like an unknown id so existence is never disclosed.
func (a *App) domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusNotFound, "not_found", "download not found")
	case errors.Is(err, domain.ErrProbeFailed):
		a.error(w, http.StatusBadGateway, "probe_failed", "could not fetch video information")
	case errors.Is(err, domain.ErrNoFormats):
		a.error(w, http.StatusNotFound, "no_formats", "no suitable formats found")
	default:
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Singh-Codes/youtube-downloader/internal/http/handlers"
	"github.com/Singh-Codes/youtube-downloader/internal/infra"
	"github.com/Singh-Codes/youtube-downloader/internal/middleware"
)

func NewRouter(app *handlers.App, cfg *infra.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(cfg.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(cfg.JWTSecret))
		if cfg.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
		}

		r.Post("/v1/formats", app.FormatsQuery)

		r.Route("/v1/downloads", func(r chi.Router) {
			r.Post("/", app.DownloadsCreate)
			r.Get("/", app.DownloadsList)
			r.Get("/{id}/progress", app.DownloadProgress)
			r.Get("/{id}/file", app.DownloadFile)
		})
	})

	return r
}

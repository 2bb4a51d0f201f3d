package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ecolog/internal/analysis"
	"github.com/starford/ecolog/internal/export"
	"github.com/starford/ecolog/internal/notebookservice"
)

// RouterConfig carries what NewRouter mounts.
type RouterConfig struct {
	Notebooks   *notebookservice.Service
	Analysis    *analysis.Service
	Exporter    *export.Exporter
	AuthEnabled bool
	Token       string
	// Events, if non-nil, is mounted at GET /api/events inside the auth group.
	Events http.Handler
}

// NewRouter creates a chi router with the analysis routes at the root and
// the notebook API under /api.
func NewRouter(cfg RouterConfig) chi.Router {
	nh := NewHandler(cfg.Notebooks)
	ah := NewAnalysisHandler(cfg.Analysis, cfg.Exporter)

	r := chi.NewRouter()

	// Analysis and downloads.
	r.Post("/analyze", ah.Analyze)
	r.Get("/download/{analysis_id}", ah.DownloadZIP)
	r.Get("/download-json/{analysis_id}", ah.DownloadJSON)
	r.Get("/download-html/{analysis_id}", ah.DownloadHTML)

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.AuthEnabled, cfg.Token))

		r.Post("/ai-identify", ah.Identify)

		// Notebooks.
		r.Get("/notebooks", nh.ListNotebooks)
		r.Post("/notebooks", nh.CreateNotebook)
		r.Get("/notebooks/{id}", nh.GetNotebook)
		r.Post("/notebooks/{id}/entries", nh.AddEntry)

		// Search.
		r.Get("/search", nh.Search)

		if cfg.Events != nil {
			r.Get("/events", cfg.Events.ServeHTTP)
		}
	})

	return r
}

func logFailure(op string, err error) {
	slog.Error(op+" failed", slog.String("error", err.Error()))
}

package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/daystart-app/daystart-api/internal/api"
	apiMiddleware "github.com/daystart-app/daystart-api/internal/api/middleware"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	jobHandler := api.NewJobHandler(app.briefingService, app.logger)
	contentHandler := api.NewContentHandler(app.contentService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.config.Auth.JWTSecret)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Briefing job endpoints
			r.Post("/jobs", jobHandler.CreateOrResetJob)
			r.Get("/jobs", jobHandler.GetJobForDate)
			r.Get("/jobs/range", jobHandler.ListJobsInRange)
			r.Get("/jobs/{id}", jobHandler.GetJob)
			r.Get("/jobs/{id}/logs", jobHandler.GetJobLogs)
			r.Post("/jobs/{id}/downloaded", jobHandler.MarkDownloaded)

			// Content cache endpoint for the re-sync scheduler
			r.Put("/content", contentHandler.PutContent)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}

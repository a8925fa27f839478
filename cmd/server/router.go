package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/inkgrove/inkgrove-api/internal/api"
	apiMiddleware "github.com/inkgrove/inkgrove-api/internal/api/middleware"
)

// setupRouter configures the application router with all routes and
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	challengeHandler := api.NewChallengeHandler(app.challengeService, app.logger)
	adminHandler := api.NewAdminHandler(app.scheduler, app.logger)

	r.Route("/api", func(r chi.Router) {
		// Task pool and attempt lifecycle
		r.Get("/tasks/today", taskHandler.GetToday)
		r.Get("/tasks/stats", taskHandler.GetStats)
		r.Post("/tasks/{id}/start", taskHandler.Start)
		r.Put("/records/{id}/draft", taskHandler.SaveDraft)
		r.Post("/records/{id}/submit", taskHandler.Submit)

		// Challenges
		r.Get("/challenges/daily", challengeHandler.GetDaily)
		r.Get("/challenges/weekly", challengeHandler.GetWeekly)
		r.Post("/challenges/weekly/submit", challengeHandler.SubmitWeekly)

		// Operations
		r.Get("/admin/scheduler/status", adminHandler.GetStatus)
		r.Post("/admin/generate", adminHandler.Generate)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}

/*
 * @module api/routes
 * @description API route configuration, initializes and wires all HTTP routes
 * @architecture RESTful API
 * @documentReference dev_docs/qs_score_requirements.md
 * @stateFlow stateless HTTP request handling
 * @rules RESTful conventions, unified error handling and response format
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs dev_docs/qs_score_model.md
 */

package api

import (
	"qs-service/api/controllers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// InitRoute initializes all API routes
func InitRoute(r *chi.Mux) {
	// base middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// health checks
	healthController := controllers.NewHealthController()
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// QS Score
	r.Route("/qs-score", func(r chi.Router) {
		qsScoreController := controllers.NewQSScoreController()

		// formula simulation, no persistence
		r.Post("/simulate", qsScoreController.SimulateScore)

		// company views
		r.Route("/companies/{company_id}", func(r chi.Router) {
			r.Get("/", qsScoreController.GetCompanyScore)
			r.Get("/risk-map", qsScoreController.GetRiskMap)
			r.Get("/history", qsScoreController.GetScoreHistory)
			r.Post("/recalculate", qsScoreController.RecalculateCompany)
		})

		// fresh single-area score
		r.Get("/areas/{area_id}", qsScoreController.GetAreaScore)
	})
}

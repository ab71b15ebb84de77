package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/leadscout/internal/infra/http/handlers"
	"github.com/xavierca1/leadscout/internal/infra/http/middleware"
)

type routes struct {
	search    *handlers.SearchHandler
	lead      *handlers.LeadHandler
	template  *handlers.TemplateHandler
	lifecycle *handlers.LifecycleHandler
	health    *handlers.HealthHandler
}

func newRouter(h routes, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", middleware.OwnerHeader},
	}))

	r.Get("/health", h.health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireOwner)

		r.Post("/searches", h.search.Create)
		r.Get("/searches", h.search.List)
		r.Get("/searches/{id}", h.search.Get)
		r.Get("/searches/{id}/leads", h.search.ListLeads)

		r.Get("/leads", h.lead.List)
		r.Get("/leads/{id}", h.lead.Get)

		r.Post("/templates", h.template.Create)
		r.Get("/templates", h.template.List)
		r.Post("/templates/{id}/run", h.template.Run)

		// Invocação síncrona do ciclo de vida, só para buscas do próprio dono.
		r.Post("/lifecycle/invoke", h.lifecycle.Invoke)
	})

	return r
}

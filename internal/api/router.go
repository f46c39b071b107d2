package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/contracthub/engine/internal/api/handlers"
	mw "github.com/contracthub/engine/internal/api/middleware"
)

type Dependencies struct {
	HMACSecret        []byte
	ProgrammesHandler *handlers.ProgrammesHandler
	MilestonesHandler *handlers.MilestonesHandler
	ApprovalsHandler  *handlers.ApprovalsHandler
	HierarchyHandler  *handlers.HierarchyHandler
	PoliciesHandler   *handlers.PoliciesHandler
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	// Built-in middleware
	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.CORS)
	r.Use(mw.RateLimit(10, 20))
	r.Use(chimid.Compress(5))

	// Health endpoints
	hh := handlers.NewHealthHandler()
	r.Get("/healthz", hh.Liveness)
	r.Get("/readyz", hh.Readiness)

	// Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Group(func(protected chi.Router) {
			protected.Use(mw.Auth(dep.HMACSecret))

			// Programmes and their imported graphs
			protected.Route("/programmes", func(pr chi.Router) {
				pr.Get("/", dep.ProgrammesHandler.List)
				pr.Post("/", dep.ProgrammesHandler.Create)
				pr.Get("/{id}", dep.ProgrammesHandler.Get)
				pr.Post("/{id}/import", dep.ProgrammesHandler.Import)
				pr.Get("/{id}/graph", dep.ProgrammesHandler.Graph)
				pr.Get("/{id}/milestones", dep.MilestonesHandler.List)
			})

			// Milestone tracking
			protected.Route("/milestones", func(mr chi.Router) {
				mr.Put("/{id}/status", dep.MilestonesHandler.UpdateStatus)
				mr.Put("/{id}/keydate", dep.MilestonesHandler.SetKeyDate)
			})

			// Change approval pipeline
			protected.Route("/approvals", func(ar chi.Router) {
				ar.Get("/", dep.ApprovalsHandler.List)
				ar.Post("/", dep.ApprovalsHandler.Submit)
				ar.Get("/pending", dep.ApprovalsHandler.Pending)
				ar.Get("/{id}", dep.ApprovalsHandler.Get)
				ar.Post("/{id}/decision", dep.ApprovalsHandler.Decide)
				ar.Post("/{id}/authorized-decision", dep.ApprovalsHandler.DecideAuthorized)
				ar.Get("/{id}/audit", dep.ApprovalsHandler.AuditTrail)
			})

			// Authorization registry and routing policy, scoped per project
			protected.Route("/projects/{projectID}", func(pr chi.Router) {
				pr.Get("/hierarchy", dep.HierarchyHandler.List)
				pr.Post("/hierarchy", dep.HierarchyHandler.Register)
				pr.Get("/policy", dep.PoliciesHandler.Get)
				pr.Put("/policy", dep.PoliciesHandler.Put)
			})

			protected.Delete("/hierarchy/{id}", dep.HierarchyHandler.Revoke)
		})
	})

	return r
}

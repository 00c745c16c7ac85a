package api

import (
	"github.com/go-chi/chi/v5"
)

func setupPublicRoutes(r chi.Router, handlers *routeHandlers) {
	r.Get("/health", handlers.healthHandler.health())
}

// setupAdminRoutes mounts the project administration under /admin. Every
// route requires a valid bearer token.
func setupAdminRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authMiddleware.authenticate)

		p := handlers.projectHandler
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", p.listProjects())
			r.Post("/", p.createProject())
			r.Get("/create", p.createForm())

			r.Get("/trash", p.listTrashedProjects())
			r.Patch("/trash/{projectID}/restore", p.restoreProject())
			r.Delete("/trash/{projectID}", p.purgeProject())

			r.Get("/{projectID}", p.getProject())
			r.Get("/{projectID}/edit", p.editForm())
			r.Put("/{projectID}", p.updateProject())
			r.Delete("/{projectID}", p.deleteProject())
			r.Patch("/{projectID}/toggle", p.togglePublish())
		})
	})
}

package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/lifedash/app"
	"github.com/upb/lifedash/middleware"
	"github.com/upb/lifedash/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()
	auth := deps.AuthMiddleware

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(deps.Config.Server.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", deps.Health.HandleHealth)
	r.Get("/readyz", deps.Health.HandleReadiness)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequestInfo)
		r.Use(auth.Authenticate)

		// The probe answers anonymous callers with canWrite=false
		r.Get("/modules/{module}/can-write", deps.Modules.HandleCanWrite)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)

			r.Get("/me", deps.Me.HandleMe)
			r.Get("/features", deps.Me.HandleListFeatures)
			r.Get("/features/{key}", deps.Me.HandleGetFeature)

			r.Get("/modules/locks", deps.Modules.HandleListLocks)

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", deps.TaskHandler.HandleList)
				r.Post("/", deps.TaskHandler.HandleCreate)
				r.Get("/{id}", deps.TaskHandler.HandleGet)
				r.Put("/{id}", deps.TaskHandler.HandleUpdate)
				r.Delete("/{id}", deps.TaskHandler.HandleDelete)
			})

			r.Route("/debts", func(r chi.Router) {
				r.Get("/", deps.FinanceHandler.HandleListDebts)
				r.Post("/", deps.FinanceHandler.HandleCreateDebt)
				r.Get("/{id}", deps.FinanceHandler.HandleGetDebt)
				r.Put("/{id}", deps.FinanceHandler.HandleUpdateDebt)
				r.Delete("/{id}", deps.FinanceHandler.HandleDeleteDebt)
			})

			r.Route("/finance-entries", func(r chi.Router) {
				r.Get("/", deps.FinanceHandler.HandleListEntries)
				r.Post("/", deps.FinanceHandler.HandleCreateEntry)
				r.Get("/{id}", deps.FinanceHandler.HandleGetEntry)
				r.Delete("/{id}", deps.FinanceHandler.HandleDeleteEntry)
			})
		})

		// Admin only
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)

			r.Put("/modules/{module}/lock", deps.Modules.HandleSetLock)
			r.Get("/audit/logs", deps.AuditHandler.HandleList)
			r.Get("/audit/logs/{id}", deps.AuditHandler.HandleGet)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}

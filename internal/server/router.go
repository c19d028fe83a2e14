package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"log/slog"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/config"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/domain"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/handler"
)

// NewRouter wires HTTP routes and middleware.
func NewRouter(cfg config.Config,
	logger *slog.Logger,
	health handler.HealthHandler,
	auth handler.AuthHandler,
	shifts handler.ShiftHandler,
	reconciliation handler.ReconciliationHandler,
	employees handler.EmployeeHandler,
	stations handler.StationHandler,
	notifications handler.NotificationHandler,
	docs handler.DocsHandler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(200, 1*time.Minute))

	health.RegisterRoutes(r)
	auth.RegisterRoutes(r)
	docs.RegisterRoutes(r)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Group(func(pr chi.Router) {
		pr.Use(AuthMiddleware(cfg.JWTSecret))
		// staff-level (staff/supervisor/manager/admin); fine-grained
		// transition checks happen in the workflow's permission resolver.
		pr.Group(func(sr chi.Router) {
			sr.Use(RequireRole(domain.RoleAdmin, domain.RoleManager, domain.RoleSupervisor, domain.RoleStaff))
			shifts.RegisterRoutes(sr)
			reconciliation.RegisterRoutes(sr)
			notifications.RegisterRoutes(sr)
		})
		// manager-level (manager/admin)
		pr.Group(func(mr chi.Router) {
			mr.Use(RequireRole(domain.RoleAdmin, domain.RoleManager))
			employees.RegisterRoutes(mr)
			stations.RegisterRoutes(mr)
		})
	})

	return r
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Complaints     *handlers.ComplaintsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, auth.RequireAnyRole(), cfg.Users.Me)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, auth.RequireAnyRole(), cfg.Users.Logout)

	student := app.Group("/student/api", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleStudent))
	student.Get("/complaints", cfg.Complaints.ListMine)
	student.Post("/complaints", cfg.Complaints.Create)

	dept := app.Group("/dept/api", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleDepartment))
	dept.Get("/complaints", cfg.Complaints.ListDepartment)
	dept.Post("/update/:id", cfg.Complaints.UpdateStatus)

	admin := app.Group("/admin/api", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/complaints", cfg.Complaints.ListAll)
	admin.Post("/push/:id", cfg.Complaints.Push)
	// Admins never mutate status; the coordinator answers 403.
	admin.Post("/update/:id", cfg.Complaints.UpdateStatus)

	app.Get("/complaints/:id", cfg.AuthMiddleware.Handle, auth.RequireAnyRole(), cfg.Complaints.Get)
}

package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/userauth-service/internal/api/http/handlers"
	"github.com/spec-kit/userauth-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tasks          *handlers.TasksHandler
	AuthMiddleware *auth.AuthMiddleware
	// LoginLimiter guards POST /api/auth. Nil disables throttling.
	LoginLimiter fiber.Handler
	// Registry is served on /metrics when set.
	Registry *prometheus.Registry
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.Registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")
	api.Get("/health", cfg.Health.Live)
	api.Get("/health/ready", cfg.Health.Ready)

	api.Post("/register", cfg.Users.Register)
	if cfg.LoginLimiter != nil {
		api.Post("/auth", cfg.LoginLimiter, cfg.Users.Login)
	} else {
		api.Post("/auth", cfg.Users.Login)
	}

	api.Get("/profile", cfg.AuthMiddleware.Handle, auth.RequireIdentity(), cfg.Users.Profile)

	tasks := api.Group("/tasks", cfg.AuthMiddleware.Handle, auth.RequireIdentity())
	tasks.Post("", cfg.Tasks.CreateTask)
	tasks.Get("", cfg.Tasks.ListTasks)
	tasks.Get("/:id", cfg.Tasks.GetTask)
	tasks.Delete("/:id", cfg.Tasks.DeleteTask)
}

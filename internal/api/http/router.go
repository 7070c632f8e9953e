package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/HarshChauhan10/Queues/internal/api/http/handlers"
	"github.com/HarshChauhan10/Queues/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Institutes     *handlers.InstitutesHandler
	Queues         *handlers.QueuesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)
	authGroup.Post("/institutes/register", cfg.Institutes.Register)
	authGroup.Post("/institutes/login", cfg.Institutes.Login)

	protectedAuth := authGroup.Group("", cfg.AuthMiddleware.Handle)
	protectedAuth.Post("/users/profile", auth.RequireUser(), cfg.Users.CompleteProfile)
	protectedAuth.Post("/institutes/profile", auth.RequireInstitute(), cfg.Institutes.CompleteProfile)

	queues := app.Group("/queues")
	queues.Get("/institutes", cfg.Queues.Institutes)
	queues.Get("/:instituteID/stats", cfg.Queues.Stats)

	participant := queues.Group("", cfg.AuthMiddleware.Handle, auth.RequireUser())
	participant.Post("/:instituteID/join", cfg.Queues.Join)
	participant.Delete("/:instituteID/leave", cfg.Queues.Leave)
	participant.Get("/:instituteID/position", cfg.Queues.Position)

	institute := queues.Group("", cfg.AuthMiddleware.Handle, auth.RequireInstitute())
	institute.Get("/:instituteID/entries", cfg.Queues.List)
	institute.Delete("/:instituteID/participants/:participantID", cfg.Queues.Remove)
	institute.Post("/:instituteID/participants/:participantID/move-to-end", cfg.Queues.MoveToEnd)
	institute.Post("/:instituteID/participants/:participantID/window", cfg.Queues.AssignWindow)
}

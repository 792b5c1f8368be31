package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Attachments    *handlers.AttachmentsHandler
	Stats          *handlers.StatsHandler
	Events         *handlers.EventsHandler
	Telegram       *handlers.TelegramHandler
	AuthMiddleware *auth.Middleware

	// StaticDir serves stored local uploads; empty when blob storage is remote.
	StaticDir        string
	StaticPublicPath string
}

// RegisterRoutes wires HTTP routes. Intake and reads are open; mutating an
// existing ticket requires a bearer token.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	api.Post("/login", cfg.Auth.Login)

	api.Post("/tickets", cfg.Tickets.CreateTicket)
	api.Get("/tickets", cfg.Tickets.ListTickets)
	api.Get("/tickets/:id", cfg.Tickets.GetTicket)
	api.Get("/tickets/:id/comments", cfg.Tickets.ListComments)
	api.Post("/tickets/:id/attachments", cfg.Attachments.Upload)

	api.Get("/stats/monthly", cfg.Stats.Monthly)
	api.Get("/events", cfg.Events.Stream)

	protected := api.Group("", cfg.AuthMiddleware.Handle)
	protected.Patch("/tickets/:id", cfg.Tickets.PatchTicket)
	protected.Post("/tickets/:id/comments", cfg.Tickets.AddComment)

	if cfg.Telegram != nil {
		app.Post("/telegram/:token", cfg.Telegram.Webhook)
	}

	if cfg.StaticDir != "" {
		app.Static(cfg.StaticPublicPath, cfg.StaticDir)
	}
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/insighta/complaints-service/internal/api/http/handlers"
	"github.com/insighta/complaints-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Auth            *handlers.AuthHandler
	Tickets         *handlers.TicketsHandler
	StaffTickets    *handlers.StaffTicketsHandler
	Enrichment      *handlers.EnrichmentHandler
	AuthMiddleware  *auth.AuthMiddleware
	GuestMiddleware *auth.GuestMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/customers/register", cfg.Auth.RegisterCustomer)
	authGroup.Post("/customers/login", cfg.Auth.LoginCustomer)
	authGroup.Post("/staff/login", cfg.Auth.LoginStaff)

	// Ticket creation accepts both logged-in customers and anonymous guests.
	app.Post("/tickets", cfg.AuthMiddleware.HandleOptional, cfg.Tickets.CreateTicket)

	customerTickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireCustomer())
	customerTickets.Get("", cfg.Tickets.ListTickets)
	customerTickets.Get("/:id", cfg.Tickets.GetTicket)

	guest := app.Group("/guest", cfg.GuestMiddleware.Handle)
	guest.Get("/ticket", cfg.Tickets.GetGuestTicket)

	staff := app.Group("/staff/tickets", cfg.AuthMiddleware.Handle, auth.RequireStaffRole())
	staff.Get("", cfg.StaffTickets.ListTickets)
	staff.Get("/:id", cfg.StaffTickets.GetTicket)
	staff.Patch("/:id/status", cfg.StaffTickets.UpdateStatus)
	staff.Post("/:id/assign", cfg.StaffTickets.SelfAssign)

	// Reprocess authorizes via shared secret header or an admin session.
	admin := app.Group("/admin", cfg.AuthMiddleware.HandleOptional)
	admin.Post("/enrichment/reprocess", cfg.Enrichment.Reprocess)
}

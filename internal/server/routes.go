package server

import (
	"go.uber.org/zap"

	"github.com/ticketless/ticketless/internal/observability"
	"github.com/ticketless/ticketless/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	// Standard health endpoints
	s.router.Get("/health", handlers.HealthHandler)
	s.router.Get("/health/live", handlers.LivenessHandler)
	s.router.Get("/health/ready", handlers.ReadinessHandler)
	s.router.Get("/health/startup", handlers.StartupHandler)

	// Version endpoint
	s.router.Get("/version", handlers.VersionHandler)

	// Metrics endpoint (in server package to access HandleError)
	s.router.Get("/metrics", MetricsHandler)

	// Lookup and compliance routes
	lookup := &handlers.Lookup{
		Tickets:  s.deps.Tickets,
		Geocoder: s.deps.Geocoder,
		Mail:     s.deps.Mail,
	}
	s.router.Get("/v1/vehicles/{plate}/tickets", lookup.TicketsHandler)
	s.router.Get("/v1/geocode", lookup.GeocodeHandler)
	s.router.Get("/v1/mail/{id}", lookup.MailStatusHandler)

	compliance := &handlers.ComplianceHandler{Engine: s.deps.Compliance}
	s.router.Get("/v1/compliance/{plate}", compliance.Report)

	// Admin governor endpoints (require a configured token)
	s.registerAdminEndpoints()
}

// registerAdminEndpoints registers governor admin routes when a token is set
func (s *Server) registerAdminEndpoints() {
	logger := observability.ServerLogger

	if s.deps.AdminToken == "" {
		if logger != nil {
			logger.Debug("Governor admin endpoints disabled (no admin token configured)")
		}
		return
	}

	admin := &handlers.GovernorAdmin{Governor: s.deps.Governor}
	s.router.Get("/admin/governor/status", handlers.RequireAdminToken(s.deps.AdminToken, admin.Status))
	s.router.Post("/admin/governor/reset", handlers.RequireAdminToken(s.deps.AdminToken, admin.Reset))

	if logger != nil {
		logger.Info("Governor admin endpoints enabled",
			zap.String("status_path", "/admin/governor/status"),
			zap.String("reset_path", "/admin/governor/reset"),
			zap.String("auth", "bearer token"))
		logger.Warn("Admin endpoints enabled - ensure this server is not exposed to public internet")
	}
}

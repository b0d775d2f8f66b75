package analytics

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Get("/analytics/summary", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"success":   true,
			"summary":   svc.Summary(),
			"timestamp": svc.clock.Now(),
		})
	})

	r.Get("/health", func(c *fiber.Ctx) error {
		health := svc.Health()
		return c.JSON(fiber.Map{
			"success":               true,
			"message":               health.Message,
			"timestamp":             svc.clock.Now(),
			"active_sessions":       health.ActiveSessions,
			"total_sessions":        health.TotalSessions,
			"total_location_points": health.TotalLocationPoints,
			"current_destination":   health.CurrentDestination,
			"service_type":          health.ServiceType,
		})
	})
}

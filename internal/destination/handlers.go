package destination

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Get("/destination", func(c *fiber.Ctx) error {
		userLocation := c.Query("user_location")
		if userLocation == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_location parameter required (format: lat,lng)")
		}

		dest := svc.WithUserDistance(userLocation)
		return c.JSON(fiber.Map{
			"success":     true,
			"destination": dest,
			"auto_start":  true,
			"timestamp":   svc.clock.Now(),
		})
	})

	r.Post("/destination/update", func(c *fiber.Ctx) error {
		var patch Patch
		if err := c.BodyParser(&patch); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		updated := svc.Update(patch)
		return c.JSON(fiber.Map{
			"success":     true,
			"message":     "Destination updated successfully",
			"destination": updated,
			"timestamp":   svc.clock.Now(),
		})
	})
}

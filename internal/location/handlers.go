package location

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

type pointBody struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Altitude  *float64 `json:"altitude"`
	Accuracy  *float64 `json:"accuracy"`
	Speed     *float64 `json:"speed"`
	Heading   *float64 `json:"heading"`
}

type updateRequest struct {
	SessionID string     `json:"session_id"`
	UserID    string     `json:"user_id"`
	Location  *pointBody `json:"location"`
	Timestamp time.Time  `json:"timestamp"`
}

type bulkRequest struct {
	SessionID string      `json:"session_id"`
	UserID    string      `json:"user_id"`
	Locations []pointBody `json:"locations"`
}

func (b pointBody) toSample(userID string, ts time.Time) Sample {
	s := Sample{
		UserID:          userID,
		ClientTimestamp: ts,
		Altitude:        b.Altitude,
		Accuracy:        b.Accuracy,
		Speed:           b.Speed,
		Heading:         b.Heading,
	}
	if b.Latitude != nil {
		s.Coordinates.Latitude = *b.Latitude
	}
	if b.Longitude != nil {
		s.Coordinates.Longitude = *b.Longitude
	}
	return s
}

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/location/update", func(c *fiber.Ctx) error {
		var req updateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Location == nil || req.Location.Latitude == nil || req.Location.Longitude == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Location data with latitude and longitude required")
		}

		ack, err := svc.Ingest(c.Context(), req.SessionID, req.Location.toSample(req.UserID, req.Timestamp))
		var throttled *ThrottledError
		if errors.As(err, &throttled) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success":             false,
				"error":               throttled.Error(),
				"retry_after_seconds": throttled.RetryAfter.Seconds(),
			})
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		resp := fiber.Map{
			"success":       true,
			"message":       "Location updated successfully",
			"received_at":   ack.ReceivedAt,
			"total_updates": ack.TotalUpdates,
		}
		if ack.Distance != nil {
			resp["distance_to_destination"] = ack.Distance
		}
		return c.JSON(resp)
	})

	r.Post("/location/bulk", func(c *fiber.Ctx) error {
		var req bulkRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		samples := make([]Sample, 0, len(req.Locations))
		for _, b := range req.Locations {
			if b.Latitude == nil || b.Longitude == nil {
				return fiber.NewError(fiber.StatusBadRequest, "Every location needs latitude and longitude")
			}
			samples = append(samples, b.toSample(req.UserID, time.Time{}))
		}

		processed, err := svc.BulkIngest(c.Context(), req.SessionID, samples)
		if errors.Is(err, ErrBatchTooLarge) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{
			"success":   true,
			"processed": processed,
		})
	})

	r.Get("/location/current", func(c *fiber.Ctx) error {
		view, err := svc.Current(c.Query("session_id"))
		if errors.Is(err, ErrNoLocations) {
			return fiber.NewError(fiber.StatusNotFound, "No location data available")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{
			"success":                   true,
			"current_location":          view.Sample,
			"seconds_since_last_update": view.SecondsSinceUpdate,
			"is_recent":                 view.IsRecent,
		})
	})

	r.Get("/location/history", func(c *fiber.Ctx) error {
		history := svc.History(c.Query("session_id"), c.QueryInt("limit"))

		stats := fiber.Map{
			"total_points":      len(history),
			"total_distance_km": WindowDistanceKm(history),
		}
		if len(history) > 0 {
			stats["first_location"] = history[0]
			stats["last_location"] = history[len(history)-1]
		}
		return c.JSON(fiber.Map{
			"success":          true,
			"location_history": history,
			"stats":            stats,
		})
	})

	r.Get("/location/stats", func(c *fiber.Ctx) error {
		stats, err := svc.Stats(c.Query("session_id"))
		if errors.Is(err, ErrNoLocations) {
			return fiber.NewError(fiber.StatusNotFound, "No location data available")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{
			"success": true,
			"stats":   stats,
		})
	})
}

package navigation

import (
	"errors"
	"fmt"

	"backend-navtrack/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
)

type startRequest struct {
	SessionID     string          `json:"session_id"`
	Origin        *geo.Coordinate `json:"origin"`
	TotalSteps    int             `json:"total_steps"`
	TotalDistance string          `json:"total_distance"`
	TotalDuration string          `json:"total_duration"`
}

type stepActiveRequest struct {
	SessionID       string          `json:"session_id"`
	StepIndex       *int            `json:"step_index"`
	StepInstruction string          `json:"step_instruction"`
	StepDistance    string          `json:"step_distance"`
	StepDuration    string          `json:"step_duration"`
	Maneuver        string          `json:"maneuver"`
	CurrentLocation *geo.Coordinate `json:"current_location"`
}

type stepCompletedRequest struct {
	SessionID       string          `json:"session_id"`
	StepIndex       *int            `json:"step_index"`
	StepInstruction string          `json:"step_instruction"`
	StepDistance    string          `json:"step_distance"`
	StepDuration    string          `json:"step_duration"`
	CurrentLocation *geo.Coordinate `json:"current_location"`
	Accuracy        *float64        `json:"accuracy"`
}

type completeRequest struct {
	SessionID             string          `json:"session_id"`
	FinalLocation         *geo.Coordinate `json:"final_location"`
	TotalTime             string          `json:"total_time"`
	TotalDistanceTraveled float64         `json:"total_distance_traveled"`
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Navigation session not found")
	case errors.Is(err, ErrMissingFields):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

func RegisterRoutes(nav fiber.Router, steps fiber.Router, svc *Service) {
	nav.Post("/start", func(c *fiber.Ctx) error {
		var req startRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.SessionID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "session_id is required")
		}

		result, err := svc.Start(StartInput{
			SessionID:     req.SessionID,
			Origin:        req.Origin,
			TotalSteps:    req.TotalSteps,
			TotalDistance: req.TotalDistance,
			TotalDuration: req.TotalDuration,
		})
		if err != nil {
			return httpError(err)
		}

		return c.JSON(fiber.Map{
			"success":            true,
			"message":            fmt.Sprintf("Navigation started to %s", result.DestinationName),
			"session":            result.Session,
			"destination_name":   result.DestinationName,
			"voice_announcement": result.VoiceAnnouncement,
			"timestamp":          svc.clock.Now(),
		})
	})

	nav.Post("/step-active", func(c *fiber.Ctx) error {
		var req stepActiveRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.StepIndex == nil || req.StepInstruction == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Missing required fields")
		}

		result, err := svc.RecordStepActive(StepActiveInput{
			SessionID:       req.SessionID,
			StepIndex:       *req.StepIndex,
			StepInstruction: req.StepInstruction,
			StepDistance:    req.StepDistance,
			StepDuration:    req.StepDuration,
			Maneuver:        req.Maneuver,
			CurrentLocation: req.CurrentLocation,
		})
		if err != nil {
			return httpError(err)
		}

		return c.JSON(fiber.Map{
			"success":            true,
			"message":            fmt.Sprintf("Step %d is now active", *req.StepIndex+1),
			"step_index":         *req.StepIndex,
			"destination_name":   result.DestinationName,
			"steps_remaining":    result.StepsRemaining,
			"voice_announcement": result.VoiceAnnouncement,
			"timestamp":          svc.clock.Now(),
		})
	})

	nav.Post("/step-completed", func(c *fiber.Ctx) error {
		var req stepCompletedRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.StepIndex == nil || req.StepInstruction == "" || req.CurrentLocation == nil {
			return fiber.NewError(fiber.StatusBadRequest,
				"Missing required fields: session_id, step_index, step_instruction, current_location")
		}

		result, err := svc.RecordStepCompleted(StepCompletedInput{
			SessionID:       req.SessionID,
			StepIndex:       *req.StepIndex,
			StepInstruction: req.StepInstruction,
			StepDistance:    req.StepDistance,
			StepDuration:    req.StepDuration,
			CurrentLocation: req.CurrentLocation,
			Accuracy:        req.Accuracy,
		})
		if err != nil {
			return httpError(err)
		}

		return c.JSON(fiber.Map{
			"success":            true,
			"message":            fmt.Sprintf("Step %d completed", *req.StepIndex+1),
			"step_index":         *req.StepIndex,
			"destination_name":   result.DestinationName,
			"progress":           result.Progress,
			"voice_announcement": result.VoiceAnnouncement,
			"timestamp":          svc.clock.Now(),
		})
	})

	nav.Post("/complete", func(c *fiber.Ctx) error {
		var req completeRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.SessionID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "session_id is required")
		}

		result, err := svc.Complete(CompleteInput{
			SessionID:             req.SessionID,
			FinalLocation:         req.FinalLocation,
			TotalTime:             req.TotalTime,
			TotalDistanceTraveled: req.TotalDistanceTraveled,
		})
		if err != nil {
			return httpError(err)
		}

		return c.JSON(fiber.Map{
			"success":            true,
			"message":            fmt.Sprintf("Navigation to %s completed successfully", result.DestinationName),
			"destination_name":   result.DestinationName,
			"voice_announcement": result.VoiceAnnouncement,
			"session_summary": fiber.Map{
				"session_id":            result.Session.SessionID,
				"destination":           result.DestinationName,
				"total_steps_completed": result.Summary.CompletedSteps,
				"actual_time":           result.Session.ActualTotalTime,
				"actual_distance":       result.Session.ActualDistanceTraveled,
				"completed_at":          result.Session.CompletedAt,
			},
			"timestamp": svc.clock.Now(),
		})
	})

	nav.Get("/status/:sessionID", func(c *fiber.Ctx) error {
		view, err := svc.Status(c.Params("sessionID"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{
			"success":                true,
			"session":                view.Session,
			"active_step":            view.ActiveStep,
			"completed_steps_detail": view.CompletedSteps,
			"location_stats":         view.LocationStats,
			"summary":                view.Summary,
		})
	})

	nav.Get("/sessions", func(c *fiber.Ctx) error {
		sessions, counts := svc.ListAll()
		return c.JSON(fiber.Map{
			"success":            true,
			"sessions":           sessions,
			"total_sessions":     counts.Total,
			"active_sessions":    counts.Active,
			"completed_sessions": counts.Completed,
		})
	})

	steps.Get("/active", func(c *fiber.Ctx) error {
		record, currentStep, totalSteps := svc.ActiveStepView(c.Query("session_id"))
		return c.JSON(fiber.Map{
			"success":            true,
			"active_step":        record,
			"current_step_index": currentStep,
			"total_steps":        totalSteps,
		})
	})

	steps.Get("/completed", func(c *fiber.Ctx) error {
		records := svc.CompletedSteps(c.Query("session_id"))
		return c.JSON(fiber.Map{
			"success":         true,
			"completed_steps": records,
			"total_completed": len(records),
		})
	})
}

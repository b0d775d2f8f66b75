package server

import (
	"errors"

	"backend-navtrack/internal/analytics"
	"backend-navtrack/internal/config"
	"backend-navtrack/internal/destination"
	"backend-navtrack/internal/location"
	"backend-navtrack/internal/navigation"
	"backend-navtrack/internal/shared/clock"
	"backend-navtrack/internal/stream"
	"backend-navtrack/internal/throttle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App          *fiber.App
	Cfg          config.Config
	Redis        *redis.Client
	Hub          *stream.Hub
	Destinations *destination.Service
	Tracker      *location.Service
	Navigation   *navigation.Service
	Analytics    *analytics.Service
}

func NewServer(cfg config.Config, redisClient *redis.Client, clk clock.Clock) *Server {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	var limiter throttle.Limiter
	if cfg.ThrottleEnabled {
		if redisClient != nil {
			limiter = throttle.NewRedisLimiter(redisClient, cfg.ThrottleWindow())
		} else {
			limiter = throttle.NewMemoryLimiter(cfg.ThrottleWindow())
		}
	}

	hub := stream.NewHub(redisClient)
	dest := destination.NewService(clk)
	tracker := location.NewService(cfg.LocationHistoryCap, cfg.SpeedRecordCap, cfg.BulkMaxBatch, limiter, dest, hub, clk)
	nav := navigation.NewService(dest, tracker, clk)

	s := &Server{
		App:          app,
		Cfg:          cfg,
		Redis:        redisClient,
		Hub:          hub,
		Destinations: dest,
		Tracker:      tracker,
		Navigation:   nav,
		Analytics:    analytics.NewService(nav, tracker, dest, clk),
	}

	registerRoutes(s)
	return s
}

// errorHandler keeps error responses in the same success/error envelope the
// data endpoints use.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}

func registerRoutes(s *Server) {
	api := s.App.Group("/api")

	destination.RegisterRoutes(api, s.Destinations)
	location.RegisterRoutes(api, s.Tracker)
	navigation.RegisterRoutes(api.Group("/navigation"), api.Group("/steps"), s.Navigation)
	analytics.RegisterRoutes(api, s.Analytics)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Hub)
}

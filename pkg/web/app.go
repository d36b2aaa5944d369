package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// NewApp builds the fiber application with all routes mounted.
func NewApp(h *Handlers) *fiber.App {
	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Leadflow API")
	})

	leads := app.Group("/leads")
	leads.Post("/:id/process", h.ProcessLead)
	leads.Get("/:id/assignment", h.GetAssignment)

	rules := app.Group("/rules")
	rules.Get("/", h.GetRules)
	rules.Post("/", h.CreateRule)
	rules.Get("/:id", h.GetRule)
	rules.Patch("/:id", h.UpdateRule)
	rules.Delete("/:id", h.DeleteRule)

	sequences := app.Group("/sequences")
	sequences.Get("/", h.GetSequences)
	sequences.Post("/", h.CreateSequence)
	sequences.Get("/:id", h.GetSequence)

	executions := app.Group("/executions")
	executions.Get("/active", h.GetActiveExecutions)
	executions.Get("/:id", h.GetExecution)
	executions.Post("/:id/cancel", h.CancelExecution)

	enrollments := app.Group("/enrollments")
	enrollments.Post("/:id/cancel", h.CancelEnrollment)

	app.Get("/health", h.HealthCheck)

	return app
}

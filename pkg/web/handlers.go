// Package web provides the REST API over the routing engine.
package web

import (
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/gcamillo/leadflow/pkg/engine"
	"github.com/gcamillo/leadflow/pkg/models"
)

type Handlers struct {
	logger   *slog.Logger
	engine   *engine.Engine
	validate *validator.Validate
}

func NewHandlers(logger *slog.Logger, routingEngine *engine.Engine, validate *validator.Validate) *Handlers {
	return &Handlers{
		logger:   logger.With("module", "web"),
		engine:   routingEngine,
		validate: validate,
	}
}

// ProcessLead triggers matching and execution for one lead. Partial action
// failures still return 200 with the execution records; only an unknown lead
// is an error.
func (h *Handlers) ProcessLead(c fiber.Ctx) error {
	leadID := c.Params("id")
	if leadID == "" {
		return badRequest(c, "lead ID is required")
	}

	executions, err := h.engine.ProcessLead(c.Context(), leadID)
	if err != nil {
		return notFound(c, "lead not found: "+leadID)
	}

	return c.JSON(fiber.Map{
		"lead_id":    leadID,
		"executions": executions,
	})
}

func (h *Handlers) GetRules(c fiber.Ctx) error {
	return c.JSON(h.engine.RoutingRules())
}

func (h *Handlers) GetRule(c fiber.Ctx) error {
	rule, err := h.engine.RoutingRule(c.Params("id"))
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(rule)
}

func (h *Handlers) CreateRule(c fiber.Ctx) error {
	var rule models.RoutingRule
	if err := c.Bind().Body(&rule); err != nil {
		return badRequest(c, "invalid rule payload: "+err.Error())
	}

	if err := h.validate.Struct(&rule); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.validateActions(rule.Actions); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.engine.AddRoutingRule(&rule)
	if err != nil {
		return badRequest(c, err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handlers) UpdateRule(c fiber.Ctx) error {
	var rule models.RoutingRule
	if err := c.Bind().Body(&rule); err != nil {
		return badRequest(c, "invalid rule payload: "+err.Error())
	}

	if err := h.validate.Struct(&rule); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.validateActions(rule.Actions); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.engine.UpdateRoutingRule(c.Params("id"), &rule)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(updated)
}

func (h *Handlers) DeleteRule(c fiber.Ctx) error {
	if err := h.engine.DeleteRoutingRule(c.Params("id")); err != nil {
		return handleEngineError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) GetSequences(c fiber.Ctx) error {
	return c.JSON(h.engine.NurtureSequences())
}

func (h *Handlers) GetSequence(c fiber.Ctx) error {
	sequence, err := h.engine.NurtureSequence(c.Params("id"))
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(sequence)
}

func (h *Handlers) CreateSequence(c fiber.Ctx) error {
	var sequence models.NurtureSequence
	if err := c.Bind().Body(&sequence); err != nil {
		return badRequest(c, "invalid sequence payload: "+err.Error())
	}

	if err := h.validate.Struct(&sequence); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.engine.AddNurtureSequence(&sequence)
	if err != nil {
		// Graph validation failures (cycles, dangling references) land here.
		return badRequest(c, err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handlers) GetActiveExecutions(c fiber.Ctx) error {
	executions, err := h.engine.ActiveWorkflows(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(executions)
}

func (h *Handlers) GetExecution(c fiber.Ctx) error {
	execution, err := h.engine.Execution(c.Context(), c.Params("id"))
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(execution)
}

func (h *Handlers) CancelExecution(c fiber.Ctx) error {
	err := h.engine.CancelExecution(c.Context(), c.Params("id"))
	if err != nil {
		if persistenceNotFound(err) {
			return handleEngineError(c, err)
		}

		return conflict(c, err.Error())
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) CancelEnrollment(c fiber.Ctx) error {
	err := h.engine.CancelEnrollment(c.Context(), c.Params("id"))
	if err != nil {
		if persistenceNotFound(err) {
			return handleEngineError(c, err)
		}

		return conflict(c, err.Error())
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) GetAssignment(c fiber.Ctx) error {
	leadID := c.Params("id")

	owner, found, err := h.engine.LeadAssignment(c.Context(), leadID)
	if err != nil {
		return internalError(c, err)
	}

	if !found {
		return notFound(c, "lead has no assignment")
	}

	return c.JSON(fiber.Map{
		"lead_id":     leadID,
		"assigned_to": owner,
	})
}

func (h *Handlers) HealthCheck(c fiber.Ctx) error {
	if err := h.engine.HealthCheck(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}

	return c.JSON(fiber.Map{"status": "healthy"})
}

package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/gcamillo/leadflow/pkg/persistence"
	"github.com/gcamillo/leadflow/pkg/rules"
	"github.com/gcamillo/leadflow/pkg/sequences"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func conflict(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType("conflict").
		WithDetail(detail)

	return c.Status(fiber.StatusConflict).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

func persistenceNotFound(err error) bool {
	return persistence.IsExecutionNotFound(err) || persistence.IsEnrollmentNotFound(err)
}

// handleEngineError maps engine and repository errors onto problem responses.
func handleEngineError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, rules.ErrRuleNotFound):
		return notFound(c, "routing rule not found")
	case errors.Is(err, sequences.ErrSequenceNotFound):
		return notFound(c, "nurture sequence not found")
	case persistence.IsExecutionNotFound(err):
		return notFound(c, "execution not found")
	case persistence.IsEnrollmentNotFound(err):
		return notFound(c, "enrollment not found")
	default:
		return internalError(c, err)
	}
}

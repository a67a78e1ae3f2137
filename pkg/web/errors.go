package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/flowplane/flowplane/pkg/execution"
	"github.com/flowplane/flowplane/pkg/persistence"
	"github.com/flowplane/flowplane/pkg/translate"
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

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleRunError maps translation and execution failures onto problem
// responses, carrying enough structure for the canvas to mark the offending
// nodes.
func handleRunError(c fiber.Ctx, err error) error {
	var translationErr *translate.Error
	if errors.As(err, &translationErr) {
		details := make([]string, 0, len(translationErr.Problems))
		for _, problem := range translationErr.Problems {
			details = append(details, problem.Error())
		}

		problem := problems.NewStatusProblem(422).
			WithInstance(c.Path()).
			WithType("translation_failed").
			WithDetail(translationErr.Error())

		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"problem":  problem,
			"problems": details,
		})
	}

	var credentialsErr *execution.MissingCredentialsError
	if errors.As(err, &credentialsErr) {
		problem := problems.NewStatusProblem(422).
			WithInstance(c.Path()).
			WithType("missing_credentials").
			WithDetail(credentialsErr.Error())

		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"problem":             problem,
			"missing_credentials": credentialsErr.Credentials,
		})
	}

	var nodeErr *execution.NodeExecutionError
	if errors.As(err, &nodeErr) {
		problem := problems.NewStatusProblem(502).
			WithInstance(c.Path()).
			WithType("node_execution_failed").
			WithDetail(nodeErr.Error())

		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"problem":        problem,
			"errors":         nodeErr.Errors,
			"executed_nodes": nodeErr.ExecutedNodes,
			"skipped_nodes":  nodeErr.SkippedNodes,
		})
	}

	if execution.IsNetwork(err) {
		problem := problems.NewStatusProblem(502).
			WithInstance(c.Path()).
			WithType("engine_unreachable").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadGateway).JSON(problem)
	}

	if persistence.IsWorkflowNotFound(err) {
		return notFound(c, "workflow not found")
	}

	return internalError(c, err)
}

package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ExamFox/internal/pkg/generation"
	"github.com/ManuelReschke/ExamFox/internal/pkg/usercontext"
)

// HandleGenerateExam runs the generation pipeline for the caller.
func (ac *APIController) HandleGenerateExam(c *fiber.Ctx) error {
	accountID := usercontext.GetAccountID(c)
	if accountID == 0 {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	var req generation.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
	}

	res, err := ac.generator.Generate(c.UserContext(), accountID, req)
	if err != nil {
		return generationError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"artifact":  res.Artifact,
		"remaining": res.Entitlement.Remaining,
		"alert":     res.Entitlement.Alert,
	})
}

// HandleListExams lists the caller's artifacts, newest first.
func (ac *APIController) HandleListExams(c *fiber.Ctx) error {
	accountID := usercontext.GetAccountID(c)
	if accountID == 0 {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}
	offset, limit := pagination(c)

	exams, err := ac.repos.Exam.ListByAccount(accountID, offset, limit)
	if err != nil {
		return internalError(c, "Exams", err)
	}
	total, err := ac.repos.Exam.CountByAccount(accountID)
	if err != nil {
		return internalError(c, "Exams", err)
	}

	return c.JSON(fiber.Map{
		"items":  exams,
		"total":  total,
		"offset": offset,
		"limit":  limit,
	})
}

// HandleGetExam returns one of the caller's artifacts.
func (ac *APIController) HandleGetExam(c *fiber.Ctx) error {
	accountID := usercontext.GetAccountID(c)
	if accountID == 0 {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	id := strings.TrimSpace(c.Params("uuid"))
	exam, err := ac.repos.Exam.GetByUUID(accountID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Exam not found")
		}
		return internalError(c, "Exams", err)
	}
	return c.JSON(exam)
}

package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ExamFox/internal/pkg/billing"
	"github.com/ManuelReschke/ExamFox/internal/pkg/generation"
)

func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

func internalError(c *fiber.Ctx, tag string, err error) error {
	log.Errorf("[%s] %v", tag, err)
	return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Internal server error")
}

// generationError maps pipeline failures to the generate endpoint's responses.
func generationError(c *fiber.Ctx, err error) error {
	var qe *generation.QuotaExceededError
	switch {
	case errors.As(err, &qe):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "quota_exceeded",
			"message": "Generation limit reached for your plan",
			"limit":   qe.Limit,
			"used":    qe.Used,
		})
	case errors.Is(err, generation.ErrInvalidRequest):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid_request",
			"message": err.Error(),
		})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "not_found",
			"message": "Account not found",
		})
	case generation.IsProviderError(err), generation.IsMalformed(err):
		log.Warnf("[Generation] %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "generation_failed",
			"message": "Exam generation failed, please try again",
		})
	default:
		log.Errorf("[Generation] %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "internal_server_error",
			"message": "Internal server error",
		})
	}
}

// billingError maps checkout and webhook failures to status codes.
func billingError(c *fiber.Ctx, err error) error {
	switch {
	case billing.IsAuthError(err):
		return jsonError(c, fiber.StatusForbidden, "forbidden", "Webhook verification failed")
	case billing.IsValidationError(err):
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, billing.ErrUnknownPlan):
		return jsonError(c, fiber.StatusBadRequest, "invalid_plan", "Unknown plan")
	case errors.Is(err, billing.ErrPaymentNotFound):
		return jsonError(c, fiber.StatusNotFound, "not_found", "Payment not found")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return jsonError(c, fiber.StatusNotFound, "not_found", "Account not found")
	case billing.IsGatewayError(err):
		log.Errorf("[Billing] %v", err)
		return jsonError(c, fiber.StatusBadGateway, "payment_gateway_error", "Payment processor unavailable")
	default:
		return internalError(c, "Billing", err)
	}
}

// resultLabel is the metric label of a handled request.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case billing.IsAuthError(err):
		return "forbidden"
	case billing.IsValidationError(err), errors.Is(err, billing.ErrUnknownPlan):
		return "invalid"
	case errors.Is(err, billing.ErrPaymentNotFound):
		return "not_found"
	case billing.IsGatewayError(err):
		return "gateway_error"
	default:
		return "error"
	}
}

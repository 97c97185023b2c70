package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/ExamFox/internal/pkg/billing"
	"github.com/ManuelReschke/ExamFox/internal/pkg/usercontext"
)

type checkoutRequest struct {
	Plan string `json:"plan"`
}

// HandleCheckout starts a PIX checkout for a paid plan.
func (ac *APIController) HandleCheckout(c *fiber.Ctx) error {
	accountID := usercontext.GetAccountID(c)
	if accountID == 0 {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Invalid request body")
	}
	plan := strings.ToLower(strings.TrimSpace(req.Plan))

	res, err := ac.checkout.StartCheckout(c.UserContext(), accountID, plan)
	ac.metrics.RecordCheckout(plan, resultLabel(err))
	if err != nil {
		return billingError(c, err)
	}

	log.Infof("[Billing] checkout %s started for account %d (%s)", res.PaymentID, accountID, res.Plan)
	return c.JSON(res)
}

// HandleAsaasWebhook applies a payment notification. The raw body is
// verified before it is parsed.
func (ac *APIController) HandleAsaasWebhook(c *fiber.Ctx) error {
	if ac.verifier == nil {
		return billingError(c, billing.ErrWebhookForbidden)
	}
	payload := append([]byte(nil), c.Body()...)
	signature := c.Get(ac.verifier.Header())

	res, err := ac.webhooks.HandleWebhook(c.UserContext(), ac.verifier, payload, signature)
	class := "unknown"
	if res != nil {
		class = string(res.Class)
	}
	ac.metrics.RecordWebhook(class, resultLabel(err))
	if err != nil {
		if billing.IsAuthError(err) {
			log.Warnf("[Billing] rejected unverified webhook from %s", c.IP())
		}
		return billingError(c, err)
	}

	body := fiber.Map{"success": true}
	if res.Duplicate {
		body["duplicate"] = true
	}
	return c.JSON(body)
}

// HandleListTransactions lists the caller's payment attempts, newest first.
func (ac *APIController) HandleListTransactions(c *fiber.Ctx) error {
	accountID := usercontext.GetAccountID(c)
	if accountID == 0 {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}
	offset, limit := pagination(c)

	txns, err := ac.repos.Transaction.ListByAccount(accountID, offset, limit)
	if err != nil {
		return internalError(c, "Billing", err)
	}
	return c.JSON(fiber.Map{
		"items":  txns,
		"offset": offset,
		"limit":  limit,
	})
}

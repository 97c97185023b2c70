package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ExamFox/app/models"
	"github.com/ManuelReschke/ExamFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/ExamFox/internal/pkg/usercontext"
)

type signupRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// HandleSignup creates a free account and returns its API key once.
func (ac *APIController) HandleSignup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Invalid request body")
	}

	account, apiKey, err := models.NewAccount(req.Name, req.Email)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return jsonError(c, fiber.StatusBadRequest, "invalid_request", verrs.Error())
		}
		return internalError(c, "Account", err)
	}

	accounts := ac.repos.Account
	if _, err := accounts.GetByEmail(account.Email); err == nil {
		return jsonError(c, fiber.StatusConflict, "conflict", "Email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return internalError(c, "Account", err)
	}

	if err := accounts.Create(account); err != nil {
		return internalError(c, "Account", err)
	}
	ac.metrics.RecordSignup()
	log.Infof("[Account] created account %d", account.ID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      account.ID,
		"name":    account.Name,
		"email":   account.Email,
		"api_key": apiKey,
	})
}

// HandleGetAccount returns the caller's account with its current entitlement.
func (ac *APIController) HandleGetAccount(c *fiber.Ctx) error {
	accountCtx := usercontext.GetAccountContext(c)
	if !accountCtx.IsAuthenticated {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	account, err := ac.repos.Account.GetByID(accountCtx.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Account not found")
		}
		return internalError(c, "Account", err)
	}

	return c.JSON(accountResponse(account, ac.now()))
}

func accountResponse(account *models.Account, now time.Time) fiber.Map {
	ent := entitlements.Evaluate(entitlements.SnapshotOf(account), now)
	return fiber.Map{
		"id":             account.ID,
		"name":           account.Name,
		"email":          account.Email,
		"is_admin":       account.IsAdmin(),
		"api_key_prefix": account.APIKeyPrefix,
		"created_at":     account.CreatedAt.UTC().Format(time.RFC3339),
		"entitlement": fiber.Map{
			"plan":      ent.Plan,
			"limit":     ent.Limit,
			"used":      ent.Used,
			"remaining": ent.Remaining,
			"blocked":   ent.Blocked,
			"alert":     ent.Alert,
			"subscription": fiber.Map{
				"status": account.SubscriptionStatus,
				"plan":   strings.TrimSpace(account.SubscriptionPlan),
				"start":  formatTimePtr(account.SubscriptionStart),
				"end":    formatTimePtr(account.SubscriptionEnd),
			},
		},
	}
}

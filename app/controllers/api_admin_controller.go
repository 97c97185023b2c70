package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ExamFox/internal/pkg/usercontext"
)

const maxStatsDays = 90

// HandleAdminListAccounts lists accounts with their entitlement.
func (ac *APIController) HandleAdminListAccounts(c *fiber.Ctx) error {
	offset, limit := pagination(c)

	accounts, err := ac.repos.Account.List(offset, limit)
	if err != nil {
		return internalError(c, "Admin", err)
	}
	total, err := ac.repos.Account.Count()
	if err != nil {
		return internalError(c, "Admin", err)
	}

	now := ac.now()
	items := make([]fiber.Map, 0, len(accounts))
	for i := range accounts {
		items = append(items, accountResponse(&accounts[i], now))
	}
	return c.JSON(fiber.Map{
		"items":  items,
		"total":  total,
		"offset": offset,
		"limit":  limit,
	})
}

// HandleAdminResetQuota sets an account's usage counter back to zero.
func (ac *APIController) HandleAdminResetQuota(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Invalid account id")
	}

	if err := ac.repos.Account.ResetQuota(uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Account not found")
		}
		return internalError(c, "Admin", err)
	}
	log.Infof("[Admin] account %d reset quota of account %d", usercontext.GetAccountID(c), id)

	account, err := ac.repos.Account.GetByID(uint(id))
	if err != nil {
		return internalError(c, "Admin", err)
	}
	return c.JSON(accountResponse(account, ac.now()))
}

// HandleAdminStats returns per-day generation outcome counts.
func (ac *APIController) HandleAdminStats(c *fiber.Ctx) error {
	if ac.daily == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "unavailable", "Statistics are not configured")
	}
	days, err := strconv.Atoi(c.Query("days", "7"))
	if err != nil || days < 1 {
		days = 7
	}
	if days > maxStatsDays {
		days = maxStatsDays
	}

	stats, err := ac.daily.Range(c.UserContext(), ac.now(), days)
	if err != nil {
		return internalError(c, "Admin", err)
	}
	return c.JSON(fiber.Map{"days": stats})
}

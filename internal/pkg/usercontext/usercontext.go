package usercontext

import "github.com/gofiber/fiber/v2"

// AccountContext is the authenticated caller of a request. It is resolved
// once by the authentication middleware.
type AccountContext struct {
	AccountID       uint   `json:"account_id"`
	Name            string `json:"name"`
	IsAuthenticated bool   `json:"is_authenticated"`
	IsAdmin         bool   `json:"is_admin"`
}

// Set stores the account context and its legacy locals.
func Set(c *fiber.Ctx, ctx AccountContext) {
	c.Locals(KeyAccountContext, ctx)
	c.Locals(KeyAccountID, ctx.AccountID)
	c.Locals(KeyIsAdmin, ctx.IsAdmin)
}

// GetAccountContext retrieves the account context from fiber context
// Returns an anonymous context if none is set
func GetAccountContext(c *fiber.Ctx) AccountContext {
	if ctx, ok := c.Locals(KeyAccountContext).(AccountContext); ok {
		return ctx
	}
	return AccountContext{}
}

// IsAuthenticated checks if the request carries a valid API key
func IsAuthenticated(c *fiber.Ctx) bool {
	return GetAccountContext(c).IsAuthenticated
}

// IsAdmin checks if the caller is an admin
func IsAdmin(c *fiber.Ctx) bool {
	return GetAccountContext(c).IsAdmin
}

// GetAccountID returns the caller's account ID, or 0 if anonymous
func GetAccountID(c *fiber.Ctx) uint {
	return GetAccountContext(c).AccountID
}

package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/ExamFox/app/controllers"
	"github.com/ManuelReschke/ExamFox/internal/pkg/middleware"
)

const webhookPath = "/api/v1/billing/webhooks/asaas"

type ApiRouter struct {
	opts Options
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	ctl := h.opts.Controller
	if ctl == nil {
		ctl = controllers.GetAPIController()
	}
	auth := h.opts.Auth
	if auth == nil {
		auth = middleware.APIKeyAuthMiddleware()
	}

	maxRequests, window := h.opts.apiLimit()
	api := app.Group("/api", limiter.New(limiter.Config{
		// the payment processor retries on its own schedule
		Next:         func(c *fiber.Ctx) bool { return c.Path() == webhookPath },
		Max:          maxRequests,
		Expiration:   window,
		Storage:      h.opts.LimiterStorage,
		LimitReached: tooManyRequests,
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	// public
	signupMax, signupWindow := h.opts.signupLimit()
	v1.Post("/accounts", limiter.New(limiter.Config{
		Max:          signupMax,
		Expiration:   signupWindow,
		Storage:      h.opts.LimiterStorage,
		KeyGenerator: func(c *fiber.Ctx) string { return "signup:" + c.IP() },
		LimitReached: tooManyRequests,
	}), ctl.HandleSignup)
	v1.Post("/billing/webhooks/asaas", ctl.HandleAsaasWebhook)

	// account
	v1.Get("/account", auth, middleware.RequireAuth, ctl.HandleGetAccount)
	v1.Post("/exams/generate", auth, middleware.RequireAuth, ctl.HandleGenerateExam)
	v1.Get("/exams", auth, middleware.RequireAuth, ctl.HandleListExams)
	v1.Get("/exams/:uuid", auth, middleware.RequireAuth, ctl.HandleGetExam)
	v1.Post("/billing/checkout", auth, middleware.RequireAuth, ctl.HandleCheckout)
	v1.Get("/billing/transactions", auth, middleware.RequireAuth, ctl.HandleListTransactions)

	// admin
	admin := v1.Group("/admin", auth, middleware.RequireAdmin)
	admin.Get("/accounts", ctl.HandleAdminListAccounts)
	admin.Post("/accounts/:id/reset-quota", ctl.HandleAdminResetQuota)
	admin.Get("/stats", ctl.HandleAdminStats)
}

func NewApiRouter(opts Options) *ApiRouter {
	return &ApiRouter{opts: opts}
}

func tooManyRequests(c *fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error":   "rate_limited",
		"message": "Too many requests, please slow down",
	})
}

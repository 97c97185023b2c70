package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ExamFox/internal/pkg/metrics"
)

type SystemRouter struct {
	opts Options
}

func (s SystemRouter) InstallRouter(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	if s.opts.Registry != nil {
		app.Get("/metrics", metrics.Handler(s.opts.Registry))
	}
}

func NewSystemRouter(opts Options) *SystemRouter {
	return &SystemRouter{opts: opts}
}

package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ManuelReschke/ExamFox/app/controllers"
)

// Options carries what the routers need beyond the global controller.
type Options struct {
	Controller *controllers.APIController
	// Auth resolves the caller from the request. Defaults to the API key
	// middleware backed by the global repository factory.
	Auth fiber.Handler
	// Registry is exposed on /metrics when set.
	Registry *prometheus.Registry
	// LimiterStorage backs the rate limiter; nil keeps counters in memory.
	LimiterStorage fiber.Storage
	// APIRequestsPerMinute and SignupsPerHour bound each client IP.
	APIRequestsPerMinute int
	SignupsPerHour       int
}

func (o Options) apiLimit() (int, time.Duration) {
	if o.APIRequestsPerMinute <= 0 {
		return 60, time.Minute
	}
	return o.APIRequestsPerMinute, time.Minute
}

func (o Options) signupLimit() (int, time.Duration) {
	if o.SignupsPerHour <= 0 {
		return 5, time.Hour
	}
	return o.SignupsPerHour, time.Hour
}

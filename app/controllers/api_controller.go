package controllers

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ExamFox/app/repository"
	"github.com/ManuelReschke/ExamFox/internal/pkg/billing"
	"github.com/ManuelReschke/ExamFox/internal/pkg/generation"
	"github.com/ManuelReschke/ExamFox/internal/pkg/metrics"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CheckoutStarter starts a paid-plan purchase.
type CheckoutStarter interface {
	StartCheckout(ctx context.Context, accountID uint, plan string) (*billing.CheckoutResult, error)
}

// WebhookProcessor verifies and applies a raw payment notification.
type WebhookProcessor interface {
	HandleWebhook(ctx context.Context, verifier billing.Verifier, payload []byte, signatureHeader string) (*billing.ApplyResult, error)
}

// ExamGenerator runs one generation for an account.
type ExamGenerator interface {
	Generate(ctx context.Context, accountID uint, req generation.Request) (*generation.Result, error)
}

// APIDeps are the collaborators of the JSON API.
type APIDeps struct {
	Repos     *repository.Repositories
	Checkout  CheckoutStarter
	Webhooks  WebhookProcessor
	Verifier  billing.Verifier
	Generator ExamGenerator
	Metrics   *metrics.Metrics
	Daily     *metrics.DailyCounter
}

// APIController serves the /api/v1 endpoints.
type APIController struct {
	repos     *repository.Repositories
	checkout  CheckoutStarter
	webhooks  WebhookProcessor
	verifier  billing.Verifier
	generator ExamGenerator
	metrics   *metrics.Metrics
	daily     *metrics.DailyCounter
	now       func() time.Time
}

func NewAPIController(deps APIDeps) *APIController {
	return &APIController{
		repos:     deps.Repos,
		checkout:  deps.Checkout,
		webhooks:  deps.Webhooks,
		verifier:  deps.Verifier,
		generator: deps.Generator,
		metrics:   deps.Metrics,
		daily:     deps.Daily,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Global API controller instance
var apiController *APIController

// InitializeAPIController sets the global API controller used by the router
func InitializeAPIController(deps APIDeps) {
	apiController = NewAPIController(deps)
}

// GetAPIController returns the global API controller instance
func GetAPIController() *APIController {
	if apiController == nil {
		panic("API controller not initialized. Call InitializeAPIController first.")
	}
	return apiController
}

// pagination reads ?offset and ?limit with sane bounds.
func pagination(c *fiber.Ctx) (int, int) {
	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return offset, limit
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

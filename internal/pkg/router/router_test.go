package router

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/ExamFox/app/controllers"
	"github.com/ManuelReschke/ExamFox/app/models"
	"github.com/ManuelReschke/ExamFox/app/repository"
	"github.com/ManuelReschke/ExamFox/internal/pkg/metrics"
	"github.com/ManuelReschke/ExamFox/internal/pkg/middleware"
	"github.com/ManuelReschke/ExamFox/internal/pkg/testutil"
)

func newTestApp(t *testing.T, opts Options) (*fiber.App, *repository.Repositories) {
	t.Helper()

	db := testutil.NewDB(t)
	repos := repository.NewRepositories(db)
	registry := metrics.NewRegistry()

	opts.Controller = controllers.NewAPIController(controllers.APIDeps{
		Repos:   repos,
		Metrics: metrics.NewMetrics(registry),
	})
	opts.Auth = middleware.APIKeyAuth(repos.Account)
	opts.Registry = registry

	app := fiber.New()
	InstallRouter(app, opts)
	return app, repos
}

func request(t *testing.T, app *fiber.App, method, path, apiKey, body string) (*http.Response, string) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, string(raw)
}

func TestHealthAndMetrics(t *testing.T) {
	app, _ := newTestApp(t, Options{})

	resp, body := request(t, app, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	request(t, app, http.MethodPost, "/api/v1/accounts", "", `{"name":"Dora","email":"dora@example.com"}`)

	resp, body = request(t, app, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "examfox_signups_total 1")
}

func TestSignupThenAuthenticatedAccess(t *testing.T) {
	app, _ := newTestApp(t, Options{})

	resp, _ := request(t, app, http.MethodGet, "/api/v1/account", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := request(t, app, http.MethodPost, "/api/v1/accounts", "", `{"name":"Eva","email":"eva@example.com"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		APIKey string `json:"api_key"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &created))

	resp, body = request(t, app, http.MethodGet, "/api/v1/account", created.APIKey, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"email":"eva@example.com"`)

	resp, _ = request(t, app, http.MethodGet, "/api/v1/account", "exf_invalid", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = request(t, app, http.MethodGet, "/api/v1/admin/accounts", created.APIKey, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	app, repos := newTestApp(t, Options{})

	admin, key, err := models.NewAccount("Root", "root@example.com")
	require.NoError(t, err)
	admin.Role = models.ROLE_ADMIN
	require.NoError(t, repos.Account.Create(admin))

	resp, body := request(t, app, http.MethodGet, "/api/v1/admin/accounts", key, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"total":1`)
}

func TestSignupRateLimit(t *testing.T) {
	app, _ := newTestApp(t, Options{SignupsPerHour: 1})

	resp, _ := request(t, app, http.MethodPost, "/api/v1/accounts", "", `{"name":"Fabi","email":"fabi@example.com"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := request(t, app, http.MethodPost, "/api/v1/accounts", "", `{"name":"Gabi","email":"gabi@example.com"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, body, "rate_limited")
}

func TestMetricsHiddenWithoutRegistry(t *testing.T) {
	app := fiber.New()
	InstallRouter(app, Options{
		Controller: controllers.NewAPIController(controllers.APIDeps{Metrics: metrics.NewMetrics(prometheus.NewRegistry())}),
		Auth:       func(c *fiber.Ctx) error { return c.Next() },
	})

	resp, _ := request(t, app, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebhookIsPublicButVerified(t *testing.T) {
	app, _ := newTestApp(t, Options{APIRequestsPerMinute: 1})

	// exempt from the API limiter, rejected without a configured verifier
	for i := 0; i < 3; i++ {
		resp, body := request(t, app, http.MethodPost, "/api/v1/billing/webhooks/asaas", "", `{"event":"PAYMENT_CONFIRMED"}`)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Contains(t, body, "forbidden")
	}
}

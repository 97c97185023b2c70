package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/ExamFox/internal/pkg/generation"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestDailyCounter_IncrAndRange(t *testing.T) {
	mr, client := newTestRedis(t)
	d := NewDailyCounter(client)
	ctx := context.Background()
	now := time.Date(2026, 4, 10, 15, 0, 0, 0, time.UTC)

	require.NoError(t, d.Incr(ctx, now, "success"))
	require.NoError(t, d.Incr(ctx, now, "success"))
	require.NoError(t, d.Incr(ctx, now, "quota_exceeded"))
	require.NoError(t, d.Incr(ctx, now.AddDate(0, 0, -2), "malformed"))

	assert.True(t, mr.Exists("stats:generation:2026-04-10"))
	assert.Greater(t, mr.TTL("stats:generation:2026-04-10"), time.Duration(0))

	stats, err := d.Range(ctx, now, 3)
	require.NoError(t, err)
	require.Len(t, stats, 3)

	assert.Equal(t, "2026-04-08", stats[0].Date)
	assert.Equal(t, int64(1), stats[0].Counts["malformed"])
	assert.Equal(t, "2026-04-09", stats[1].Date)
	assert.Zero(t, stats[1].Total)
	assert.Empty(t, stats[1].Counts)
	assert.Equal(t, "2026-04-10", stats[2].Date)
	assert.Equal(t, int64(2), stats[2].Counts["success"])
	assert.Equal(t, int64(3), stats[2].Total)

	empty, err := d.Range(ctx, now, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRecorder_FeedsBothSinks(t *testing.T) {
	_, client := newTestRedis(t)
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	daily := NewDailyCounter(client)
	r := NewRecorder(m, daily)
	fixed := time.Date(2026, 4, 10, 1, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.RecordGeneration(ctx, generation.OutcomeSuccess)
	r.RecordGeneration(context.Background(), generation.OutcomeProviderError)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationsTotal.WithLabelValues("provider_error")))

	stats, err := daily.Range(context.Background(), fixed, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats[0].Total)
}

func TestRecorder_NilSinks(t *testing.T) {
	r := NewRecorder(nil, nil)
	assert.NotPanics(t, func() { r.RecordGeneration(context.Background(), generation.OutcomeSuccess) })

	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCheckout("pro", "ok")
		m.RecordWebhook("confirmed", "ok")
		m.RecordSignup()
	})
}

func TestHandler_ExposesCounters(t *testing.T) {
	registry := NewRegistry()
	m := NewMetrics(registry)
	m.RecordCheckout("pro", "ok")
	m.RecordSignup()

	app := fiber.New()
	app.Get("/metrics", Handler(registry))

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), `examfox_checkouts_total{plan="pro",result="ok"} 1`)
	assert.Contains(t, string(body), "examfox_signups_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}

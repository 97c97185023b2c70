// Package metrics exposes Prometheus counters and Redis-backed daily outcome
// counters for the admin stats endpoint.
package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	GenerationsTotal *prometheus.CounterVec
	CheckoutsTotal   *prometheus.CounterVec
	WebhooksTotal    *prometheus.CounterVec
	SignupsTotal     prometheus.Counter
}

// NewMetrics creates and registers all metrics on registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		GenerationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "examfox_generations_total",
				Help: "Generation attempts by outcome",
			},
			[]string{"outcome"},
		),
		CheckoutsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "examfox_checkouts_total",
				Help: "Checkout attempts by plan and result",
			},
			[]string{"plan", "result"},
		),
		WebhooksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "examfox_payment_webhooks_total",
				Help: "Payment notifications by class and result",
			},
			[]string{"class", "result"},
		),
		SignupsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "examfox_signups_total",
				Help: "Accounts created",
			},
		),
	}

	registry.MustRegister(
		m.GenerationsTotal,
		m.CheckoutsTotal,
		m.WebhooksTotal,
		m.SignupsTotal,
	)
	return m
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// Handler serves the registry in the Prometheus text format.
func Handler(registry *prometheus.Registry) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}

func (m *Metrics) RecordCheckout(plan, result string) {
	if m == nil {
		return
	}
	m.CheckoutsTotal.WithLabelValues(plan, result).Inc()
}

func (m *Metrics) RecordWebhook(class, result string) {
	if m == nil {
		return
	}
	m.WebhooksTotal.WithLabelValues(class, result).Inc()
}

func (m *Metrics) RecordSignup() {
	if m == nil {
		return
	}
	m.SignupsTotal.Inc()
}

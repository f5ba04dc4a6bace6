// Package metrics exposes Prometheus collectors for the API and the worker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shopledger/internal/domain/sales"
	"shopledger/internal/infrastructure/storage/postgres"
)

const namespace = "shopledger"

// Metrics owns a private registry so tests can create as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	saleEvents     *prometheus.CounterVec
	revenue        prometheus.Counter
	paymentsTaken  prometheus.Counter
	outboxMessages *prometheus.CounterVec
	idempotencyGC  prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"method", "route", "status"})
	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	m.saleEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sale_events_total",
		Help:      "Committed sale mutations by kind and resulting status.",
	}, []string{"event", "status"})
	m.revenue = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sales_invoiced_total",
		Help:      "Total of new invoices, in currency units.",
	})
	m.paymentsTaken = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_payments_total",
		Help:      "Amount paid at checkout on new invoices, in currency units.",
	})
	m.outboxMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_messages_total",
		Help:      "Outbox messages handled by the worker.",
	}, []string{"result"})
	m.idempotencyGC = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotency_keys_expired_total",
		Help:      "Expired idempotency keys removed by the worker.",
	})

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.saleEvents,
		m.revenue,
		m.paymentsTaken,
		m.outboxMessages,
		m.idempotencyGC,
	)
	return m
}

// RegisterDBPool exports connection pool usage, sampled at scrape time.
func (m *Metrics) RegisterDBPool(stats func() postgres.PoolStats) {
	gauge := func(state string, read func(postgres.PoolStats) int32) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "db_pool_connections",
			Help:        "Database pool connections by state.",
			ConstLabels: prometheus.Labels{"state": state},
		}, func() float64 { return float64(read(stats())) })
	}
	m.registry.MustRegister(
		gauge("total", func(s postgres.PoolStats) int32 { return s.TotalConns }),
		gauge("acquired", func(s postgres.PoolStats) int32 { return s.AcquiredConns }),
		gauge("idle", func(s postgres.PoolStats) int32 { return s.IdleConns }),
		gauge("max", func(s postgres.PoolStats) int32 { return s.MaxConns }),
	)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// SaleCommitted records a sale mutation after its transaction committed.
// Amounts are counted for new invoices only.
func (m *Metrics) SaleCommitted(event string, sale *sales.Sale) {
	m.saleEvents.WithLabelValues(event, string(sale.Status)).Inc()
	if event != sales.EventSaleCreated {
		return
	}
	m.revenue.Add(sale.Total.InexactFloat64())
	m.paymentsTaken.Add(sale.AmountPaid.InexactFloat64())
}

func (m *Metrics) OutboxHandled(delivered, failed int) {
	m.outboxMessages.WithLabelValues("delivered").Add(float64(delivered))
	m.outboxMessages.WithLabelValues("failed").Add(float64(failed))
}

func (m *Metrics) IdempotencyKeysExpired(n int64) {
	m.idempotencyGC.Add(float64(n))
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/types"
	"shopledger/internal/domain/sales"
	"shopledger/internal/infrastructure/storage/postgres"
)

func TestSaleCommitted(t *testing.T) {
	m := New()

	created := &sales.Sale{
		Total:      types.MustMoney("100"),
		AmountPaid: types.MustMoney("40"),
		Status:     sales.StatusPartialPayment,
	}
	m.SaleCommitted(sales.EventSaleCreated, created)

	paid := &sales.Sale{
		Total:      types.MustMoney("100"),
		AmountPaid: types.MustMoney("100"),
		Status:     sales.StatusCompleted,
	}
	m.SaleCommitted(sales.EventPaymentApplied, paid)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.saleEvents.WithLabelValues(sales.EventSaleCreated, string(sales.StatusPartialPayment))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.saleEvents.WithLabelValues(sales.EventPaymentApplied, string(sales.StatusCompleted))))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.revenue))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.paymentsTaken))
}

func TestObserveHTTP(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodGet, "/api/v1/sales/:id", 200, 15*time.Millisecond)
	m.ObserveHTTP(http.MethodGet, "", 404, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/v1/sales/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.OutboxHandled(3, 1)
	m.IdempotencyKeysExpired(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `shopledger_outbox_messages_total{result="delivered"} 3`)
	assert.Contains(t, body, "shopledger_idempotency_keys_expired_total 2")
}

func TestRegisterDBPool(t *testing.T) {
	m := New()
	m.RegisterDBPool(func() postgres.PoolStats {
		return postgres.PoolStats{TotalConns: 4, AcquiredConns: 1, IdleConns: 3, MaxConns: 10}
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, `shopledger_db_pool_connections{state="acquired"} 1`)
	assert.Contains(t, body, `shopledger_db_pool_connections{state="max"} 10`)
}

// Package main is the entry point for the shopledger background worker.
// It drains the event outbox and expires idempotency keys.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"shopledger/internal/config"
	"shopledger/internal/domain/sales"
	"shopledger/internal/infrastructure/metrics"
	"shopledger/internal/infrastructure/storage/postgres"
	"shopledger/internal/infrastructure/storage/postgres/document_repo"
	"shopledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting shopledger worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	m := metrics.New()
	worker := NewWorker(txManager, cfg, m, log)

	var metricsServer *http.Server
	if cfg.WorkerMetricsAddr != "" {
		metricsServer = &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: m.Handler(), ReadTimeout: cfg.ReadTimeout}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorw("metrics server failed", "error", err)
			}
		}()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()
	wg.Wait()

	if metricsServer != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer stop()
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	log.Info("worker stopped")
}

// Worker runs the periodic jobs.
type Worker struct {
	relay       *postgres.OutboxRelay
	idempotency *postgres.IdempotencyStore
	metrics     *metrics.Metrics
	log         *logger.Logger
	interval    time.Duration
	retention   time.Duration

	mu     sync.Mutex
	failed int
}

func NewWorker(txManager *postgres.TxManager, cfg config.Config, m *metrics.Metrics, log *logger.Logger) *Worker {
	w := &Worker{
		idempotency: postgres.NewIdempotencyStore(txManager, cfg.IdempotencyTTL),
		metrics:     m,
		log:         log.WithComponent("worker"),
		interval:    cfg.WorkerInterval,
		retention:   cfg.OutboxRetention,
	}
	w.relay = postgres.NewOutboxRelay(txManager, cfg.OutboxBatchSize, postgres.OutboxHandlerFunc(w.deliver))
	return w
}

// Run polls the outbox every interval and cleans up hourly until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	ctx = logger.WithLogger(ctx, w.log)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(time.Hour)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drainOutbox(ctx)
		case <-cleanupTicker.C:
			w.cleanup(ctx)
		}
	}
}

func (w *Worker) drainOutbox(ctx context.Context) {
	w.mu.Lock()
	w.failed = 0
	w.mu.Unlock()

	delivered, err := w.relay.ProcessBatch(ctx)
	if err != nil {
		w.log.Errorw("outbox batch failed", "error", err)
		return
	}

	w.mu.Lock()
	failed := w.failed
	w.mu.Unlock()

	w.metrics.OutboxHandled(delivered, failed)
	if delivered > 0 || failed > 0 {
		w.log.Debugw("processed outbox batch", "delivered", delivered, "failed", failed)
	}
}

// deliver is the integration point for outbox events. Stock alerts are
// raised as warnings; other events are logged.
func (w *Worker) deliver(ctx context.Context, msg *postgres.OutboxMessage) error {
	switch msg.EventType {
	case sales.EventStockLow:
		var p document_repo.StockLowPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			w.countFailure()
			return fmt.Errorf("decode %s: %w", msg.EventType, err)
		}
		w.log.Warnw("product stock is low",
			"product_id", p.ProductID, "name", p.Name, "stock", p.Stock, "min_stock", p.MinStock)
	default:
		var p sales.EventPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			w.countFailure()
			return fmt.Errorf("decode %s: %w", msg.EventType, err)
		}
		w.log.Infow("sale event",
			"event_type", msg.EventType,
			"sale_id", msg.AggregateID,
			"invoice_id", p.InvoiceID,
			"status", p.Status)
	}
	return nil
}

func (w *Worker) countFailure() {
	w.mu.Lock()
	w.failed++
	w.mu.Unlock()
}

func (w *Worker) cleanup(ctx context.Context) {
	expired, err := w.idempotency.CleanupExpired(ctx)
	if err != nil {
		w.log.Errorw("idempotency cleanup failed", "error", err)
	} else if expired > 0 {
		w.metrics.IdempotencyKeysExpired(expired)
		w.log.Infow("cleaned up idempotency keys", "count", expired)
	}

	purged, err := w.relay.PurgePublished(ctx, w.retention)
	if err != nil {
		w.log.Errorw("outbox purge failed", "error", err)
	} else if purged > 0 {
		w.log.Infow("purged delivered outbox messages", "count", purged)
	}
}

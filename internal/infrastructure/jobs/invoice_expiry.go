package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"crypto-invoice.backend/internal/domain/entities"
	"crypto-invoice.backend/pkg/logger"
	"crypto-invoice.backend/pkg/metrics"
)

type invoiceExpiryRepository interface {
	GetExpiredPending(ctx context.Context, now time.Time, limit int) ([]*entities.Invoice, error)
	ExpireInvoices(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// InvoiceExpiryJob moves pending invoices whose explicit expires_at has passed
// to expired. Invoices without expires_at are never touched.
type InvoiceExpiryJob struct {
	repo      invoiceExpiryRepository
	metrics   *metrics.Registry
	interval  time.Duration
	batchSize int
	now       func() time.Time
	stop      chan struct{}
	stopOnce  sync.Once
}

func NewInvoiceExpiryJob(repo invoiceExpiryRepository, m *metrics.Registry, interval time.Duration, batchSize int) *InvoiceExpiryJob {
	if interval <= 0 {
		interval = time.Minute
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &InvoiceExpiryJob{
		repo:      repo,
		metrics:   m,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
		stop:      make(chan struct{}),
	}
}

// Start blocks until ctx is cancelled or Stop is called.
func (j *InvoiceExpiryJob) Start(ctx context.Context) {
	logger.Info(ctx, "Starting invoice expiry job", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Invoice expiry job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "Invoice expiry job stopped")
			return
		case <-ticker.C:
			j.processExpiredInvoices(ctx)
		}
	}
}

func (j *InvoiceExpiryJob) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
}

func (j *InvoiceExpiryJob) processExpiredInvoices(ctx context.Context) {
	expired, err := j.repo.GetExpiredPending(ctx, j.now(), j.batchSize)
	if err != nil {
		logger.Error(ctx, "Error fetching expired invoices", zap.Error(err))
		return
	}

	if len(expired) == 0 {
		return
	}

	ids := make([]uuid.UUID, 0, len(expired))
	for _, inv := range expired {
		ids = append(ids, inv.ID)
	}

	// rows settled between the select and the update are skipped by the status guard
	n, err := j.repo.ExpireInvoices(ctx, ids)
	if err != nil {
		logger.Error(ctx, "Error expiring invoices", zap.Error(err), zap.Int("candidates", len(ids)))
		return
	}

	j.metrics.AddExpired(n)
	logger.Info(ctx, "Expired invoices", zap.Int64("count", n))
}

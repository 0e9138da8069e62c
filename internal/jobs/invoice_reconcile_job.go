package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// InvoiceReconcileJobName is the name of the invoice reconciliation job
const InvoiceReconcileJobName = "invoice_reconcile"

// DefaultReconcileTimeout bounds a single reconciliation run
const DefaultReconcileTimeout = 5 * time.Minute

// InvoiceReconciler generates invoices for approved purchase orders that are
// missing one. Approvals whose invoice step failed leave such orders behind;
// this job is the background retry for them.
type InvoiceReconciler interface {
	// Reconcile scans up to batchSize approved orders without an invoice and
	// generates their invoices. Returns the number of invoices produced.
	Reconcile(ctx context.Context, batchSize int) (int, error)
}

// InvoiceReconcileJob runs invoice reconciliation on a schedule.
type InvoiceReconcileJob struct {
	reconciler InvoiceReconciler
	batchSize  int
	logger     *zap.Logger
	timeout    time.Duration
}

// NewInvoiceReconcileJob creates a new invoice reconciliation job.
func NewInvoiceReconcileJob(reconciler InvoiceReconciler, batchSize int, logger *zap.Logger, timeout time.Duration) *InvoiceReconcileJob {
	return &InvoiceReconcileJob{
		reconciler: reconciler,
		batchSize:  batchSize,
		logger:     logger,
		timeout:    timeout,
	}
}

// Run executes one reconciliation pass. Called by the scheduler.
func (j *InvoiceReconcileJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()

	generated, err := j.reconciler.Reconcile(ctx, j.batchSize)
	if err != nil {
		j.logger.Error("invoice reconciliation failed",
			zap.Error(err),
			zap.Int("generated", generated),
			zap.Duration("duration", time.Since(start)))
		return
	}

	if generated > 0 {
		j.logger.Info("invoice reconciliation completed",
			zap.Int("generated", generated),
			zap.Duration("duration", time.Since(start)))
	}
}

// RegisterInvoiceReconcileJob registers the reconciliation job with the
// scheduler. The cronExpr uses the scheduler's six-field format.
func RegisterInvoiceReconcileJob(scheduler *Scheduler, reconciler InvoiceReconciler, batchSize int, logger *zap.Logger, cronExpr string) error {
	job := NewInvoiceReconcileJob(reconciler, batchSize, logger, DefaultReconcileTimeout)
	return scheduler.AddJob(InvoiceReconcileJobName, cronExpr, job.Run)
}

package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/neemfurnitech/procurement-api/internal/domain"
	"github.com/neemfurnitech/procurement-api/internal/repository"
	"go.uber.org/zap"
)

// FinanceNotificationService records invoice events for the finance team.
// Recording is durable (a database row) rather than a live email send; a
// downstream mailer drains the table. Failures here never roll back the
// invoice the notification describes.
type FinanceNotificationService struct {
	notificationRepo *repository.FinanceNotificationRepository
	recipientEmail   string
	logger           *zap.Logger
}

// NewFinanceNotificationService creates a new finance notification service
func NewFinanceNotificationService(
	notificationRepo *repository.FinanceNotificationRepository,
	recipientEmail string,
	logger *zap.Logger,
) *FinanceNotificationService {
	return &FinanceNotificationService{
		notificationRepo: notificationRepo,
		recipientEmail:   recipientEmail,
		logger:           logger,
	}
}

// NotifyInvoiceGenerated records an invoice_generated notification for the
// finance recipient.
func (s *FinanceNotificationService) NotifyInvoiceGenerated(ctx context.Context, invoice *domain.Invoice, po *domain.PurchaseOrder) error {
	notification := &domain.FinanceNotification{
		RecipientEmail:   s.recipientEmail,
		InvoiceID:        invoice.ID,
		PurchaseOrderID:  po.ID,
		NotificationType: domain.NotificationTypeInvoiceGenerated,
		Subject:          fmt.Sprintf("Invoice Generated - PO %s", po.PONumber),
		Message: fmt.Sprintf("A new invoice has been generated for PO %s. Vendor: %s, Amount: ₹%s",
			po.PONumber, po.VendorName, po.TotalAmount.StringFixed(2)),
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		s.logger.Error("failed to record finance notification",
			zap.String("invoice_id", invoice.ID.String()),
			zap.String("po_number", po.PONumber),
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrNotification, err)
	}

	s.logger.Info("finance notification recorded",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("po_number", po.PONumber),
		zap.String("recipient", s.recipientEmail))

	return nil
}

// ListByInvoice returns notifications recorded for an invoice
func (s *FinanceNotificationService) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.FinanceNotification, error) {
	return s.notificationRepo.ListByInvoice(ctx, invoiceID)
}

// ListByPurchaseOrder returns notifications recorded for a purchase order
func (s *FinanceNotificationService) ListByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) ([]domain.FinanceNotification, error) {
	return s.notificationRepo.ListByPurchaseOrder(ctx, purchaseOrderID)
}

// List returns notifications with pagination, newest first
func (s *FinanceNotificationService) List(ctx context.Context, page, pageSize int) ([]domain.FinanceNotification, int64, error) {
	return s.notificationRepo.List(ctx, page, pageSize)
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/neemfurnitech/procurement-api/internal/domain"
	"github.com/neemfurnitech/procurement-api/internal/mapper"
	"github.com/neemfurnitech/procurement-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type InvoiceService struct {
	invoiceRepo *repository.InvoiceRepository
	poService   *PurchaseOrderService
	logger      *zap.Logger
}

func NewInvoiceService(
	invoiceRepo *repository.InvoiceRepository,
	poService *PurchaseOrderService,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		poService:   poService,
		logger:      logger,
	}
}

func (s *InvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*domain.InvoiceDTO, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	dto := mapper.ToInvoiceDTO(invoice)
	return &dto, nil
}

func (s *InvoiceService) List(ctx context.Context, page, pageSize int, status *domain.InvoiceStatus) (*domain.PaginatedResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	invoices, total, err := s.invoiceRepo.List(ctx, page, pageSize, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	dtos := make([]domain.InvoiceDTO, len(invoices))
	for i := range invoices {
		dtos[i] = mapper.ToInvoiceDTO(&invoices[i])
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// MarkPaid records that finance settled an invoice
func (s *InvoiceService) MarkPaid(ctx context.Context, id uuid.UUID) (*domain.InvoiceDTO, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	if invoice.Status == domain.InvoiceStatusPaid {
		dto := mapper.ToInvoiceDTO(invoice)
		return &dto, nil
	}

	if err := s.invoiceRepo.UpdateStatus(ctx, id, domain.InvoiceStatusPaid); err != nil {
		return nil, fmt.Errorf("failed to update invoice status: %w", err)
	}

	s.logger.Info("invoice marked paid",
		zap.String("invoice_number", invoice.InvoiceNumber))

	return s.GetByID(ctx, id)
}

// Reconcile finds approved orders whose invoice step failed and retries
// generation for each. Returns the number of invoices produced.
func (s *InvoiceService) Reconcile(ctx context.Context, batchSize int) (int, error) {
	orders, err := s.invoiceRepo.ListOrdersMissingInvoice(ctx, batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to find orders missing invoices: %w", err)
	}

	generated := 0
	for i := range orders {
		if _, err := s.poService.GenerateInvoice(ctx, orders[i].ID); err != nil {
			s.logger.Warn("invoice reconciliation failed for order",
				zap.String("po_number", orders[i].PONumber),
				zap.Error(err))
			continue
		}
		generated++
	}

	if generated > 0 {
		s.logger.Info("invoice reconciliation completed",
			zap.Int("generated", generated),
			zap.Int("candidates", len(orders)))
	}

	return generated, nil
}

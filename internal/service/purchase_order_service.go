package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/neemfurnitech/procurement-api/internal/auth"
	"github.com/neemfurnitech/procurement-api/internal/domain"
	"github.com/neemfurnitech/procurement-api/internal/mapper"
	"github.com/neemfurnitech/procurement-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PurchaseOrderService struct {
	poRepo       *repository.PurchaseOrderRepository
	invoiceRepo  *repository.InvoiceRepository
	auditService *AuditTrailService
	financeSvc   *FinanceNotificationService
	numberSvc    *NumberService
	logger       *zap.Logger
	db           *gorm.DB
}

func NewPurchaseOrderService(
	poRepo *repository.PurchaseOrderRepository,
	invoiceRepo *repository.InvoiceRepository,
	auditService *AuditTrailService,
	financeSvc *FinanceNotificationService,
	numberSvc *NumberService,
	logger *zap.Logger,
	db *gorm.DB,
) *PurchaseOrderService {
	return &PurchaseOrderService{
		poRepo:       poRepo,
		invoiceRepo:  invoiceRepo,
		auditService: auditService,
		financeSvc:   financeSvc,
		numberSvc:    numberSvc,
		logger:       logger,
		db:           db,
	}
}

// Create creates a new purchase order in draft state with its items.
// The order number is generated here and never changes afterwards.
func (s *PurchaseOrderService) Create(ctx context.Context, req *domain.CreatePurchaseOrderRequest) (*domain.PurchaseOrderDTO, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrInvalidInput)
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item quantity must be positive", ErrInvalidInput)
		}
		if item.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: item unit price cannot be negative", ErrInvalidInput)
		}
	}

	poNumber, err := s.numberSvc.GeneratePONumber(ctx)
	if err != nil {
		return nil, err
	}

	items := mapper.BuildItems(req.Items)

	po := &domain.PurchaseOrder{
		PONumber:    poNumber,
		VendorName:  req.VendorName,
		VendorEmail: req.VendorEmail,
		VendorPhone: req.VendorPhone,
		Description: req.Description,
		Status:      domain.POStatusDraft,
		TotalAmount: domain.OrderTotal(items),
		Items:       items,
	}

	if userCtx, ok := auth.FromContext(ctx); ok && userCtx != nil {
		po.CreatedByID = userCtx.UserID.String()
		po.CreatedByName = userCtx.DisplayName
	}

	if err := s.poRepo.Create(ctx, po); err != nil {
		return nil, fmt.Errorf("failed to create purchase order: %w", err)
	}

	s.logger.Info("purchase order created",
		zap.String("po_number", po.PONumber),
		zap.String("vendor", po.VendorName),
		zap.String("total", po.TotalAmount.StringFixed(2)))

	created, err := s.poRepo.GetByID(ctx, po.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload purchase order: %w", err)
	}

	dto := mapper.ToPurchaseOrderDTO(created)
	return &dto, nil
}

// Update replaces the editable fields and the full item set of a draft order.
// Orders that have left draft are immutable through this path.
func (s *PurchaseOrderService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdatePurchaseOrderRequest) (*domain.PurchaseOrderDTO, error) {
	po, err := s.poRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}

	if po.Status != domain.POStatusDraft {
		return nil, fmt.Errorf("%w: cannot edit order in status %s", ErrNotDraft, po.Status)
	}

	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrInvalidInput)
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item quantity must be positive", ErrInvalidInput)
		}
		if item.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: item unit price cannot be negative", ErrInvalidInput)
		}
	}

	items := mapper.BuildItems(req.Items)

	po.VendorName = req.VendorName
	po.VendorEmail = req.VendorEmail
	po.VendorPhone = req.VendorPhone
	po.Description = req.Description
	po.TotalAmount = domain.OrderTotal(items)
	po.Items = nil

	// The recomputed total and the new item set must land together. A reader
	// must never observe the old items priced at the new total.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewPurchaseOrderRepository(tx).Update(ctx, po); err != nil {
			return fmt.Errorf("failed to update purchase order: %w", err)
		}
		// Draft edits always send the complete item list, so replace wholesale.
		if err := repository.NewPurchaseOrderItemRepository(tx).ReplaceForOrder(ctx, po.ID, items); err != nil {
			return fmt.Errorf("failed to replace purchase order items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.poRepo.GetByID(ctx, po.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload purchase order: %w", err)
	}

	dto := mapper.ToPurchaseOrderDTO(updated)
	return &dto, nil
}

// Delete removes a draft order and its items. Orders that have left draft, or
// that already carry audit history, are refused.
func (s *PurchaseOrderService) Delete(ctx context.Context, id uuid.UUID) error {
	po, err := s.poRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get purchase order: %w", err)
	}

	if po.Status != domain.POStatusDraft {
		return fmt.Errorf("%w: cannot delete order in status %s", ErrNotDraft, po.Status)
	}

	hasHistory, err := s.auditService.HasHistory(ctx, domain.EntityTypePurchaseOrder, po.ID)
	if err != nil {
		return fmt.Errorf("failed to check audit history: %w", err)
	}
	if hasHistory {
		return ErrHasAuditHistory
	}

	if err := s.poRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete purchase order: %w", err)
	}

	s.logger.Info("purchase order deleted",
		zap.String("po_number", po.PONumber))

	return nil
}

// GetByID returns a single order with its items and invoice, if any
func (s *PurchaseOrderService) GetByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrderDTO, error) {
	po, err := s.poRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}

	dto := mapper.ToPurchaseOrderDTO(po)

	invoice, err := s.invoiceRepo.GetByPurchaseOrder(ctx, po.ID)
	if err == nil {
		invDTO := mapper.ToInvoiceDTO(invoice)
		dto.Invoice = &invDTO
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	return &dto, nil
}

// List returns orders matching the filter, newest first
func (s *PurchaseOrderService) List(ctx context.Context, filter domain.PurchaseOrderFilter) (*domain.PaginatedResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filter.Status)
	}

	orders, total, err := s.poRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase orders: %w", err)
	}

	dtos := make([]domain.PurchaseOrderDTO, len(orders))
	for i := range orders {
		dtos[i] = mapper.ToPurchaseOrderDTO(&orders[i])
	}

	totalPages := int((total + int64(filter.PageSize) - 1) / int64(filter.PageSize))

	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/neemfurnitech/procurement-api/internal/domain"
	"gorm.io/gorm"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := r.db.WithContext(ctx).
		Preload("PurchaseOrder").
		First(&invoice, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// GetByPurchaseOrder returns the invoice for an order, or gorm.ErrRecordNotFound.
// The unique index on purchase_order_id guarantees at most one row.
func (r *InvoiceRepository) GetByPurchaseOrder(ctx context.Context, poID uuid.UUID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", poID).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *InvoiceRepository) List(ctx context.Context, page, pageSize int, status *domain.InvoiceStatus) ([]domain.Invoice, int64, error) {
	var invoices []domain.Invoice
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Invoice{}).Preload("PurchaseOrder")

	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("generated_at DESC").Find(&invoices).Error

	return invoices, total, err
}

func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.InvoiceStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// ListOrdersMissingInvoice returns approved orders that have no invoice row.
// These are candidates for the reconciliation job.
func (r *InvoiceRepository) ListOrdersMissingInvoice(ctx context.Context, limit int) ([]domain.PurchaseOrder, error) {
	var orders []domain.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ?", domain.POStatusApproved).
		Where("id NOT IN (?)", r.db.Model(&domain.Invoice{}).Select("purchase_order_id")).
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

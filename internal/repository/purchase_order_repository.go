package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/neemfurnitech/procurement-api/internal/domain"
	"gorm.io/gorm"
)

type PurchaseOrderRepository struct {
	db *gorm.DB
}

func NewPurchaseOrderRepository(db *gorm.DB) *PurchaseOrderRepository {
	return &PurchaseOrderRepository{db: db}
}

func (r *PurchaseOrderRepository) Create(ctx context.Context, po *domain.PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(po).Error
}

func (r *PurchaseOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&po).Error
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *PurchaseOrderRepository) GetByNumber(ctx context.Context, poNumber string) (*domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("po_number = ?", poNumber).
		First(&po).Error
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *PurchaseOrderRepository) Update(ctx context.Context, po *domain.PurchaseOrder) error {
	return r.db.WithContext(ctx).Save(po).Error
}

// UpdateStatusIfCurrent performs a compare-and-swap on the order status.
// The update only applies when the stored status still equals expected, and the
// returned flag reports whether this caller won. Losing callers must reload and
// re-check rather than retry blindly.
func (r *PurchaseOrderRepository) UpdateStatusIfCurrent(ctx context.Context, id uuid.UUID, expected, next domain.PurchaseOrderStatus, updates map[string]interface{}) (bool, error) {
	values := map[string]interface{}{"status": next}
	for k, v := range updates {
		values[k] = v
	}
	result := r.db.WithContext(ctx).Model(&domain.PurchaseOrder{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PurchaseOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("purchase_order_id = ?", id).Delete(&domain.PurchaseOrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.PurchaseOrder{}, "id = ?", id).Error
	})
}

func (r *PurchaseOrderRepository) List(ctx context.Context, filter domain.PurchaseOrderFilter) ([]domain.PurchaseOrder, int64, error) {
	var orders []domain.PurchaseOrder
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.PurchaseOrder{}).Preload("Items")

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if filter.VendorName != "" {
		pattern := "%" + strings.ToLower(filter.VendorName) + "%"
		query = query.Where("LOWER(vendor_name) LIKE ?", pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.PageSize
	err := query.Offset(offset).Limit(filter.PageSize).Order("created_at DESC").Find(&orders).Error

	return orders, total, err
}

func (r *PurchaseOrderRepository) CountByStatus(ctx context.Context, status domain.PurchaseOrderStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.PurchaseOrder{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

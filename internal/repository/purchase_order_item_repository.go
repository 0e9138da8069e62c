package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/neemfurnitech/procurement-api/internal/domain"
	"gorm.io/gorm"
)

type PurchaseOrderItemRepository struct {
	db *gorm.DB
}

func NewPurchaseOrderItemRepository(db *gorm.DB) *PurchaseOrderItemRepository {
	return &PurchaseOrderItemRepository{db: db}
}

func (r *PurchaseOrderItemRepository) Create(ctx context.Context, item *domain.PurchaseOrderItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *PurchaseOrderItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrderItem, error) {
	var item domain.PurchaseOrderItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *PurchaseOrderItemRepository) ListByOrder(ctx context.Context, poID uuid.UUID) ([]domain.PurchaseOrderItem, error) {
	var items []domain.PurchaseOrderItem
	err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", poID).
		Order("created_at").
		Find(&items).Error
	return items, err
}

// ReplaceForOrder swaps the full item set of an order in one transaction.
// Used by draft edits, which always send the complete item list.
func (r *PurchaseOrderItemRepository) ReplaceForOrder(ctx context.Context, poID uuid.UUID, items []domain.PurchaseOrderItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("purchase_order_id = ?", poID).Delete(&domain.PurchaseOrderItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].PurchaseOrderID = poID
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PurchaseOrderItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.PurchaseOrderItem{}, "id = ?", id).Error
}

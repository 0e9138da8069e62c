package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/neemfurnitech/procurement-api/internal/domain"
	"gorm.io/gorm"
)

type FinanceNotificationRepository struct {
	db *gorm.DB
}

func NewFinanceNotificationRepository(db *gorm.DB) *FinanceNotificationRepository {
	return &FinanceNotificationRepository{db: db}
}

func (r *FinanceNotificationRepository) Create(ctx context.Context, notification *domain.FinanceNotification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *FinanceNotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.FinanceNotification, error) {
	var notification domain.FinanceNotification
	err := r.db.WithContext(ctx).First(&notification, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *FinanceNotificationRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.FinanceNotification, error) {
	var notifications []domain.FinanceNotification
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}

func (r *FinanceNotificationRepository) ListByPurchaseOrder(ctx context.Context, poID uuid.UUID) ([]domain.FinanceNotification, error) {
	var notifications []domain.FinanceNotification
	err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", poID).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}

func (r *FinanceNotificationRepository) List(ctx context.Context, page, pageSize int) ([]domain.FinanceNotification, int64, error) {
	var notifications []domain.FinanceNotification
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.FinanceNotification{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&notifications).Error

	return notifications, total, err
}

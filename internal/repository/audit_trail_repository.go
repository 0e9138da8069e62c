package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/neemfurnitech/procurement-api/internal/domain"
	"gorm.io/gorm"
)

// AuditTrailFilter represents filter options for querying the audit trail
type AuditTrailFilter struct {
	Action      *domain.AuditAction
	EntityType  string
	EntityID    *uuid.UUID
	ChangedByID string
	StartTime   *time.Time
	EndTime     *time.Time
}

// AuditTrailRepository handles audit trail data access. The table is
// append-only: this repository exposes no update or delete methods.
type AuditTrailRepository struct {
	db *gorm.DB
}

// NewAuditTrailRepository creates a new audit trail repository
func NewAuditTrailRepository(db *gorm.DB) *AuditTrailRepository {
	return &AuditTrailRepository{db: db}
}

// Create inserts a new audit trail entry
func (r *AuditTrailRepository) Create(ctx context.Context, entry *domain.AuditTrailEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// GetByID retrieves an audit trail entry by ID
func (r *AuditTrailRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AuditTrailEntry, error) {
	var entry domain.AuditTrailEntry
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List retrieves audit trail entries with pagination and optional filters
func (r *AuditTrailRepository) List(ctx context.Context, filter *AuditTrailFilter, page, pageSize int) ([]domain.AuditTrailEntry, int64, error) {
	var entries []domain.AuditTrailEntry
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.AuditTrailEntry{})
	query = r.applyFilters(query, filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&entries).Error

	return entries, total, err
}

// ListByEntity retrieves audit trail entries for a specific entity
func (r *AuditTrailRepository) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]domain.AuditTrailEntry, error) {
	var entries []domain.AuditTrailEntry
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// CountByEntity counts audit trail entries for a specific entity
func (r *AuditTrailRepository) CountByEntity(ctx context.Context, entityType string, entityID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.AuditTrailEntry{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Count(&count).Error
	return count, err
}

func (r *AuditTrailRepository) applyFilters(query *gorm.DB, filter *AuditTrailFilter) *gorm.DB {
	if filter == nil {
		return query
	}

	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}

	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}

	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}

	if filter.ChangedByID != "" {
		query = query.Where("changed_by_id = ?", filter.ChangedByID)
	}

	if filter.StartTime != nil {
		query = query.Where("created_at >= ?", *filter.StartTime)
	}

	if filter.EndTime != nil {
		query = query.Where("created_at <= ?", *filter.EndTime)
	}

	return query
}

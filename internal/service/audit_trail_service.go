package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/neemfurnitech/procurement-api/internal/auth"
	"github.com/neemfurnitech/procurement-api/internal/domain"
	"github.com/neemfurnitech/procurement-api/internal/repository"
	"go.uber.org/zap"
)

// AuditTrailService records state-changing actions against purchase orders.
// The trail is append-only.
type AuditTrailService struct {
	auditRepo *repository.AuditTrailRepository
	logger    *zap.Logger
}

// NewAuditTrailService creates a new audit trail service
func NewAuditTrailService(auditRepo *repository.AuditTrailRepository, logger *zap.Logger) *AuditTrailService {
	return &AuditTrailService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// Record appends an audit entry. The changes payload is serialized to JSON;
// a nil payload is stored as JSON null so the column stays queryable.
func (s *AuditTrailService) Record(ctx context.Context, entityType string, entityID uuid.UUID, action domain.AuditAction, changes interface{}) error {
	entry := &domain.AuditTrailEntry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		CreatedAt:  time.Now(),
	}

	if userCtx, ok := auth.FromContext(ctx); ok && userCtx != nil {
		entry.ChangedByID = userCtx.UserID.String()
		entry.ChangedBy = userCtx.DisplayName
	}

	if changes != nil {
		if payload, err := json.Marshal(changes); err == nil {
			entry.Changes = string(payload)
		} else {
			entry.Changes = "null"
		}
	} else {
		entry.Changes = "null"
	}

	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.Error("failed to create audit trail entry",
			zap.String("action", string(action)),
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID.String()),
			zap.Error(err))
		return err
	}

	return nil
}

// AuditTrailQueryParams represents query parameters for listing the trail
type AuditTrailQueryParams struct {
	Action      *domain.AuditAction
	EntityType  string
	EntityID    *uuid.UUID
	ChangedByID string
	StartTime   *time.Time
	EndTime     *time.Time
	Page        int
	PageSize    int
}

// List retrieves audit trail entries with filters
func (s *AuditTrailService) List(ctx context.Context, params AuditTrailQueryParams) ([]domain.AuditTrailEntry, int64, error) {
	filter := &repository.AuditTrailFilter{
		Action:      params.Action,
		EntityType:  params.EntityType,
		EntityID:    params.EntityID,
		ChangedByID: params.ChangedByID,
		StartTime:   params.StartTime,
		EndTime:     params.EndTime,
	}

	return s.auditRepo.List(ctx, filter, params.Page, params.PageSize)
}

// GetByEntity retrieves the trail for a specific entity, newest first
func (s *AuditTrailService) GetByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]domain.AuditTrailEntry, error) {
	return s.auditRepo.ListByEntity(ctx, entityType, entityID, limit)
}

// HasHistory reports whether any audit entries exist for an entity.
// Orders with history can no longer be deleted.
func (s *AuditTrailService) HasHistory(ctx context.Context, entityType string, entityID uuid.UUID) (bool, error) {
	count, err := s.auditRepo.CountByEntity(ctx, entityType, entityID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

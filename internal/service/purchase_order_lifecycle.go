package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neemfurnitech/procurement-api/internal/auth"
	"github.com/neemfurnitech/procurement-api/internal/domain"
	"github.com/neemfurnitech/procurement-api/internal/mapper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Lifecycle operations for purchase orders.
//
// Allowed transitions:
//
//	draft     -> submitted   (Submit)
//	submitted -> approved    (Approve)
//	submitted -> rejected    (Reject)
//	approved  -> invoiced    (invoice generation, normally within Approve)
//
// rejected and invoiced are terminal. Every transition is written as a
// compare-and-swap on the current status, so two concurrent approvals of the
// same order record exactly one approval and produce exactly one invoice.
// The losing approval observes the already-approved order and succeeds
// idempotently; approving a draft or rejected order is a conflict.

// Submit moves a draft order into the approval queue
func (s *PurchaseOrderService) Submit(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrderDTO, error) {
	po, err := s.poRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}

	if po.Status != domain.POStatusDraft {
		return nil, fmt.Errorf("%w: cannot submit order in status %s", ErrInvalidState, po.Status)
	}
	if len(po.Items) == 0 {
		return nil, fmt.Errorf("%w: cannot submit order without items", ErrInvalidInput)
	}

	won, err := s.poRepo.UpdateStatusIfCurrent(ctx, id, domain.POStatusDraft, domain.POStatusSubmitted, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to submit purchase order: %w", err)
	}
	if !won {
		return nil, ErrConcurrentModification
	}

	s.logger.Info("purchase order submitted",
		zap.String("po_number", po.PONumber))

	return s.GetByID(ctx, id)
}

// Approve moves a submitted order to approved and generates its invoice.
// If invoice generation fails after the approval is recorded, the order stays
// in approved and the invoice can be produced later via GenerateInvoice.
func (s *PurchaseOrderService) Approve(ctx context.Context, id uuid.UUID, notes string) (*domain.PurchaseOrderDTO, error) {
	po, err := s.poRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}

	switch po.Status {
	case domain.POStatusSubmitted:
		// The transition below applies.
	case domain.POStatusApproved, domain.POStatusInvoiced:
		return s.reapprove(ctx, po)
	default:
		return nil, fmt.Errorf("%w: cannot approve order in status %s", ErrInvalidState, po.Status)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"approved_at":    now,
		"approval_notes": notes,
		"updated_at":     now,
	}
	var approverID string
	if userCtx, ok := auth.FromContext(ctx); ok && userCtx != nil {
		approverID = userCtx.UserID.String()
		updates["approved_by_id"] = approverID
	}

	won, err := s.poRepo.UpdateStatusIfCurrent(ctx, id, domain.POStatusSubmitted, domain.POStatusApproved, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to approve purchase order: %w", err)
	}
	if !won {
		// Another request moved the order first. If that was a racing
		// approval the idempotent path applies; anything else is a conflict.
		fresh, err := s.poRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to reload purchase order: %w", err)
		}
		if fresh.Status == domain.POStatusApproved || fresh.Status == domain.POStatusInvoiced {
			return s.reapprove(ctx, fresh)
		}
		return nil, ErrConcurrentModification
	}

	s.logger.Info("purchase order approved",
		zap.String("po_number", po.PONumber),
		zap.String("approved_by", approverID))

	if err := s.auditService.Record(ctx, domain.EntityTypePurchaseOrder, po.ID, domain.AuditActionApproved, map[string]interface{}{
		"approval_notes": notes,
	}); err != nil {
		// The approval itself committed. Audit failures are logged inside
		// Record and must not abort the flow.
		s.logger.Warn("audit entry for approval not recorded",
			zap.String("po_number", po.PONumber))
	}

	if _, err := s.generateInvoice(ctx, id); err != nil {
		s.logger.Error("invoice generation failed after approval",
			zap.String("po_number", po.PONumber),
			zap.Error(err))
		return nil, fmt.Errorf("%w: order %s approved but invoicing did not complete", ErrInvoiceGeneration, po.PONumber)
	}

	return s.GetByID(ctx, id)
}

// reapprove handles an approval of an order that is already approved or
// invoiced. The recorded approval stands unchanged and the call succeeds
// with the existing invoice; at most one invoice ever exists per order.
// An approved order still missing its invoice gets it generated here, the
// same retry GenerateInvoice offers.
func (s *PurchaseOrderService) reapprove(ctx context.Context, po *domain.PurchaseOrder) (*domain.PurchaseOrderDTO, error) {
	if _, err := s.invoiceRepo.GetByPurchaseOrder(ctx, po.ID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check existing invoice: %w", err)
		}
		if _, err := s.generateInvoice(ctx, po.ID); err != nil {
			s.logger.Error("invoice generation failed on re-approval",
				zap.String("po_number", po.PONumber),
				zap.Error(err))
			return nil, fmt.Errorf("%w: order %s approved but invoicing did not complete", ErrInvoiceGeneration, po.PONumber)
		}
	}

	s.logger.Info("purchase order already approved, returning existing state",
		zap.String("po_number", po.PONumber))

	return s.GetByID(ctx, po.ID)
}

// Reject moves a submitted order to rejected. Notes are optional; when given
// they tell the requester why. No invoice or notification is ever produced.
func (s *PurchaseOrderService) Reject(ctx context.Context, id uuid.UUID, notes string) (*domain.PurchaseOrderDTO, error) {
	po, err := s.poRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}

	if po.Status != domain.POStatusSubmitted {
		return nil, fmt.Errorf("%w: cannot reject order in status %s", ErrInvalidState, po.Status)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"approval_notes": notes,
		"updated_at":     now,
	}
	if userCtx, ok := auth.FromContext(ctx); ok && userCtx != nil {
		updates["approved_by_id"] = userCtx.UserID.String()
	}

	won, err := s.poRepo.UpdateStatusIfCurrent(ctx, id, domain.POStatusSubmitted, domain.POStatusRejected, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to reject purchase order: %w", err)
	}
	if !won {
		return nil, ErrConcurrentModification
	}

	s.logger.Info("purchase order rejected",
		zap.String("po_number", po.PONumber))

	if err := s.auditService.Record(ctx, domain.EntityTypePurchaseOrder, po.ID, domain.AuditActionRejected, map[string]interface{}{
		"rejection_notes": notes,
	}); err != nil {
		s.logger.Warn("audit entry for rejection not recorded",
			zap.String("po_number", po.PONumber))
	}

	return s.GetByID(ctx, id)
}

// GenerateInvoice produces the invoice for an approved order. It is the retry
// surface for approvals whose invoice step failed: calling it on an order that
// already has an invoice returns that invoice unchanged.
func (s *PurchaseOrderService) GenerateInvoice(ctx context.Context, id uuid.UUID) (*domain.InvoiceDTO, error) {
	po, err := s.poRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}

	existing, err := s.invoiceRepo.GetByPurchaseOrder(ctx, id)
	if err == nil {
		dto := mapper.ToInvoiceDTO(existing)
		return &dto, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing invoice: %w", err)
	}

	if po.Status != domain.POStatusApproved {
		return nil, fmt.Errorf("%w: cannot generate invoice for order in status %s", ErrInvalidState, po.Status)
	}

	return s.generateInvoice(ctx, id)
}

// generateInvoice creates the invoice row, moves the order to invoiced and
// records the audit entry and finance notification. The caller must have
// verified the order is approved and uninvoiced.
func (s *PurchaseOrderService) generateInvoice(ctx context.Context, id uuid.UUID) (*domain.InvoiceDTO, error) {
	po, err := s.poRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload purchase order: %w", err)
	}

	now := time.Now()
	snapshot := mapper.ToInvoiceSnapshot(po, now.UTC().Format("2006-01-02T15:04:05Z"))
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize invoice snapshot: %w", err)
	}

	invoice := &domain.Invoice{
		InvoiceNumber:   s.numberSvc.GenerateInvoiceNumber(po.PONumber),
		PurchaseOrderID: po.ID,
		TotalAmount:     po.TotalAmount,
		InvoiceData:     string(snapshotJSON),
		Status:          domain.InvoiceStatusPending,
		GeneratedAt:     now,
	}

	// The unique index on purchase_order_id is the hard idempotency guard:
	// a second concurrent generation attempt fails here. The loser returns
	// the winner's invoice instead of surfacing the constraint violation.
	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		if existing, lookupErr := s.invoiceRepo.GetByPurchaseOrder(ctx, po.ID); lookupErr == nil {
			dto := mapper.ToInvoiceDTO(existing)
			return &dto, nil
		}
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	won, err := s.poRepo.UpdateStatusIfCurrent(ctx, po.ID, domain.POStatusApproved, domain.POStatusInvoiced, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to mark purchase order invoiced: %w", err)
	}
	if !won {
		s.logger.Warn("purchase order left approved state during invoicing",
			zap.String("po_number", po.PONumber))
	}

	s.logger.Info("invoice generated",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("po_number", po.PONumber),
		zap.String("total", invoice.TotalAmount.StringFixed(2)))

	if err := s.auditService.Record(ctx, domain.EntityTypePurchaseOrder, po.ID, domain.AuditActionInvoiced, map[string]interface{}{
		"invoice_number": invoice.InvoiceNumber,
		"invoice_id":     invoice.ID.String(),
	}); err != nil {
		s.logger.Warn("audit entry for invoicing not recorded",
			zap.String("po_number", po.PONumber))
	}

	if s.financeSvc != nil {
		if err := s.financeSvc.NotifyInvoiceGenerated(ctx, invoice, po); err != nil {
			// The invoice already exists at this point, so the failure is
			// logged and the flow continues.
			s.logger.Warn("finance notification failed",
				zap.String("invoice_number", invoice.InvoiceNumber),
				zap.Error(err))
		}
	}

	dto := mapper.ToInvoiceDTO(invoice)
	return &dto, nil
}

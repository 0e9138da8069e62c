package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/neemfurnitech/procurement-api/internal/domain"
	"github.com/neemfurnitech/procurement-api/internal/service"
	"go.uber.org/zap"
)

// Submit godoc
// @Summary Submit purchase order for approval
// @Description Transitions a draft order with at least one line item to
// @Description submitted status.
// @Tags PurchaseOrders
// @Produce json
// @Param id path string true "Purchase order ID"
// @Success 200 {object} domain.PurchaseOrderDTO "Submitted order"
// @Failure 400 {object} domain.ErrorResponse "Invalid ID or order has no items"
// @Failure 404 {object} domain.ErrorResponse "Purchase order not found"
// @Failure 409 {object} domain.ErrorResponse "Order is not in draft status"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders/{id}/submit [post]
func (h *PurchaseOrderHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid purchase order ID")
		return
	}

	po, err := h.poService.Submit(r.Context(), id)
	if err != nil {
		if !isLifecycleClientError(err) {
			h.logger.Error("failed to submit purchase order", zap.Error(err), zap.String("po_id", id.String()))
		}
		h.handlePurchaseOrderError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, po)
}

// Approve godoc
// @Summary Approve purchase order
// @Description Transitions a submitted order to approved, records the approval
// @Description in the audit trail and generates the invoice. If invoicing fails
// @Description the order stays approved and the invoice endpoint can be retried.
// @Description Approving an already approved order succeeds idempotently and
// @Description returns the existing invoice.
// @Tags PurchaseOrders
// @Accept json
// @Produce json
// @Param id path string true "Purchase order ID"
// @Param request body domain.ApprovePurchaseOrderRequest false "Optional approval notes"
// @Success 200 {object} domain.PurchaseOrderDTO "Approved (and normally invoiced) order"
// @Failure 400 {object} domain.ErrorResponse "Invalid ID or request body"
// @Failure 404 {object} domain.ErrorResponse "Purchase order not found"
// @Failure 409 {object} domain.ErrorResponse "Order is in draft or rejected status"
// @Failure 502 {object} domain.ErrorResponse "Approval recorded but invoice generation failed"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders/{id}/approve [post]
func (h *PurchaseOrderHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid purchase order ID")
		return
	}

	var req domain.ApprovePurchaseOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Empty body means approval without notes.
		req = domain.ApprovePurchaseOrderRequest{}
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	po, err := h.poService.Approve(r.Context(), id, req.Notes)
	if err != nil {
		if errors.Is(err, service.ErrInvoiceGeneration) {
			h.logger.Error("approval committed without invoice", zap.Error(err), zap.String("po_id", id.String()))
			respondWithError(w, http.StatusBadGateway, err.Error())
			return
		}
		if !isLifecycleClientError(err) {
			h.logger.Error("failed to approve purchase order", zap.Error(err), zap.String("po_id", id.String()))
		}
		h.handlePurchaseOrderError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, po)
}

// Reject godoc
// @Summary Reject purchase order
// @Description Transitions a submitted order to rejected status. No invoice or
// @Description finance notification is produced.
// @Tags PurchaseOrders
// @Accept json
// @Produce json
// @Param id path string true "Purchase order ID"
// @Param request body domain.RejectPurchaseOrderRequest false "Optional rejection notes"
// @Success 200 {object} domain.PurchaseOrderDTO "Rejected order"
// @Failure 400 {object} domain.ErrorResponse "Invalid ID or request body"
// @Failure 404 {object} domain.ErrorResponse "Purchase order not found"
// @Failure 409 {object} domain.ErrorResponse "Order is not in submitted status"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders/{id}/reject [post]
func (h *PurchaseOrderHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid purchase order ID")
		return
	}

	var req domain.RejectPurchaseOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Empty body means rejection without notes.
		req = domain.RejectPurchaseOrderRequest{}
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	po, err := h.poService.Reject(r.Context(), id, req.Notes)
	if err != nil {
		if !isLifecycleClientError(err) {
			h.logger.Error("failed to reject purchase order", zap.Error(err), zap.String("po_id", id.String()))
		}
		h.handlePurchaseOrderError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, po)
}

// GenerateInvoice godoc
// @Summary Generate invoice for an approved order
// @Description Produces the invoice for an approved order whose invoicing step
// @Description failed during approval. Calling it on an order that already has
// @Description an invoice returns the existing invoice unchanged.
// @Tags PurchaseOrders
// @Produce json
// @Param id path string true "Purchase order ID"
// @Success 200 {object} domain.InvoiceDTO "Invoice for the order"
// @Failure 400 {object} domain.ErrorResponse "Invalid purchase order ID"
// @Failure 404 {object} domain.ErrorResponse "Purchase order not found"
// @Failure 409 {object} domain.ErrorResponse "Order is not in approved status"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders/{id}/invoice [post]
func (h *PurchaseOrderHandler) GenerateInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid purchase order ID")
		return
	}

	invoice, err := h.poService.GenerateInvoice(r.Context(), id)
	if err != nil {
		if !isLifecycleClientError(err) {
			h.logger.Error("failed to generate invoice", zap.Error(err), zap.String("po_id", id.String()))
		}
		h.handlePurchaseOrderError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, invoice)
}

// isLifecycleClientError reports whether the error is caused by the request
// rather than the system, so handlers skip the error log for it.
func isLifecycleClientError(err error) bool {
	return errors.Is(err, service.ErrNotFound) ||
		errors.Is(err, service.ErrInvalidState) ||
		errors.Is(err, service.ErrInvalidInput) ||
		errors.Is(err, service.ErrConcurrentModification)
}

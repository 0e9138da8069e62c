package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/neemfurnitech/procurement-api/internal/domain"
	"github.com/neemfurnitech/procurement-api/internal/service"
	"go.uber.org/zap"
)

type PurchaseOrderHandler struct {
	poService *service.PurchaseOrderService
	logger    *zap.Logger
}

func NewPurchaseOrderHandler(poService *service.PurchaseOrderService, logger *zap.Logger) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{
		poService: poService,
		logger:    logger,
	}
}

// @Summary List purchase orders
// @Tags PurchaseOrders
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Param status query string false "Filter by status" Enums(draft, submitted, approved, rejected, invoiced)
// @Param vendorName query string false "Filter by vendor name (substring match)"
// @Success 200 {object} domain.PaginatedResponse
// @Failure 400 {object} domain.ErrorResponse "Unknown status value"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders [get]
func (h *PurchaseOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}

	filter := domain.PurchaseOrderFilter{
		Status:     domain.PurchaseOrderStatus(r.URL.Query().Get("status")),
		VendorName: r.URL.Query().Get("vendorName"),
		Page:       page,
		PageSize:   pageSize,
	}

	result, err := h.poService.List(r.Context(), filter)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			respondWithError(w, http.StatusBadRequest, "Unknown status filter")
			return
		}
		h.logger.Error("failed to list purchase orders", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list purchase orders")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// @Summary Create purchase order
// @Description Creates a new purchase order in draft status. A PO number of the
// @Description form PO-<year>-<sequence> is assigned on creation and the total
// @Description amount is computed from the line items.
// @Tags PurchaseOrders
// @Accept json
// @Produce json
// @Param request body domain.CreatePurchaseOrderRequest true "Purchase order data"
// @Success 201 {object} domain.PurchaseOrderDTO
// @Failure 400 {object} domain.ErrorResponse "Validation error"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders [post]
func (h *PurchaseOrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePurchaseOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	po, err := h.poService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create purchase order", zap.Error(err))
		h.handlePurchaseOrderError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/purchase-orders/"+po.ID.String())
	respondJSON(w, http.StatusCreated, po)
}

// @Summary Get purchase order
// @Description Returns a purchase order with its line items. If an invoice has
// @Description been generated for the order it is included in the response.
// @Tags PurchaseOrders
// @Produce json
// @Param id path string true "Purchase order ID"
// @Success 200 {object} domain.PurchaseOrderDTO
// @Failure 404 {object} domain.ErrorResponse "Purchase order not found"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders/{id} [get]
func (h *PurchaseOrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid purchase order ID: must be a valid UUID")
		return
	}

	po, err := h.poService.GetByID(r.Context(), id)
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			h.logger.Error("failed to get purchase order", zap.Error(err), zap.String("po_id", id.String()))
		}
		h.handlePurchaseOrderError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, po)
}

// @Summary Update purchase order
// @Description Replaces the vendor fields, description and line items of a draft
// @Description order. The total amount is recomputed. Orders past draft cannot be
// @Description updated.
// @Tags PurchaseOrders
// @Accept json
// @Produce json
// @Param id path string true "Purchase order ID"
// @Param request body domain.UpdatePurchaseOrderRequest true "Purchase order data"
// @Success 200 {object} domain.PurchaseOrderDTO
// @Failure 400 {object} domain.ErrorResponse "Validation error"
// @Failure 404 {object} domain.ErrorResponse "Purchase order not found"
// @Failure 409 {object} domain.ErrorResponse "Order is not in draft status"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders/{id} [put]
func (h *PurchaseOrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid purchase order ID: must be a valid UUID")
		return
	}

	var req domain.UpdatePurchaseOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	po, err := h.poService.Update(r.Context(), id, &req)
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) && !errors.Is(err, service.ErrNotDraft) {
			h.logger.Error("failed to update purchase order", zap.Error(err), zap.String("po_id", id.String()))
		}
		h.handlePurchaseOrderError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, po)
}

// @Summary Delete purchase order
// @Description Deletes a draft purchase order and its line items. Orders past
// @Description draft, or drafts that already carry audit history, are refused.
// @Tags PurchaseOrders
// @Param id path string true "Purchase order ID"
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse "Invalid purchase order ID"
// @Failure 404 {object} domain.ErrorResponse "Purchase order not found"
// @Failure 409 {object} domain.ErrorResponse "Order is not deletable"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders/{id} [delete]
func (h *PurchaseOrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid purchase order ID")
		return
	}

	if err := h.poService.Delete(r.Context(), id); err != nil {
		if !errors.Is(err, service.ErrNotFound) && !errors.Is(err, service.ErrNotDraft) && !errors.Is(err, service.ErrHasAuditHistory) {
			h.logger.Error("failed to delete purchase order", zap.Error(err), zap.String("po_id", id.String()))
		}
		h.handlePurchaseOrderError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handlePurchaseOrderError maps service errors to HTTP status codes
func (h *PurchaseOrderHandler) handlePurchaseOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Purchase order not found")
	case errors.Is(err, service.ErrNotDraft):
		respondWithError(w, http.StatusConflict, "Purchase order must be in draft status for this operation")
	case errors.Is(err, service.ErrHasAuditHistory):
		respondWithError(w, http.StatusConflict, "Purchase order has audit history and can no longer be deleted")
	case errors.Is(err, service.ErrInvalidState):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrConcurrentModification):
		respondWithError(w, http.StatusConflict, "Purchase order was modified concurrently, retry the request")
	case errors.Is(err, service.ErrAlreadyInvoiced):
		respondWithError(w, http.StatusConflict, "Purchase order is already invoiced")
	case errors.Is(err, service.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPermissionDenied):
		respondWithError(w, http.StatusForbidden, "Insufficient permissions for this operation")
	case errors.Is(err, service.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

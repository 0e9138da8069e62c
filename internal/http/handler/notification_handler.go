package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/neemfurnitech/procurement-api/internal/domain"
	"github.com/neemfurnitech/procurement-api/internal/mapper"
	"github.com/neemfurnitech/procurement-api/internal/service"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	notificationService *service.FinanceNotificationService
	logger              *zap.Logger
}

func NewNotificationHandler(notificationService *service.FinanceNotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// @Summary List finance notifications
// @Tags Notifications
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Success 200 {object} domain.PaginatedResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /notifications [get]
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
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

	notifications, total, err := h.notificationService.List(r.Context(), page, pageSize)
	if err != nil {
		h.logger.Error("failed to list finance notifications", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list notifications")
		return
	}

	dtos := make([]domain.FinanceNotificationDTO, len(notifications))
	for i := range notifications {
		dtos[i] = mapper.ToFinanceNotificationDTO(&notifications[i])
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	respondJSON(w, http.StatusOK, domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

// ListByPurchaseOrder godoc
// @Summary List finance notifications for a purchase order
// @Tags Notifications
// @Produce json
// @Param id path string true "Purchase order ID"
// @Success 200 {array} domain.FinanceNotificationDTO
// @Failure 400 {object} domain.ErrorResponse "Invalid purchase order ID"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders/{id}/notifications [get]
func (h *NotificationHandler) ListByPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid purchase order ID: must be a valid UUID")
		return
	}

	notifications, err := h.notificationService.ListByPurchaseOrder(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to list notifications for purchase order", zap.Error(err), zap.String("po_id", id.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to list notifications")
		return
	}

	dtos := make([]domain.FinanceNotificationDTO, len(notifications))
	for i := range notifications {
		dtos[i] = mapper.ToFinanceNotificationDTO(&notifications[i])
	}

	respondJSON(w, http.StatusOK, dtos)
}

// ListByInvoice godoc
// @Summary List finance notifications for an invoice
// @Tags Notifications
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {array} domain.FinanceNotificationDTO
// @Failure 400 {object} domain.ErrorResponse "Invalid invoice ID"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices/{id}/notifications [get]
func (h *NotificationHandler) ListByInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid invoice ID: must be a valid UUID")
		return
	}

	notifications, err := h.notificationService.ListByInvoice(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to list notifications for invoice", zap.Error(err), zap.String("invoice_id", id.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to list notifications")
		return
	}

	dtos := make([]domain.FinanceNotificationDTO, len(notifications))
	for i := range notifications {
		dtos[i] = mapper.ToFinanceNotificationDTO(&notifications[i])
	}

	respondJSON(w, http.StatusOK, dtos)
}

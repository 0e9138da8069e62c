package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/neemfurnitech/procurement-api/internal/domain"
	"github.com/neemfurnitech/procurement-api/internal/mapper"
	"github.com/neemfurnitech/procurement-api/internal/service"
	"go.uber.org/zap"
)

type AuditHandler struct {
	auditService *service.AuditTrailService
	logger       *zap.Logger
}

func NewAuditHandler(auditService *service.AuditTrailService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// @Summary List audit trail entries
// @Description Returns audit trail entries across all purchase orders, newest
// @Description first, with optional filters.
// @Tags Audit
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(50)
// @Param action query string false "Filter by action" Enums(approved, rejected, invoiced)
// @Param entityId query string false "Filter by entity ID"
// @Param changedBy query string false "Filter by user ID of the actor"
// @Param from query string false "Entries at or after this time (RFC3339)"
// @Param to query string false "Entries before this time (RFC3339)"
// @Success 200 {object} domain.PaginatedResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /audit [get]
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 {
		pageSize = 50
	}
	if pageSize > 200 {
		pageSize = 200
	}

	params := service.AuditTrailQueryParams{
		EntityType:  domain.EntityTypePurchaseOrder,
		ChangedByID: r.URL.Query().Get("changedBy"),
		Page:        page,
		PageSize:    pageSize,
	}

	if a := r.URL.Query().Get("action"); a != "" {
		action := domain.AuditAction(a)
		params.Action = &action
	}
	if eid := r.URL.Query().Get("entityId"); eid != "" {
		id, err := uuid.Parse(eid)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid entity ID: must be a valid UUID")
			return
		}
		params.EntityID = &id
	}
	if from := r.URL.Query().Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid 'from' timestamp: must be RFC3339")
			return
		}
		params.StartTime = &t
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid 'to' timestamp: must be RFC3339")
			return
		}
		params.EndTime = &t
	}

	entries, total, err := h.auditService.List(r.Context(), params)
	if err != nil {
		h.logger.Error("failed to list audit trail", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list audit trail")
		return
	}

	dtos := make([]domain.AuditTrailEntryDTO, len(entries))
	for i := range entries {
		dtos[i] = mapper.ToAuditTrailEntryDTO(&entries[i])
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

// GetByEntity godoc
// @Summary Get audit trail for a purchase order
// @Description Returns the audit trail entries recorded against one purchase
// @Description order, newest first.
// @Tags Audit
// @Produce json
// @Param id path string true "Purchase order ID"
// @Param limit query int false "Limit" default(50)
// @Success 200 {array} domain.AuditTrailEntryDTO
// @Failure 400 {object} domain.ErrorResponse "Invalid purchase order ID"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders/{id}/audit [get]
func (h *AuditHandler) GetByEntity(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid purchase order ID: must be a valid UUID")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	entries, err := h.auditService.GetByEntity(r.Context(), domain.EntityTypePurchaseOrder, id, limit)
	if err != nil {
		h.logger.Error("failed to get audit trail", zap.Error(err), zap.String("po_id", id.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to get audit trail")
		return
	}

	dtos := make([]domain.AuditTrailEntryDTO, len(entries))
	for i := range entries {
		dtos[i] = mapper.ToAuditTrailEntryDTO(&entries[i])
	}

	respondJSON(w, http.StatusOK, dtos)
}

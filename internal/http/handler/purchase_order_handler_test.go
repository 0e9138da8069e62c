package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/neemfurnitech/procurement-api/internal/auth"
	"github.com/neemfurnitech/procurement-api/internal/domain"
	"github.com/neemfurnitech/procurement-api/internal/http/handler"
	"github.com/neemfurnitech/procurement-api/internal/repository"
	"github.com/neemfurnitech/procurement-api/internal/service"
	"github.com/neemfurnitech/procurement-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func createPurchaseOrderHandler(t *testing.T, db *gorm.DB) *handler.PurchaseOrderHandler {
	logger := zap.NewNop()
	poRepo := repository.NewPurchaseOrderRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	seqRepo := repository.NewNumberSequenceRepository(db)
	auditRepo := repository.NewAuditTrailRepository(db)
	notificationRepo := repository.NewFinanceNotificationRepository(db)

	numberService := service.NewNumberService(seqRepo, logger)
	auditService := service.NewAuditTrailService(auditRepo, logger)
	financeService := service.NewFinanceNotificationService(notificationRepo, "finance@neemfurnitech.com", logger)
	poService := service.NewPurchaseOrderService(poRepo, invoiceRepo, auditService, financeService, numberService, logger, db)

	return handler.NewPurchaseOrderHandler(poService, logger)
}

func createApproverContext() context.Context {
	userCtx := &auth.UserContext{
		UserID:      uuid.New(),
		DisplayName: "Priya Nair",
		Email:       "priya@neemfurnitech.com",
		Roles:       []domain.UserRoleType{domain.RoleApprover, domain.RoleProcurement},
	}
	return auth.WithUserContext(context.Background(), userCtx)
}

func newRequestWithID(ctx context.Context, method, path, id string, body []byte) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req = req.WithContext(ctx)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func validCreateBody(t *testing.T) []byte {
	body, err := json.Marshal(map[string]interface{}{
		"vendorName":  "Acme Steel",
		"vendorEmail": "orders@acmesteel.example",
		"items": []map[string]interface{}{
			{"productName": "Steel brackets", "quantity": 2, "unitPrice": "125.00"},
		},
	})
	require.NoError(t, err)
	return body
}

func TestPurchaseOrderHandler_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createPurchaseOrderHandler(t, db)
	ctx := createApproverContext()

	t.Run("creates draft order", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/purchase-orders", bytes.NewReader(validCreateBody(t)))
		req = req.WithContext(ctx)

		rr := httptest.NewRecorder()
		h.Create(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var result domain.PurchaseOrderDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, domain.POStatusDraft, result.Status)
		assert.Regexp(t, `^PO-\d{4}-\d{6}$`, result.PONumber)
		assert.Equal(t, "/api/v1/purchase-orders/"+result.ID.String(), rr.Header().Get("Location"))
		assert.Equal(t, "250", result.TotalAmount.String())
	})

	t.Run("rejects missing vendor email", func(t *testing.T) {
		body, _ := json.Marshal(map[string]interface{}{
			"vendorName": "Acme Steel",
			"items": []map[string]interface{}{
				{"productName": "Steel brackets", "quantity": 2, "unitPrice": "125.00"},
			},
		})
		req := httptest.NewRequest(http.MethodPost, "/purchase-orders", bytes.NewReader(body))
		req = req.WithContext(ctx)

		rr := httptest.NewRecorder()
		h.Create(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/purchase-orders", bytes.NewReader([]byte("{not json")))
		req = req.WithContext(ctx)

		rr := httptest.NewRecorder()
		h.Create(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestPurchaseOrderHandler_GetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createPurchaseOrderHandler(t, db)
	ctx := createApproverContext()

	po := testutil.CreateTestOrder(t, db, "PO-2026-000010", domain.POStatusDraft)

	t.Run("returns existing order", func(t *testing.T) {
		req := newRequestWithID(ctx, http.MethodGet, "/purchase-orders/"+po.ID.String(), po.ID.String(), nil)

		rr := httptest.NewRecorder()
		h.GetByID(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var result domain.PurchaseOrderDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, po.ID, result.ID)
		assert.Equal(t, "PO-2026-000010", result.PONumber)
		assert.Len(t, result.Items, 1)
	})

	t.Run("unknown order returns 404", func(t *testing.T) {
		id := uuid.New().String()
		req := newRequestWithID(ctx, http.MethodGet, "/purchase-orders/"+id, id, nil)

		rr := httptest.NewRecorder()
		h.GetByID(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("invalid id returns 400", func(t *testing.T) {
		req := newRequestWithID(ctx, http.MethodGet, "/purchase-orders/not-a-uuid", "not-a-uuid", nil)

		rr := httptest.NewRecorder()
		h.GetByID(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestPurchaseOrderHandler_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createPurchaseOrderHandler(t, db)
	ctx := createApproverContext()

	testutil.CreateTestOrder(t, db, "PO-2026-000020", domain.POStatusDraft)
	testutil.CreateTestOrder(t, db, "PO-2026-000021", domain.POStatusSubmitted)

	t.Run("lists all orders", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/purchase-orders", nil)
		req = req.WithContext(ctx)

		rr := httptest.NewRecorder()
		h.List(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var result domain.PaginatedResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, int64(2), result.Total)
		assert.Equal(t, 20, result.PageSize)
	})

	t.Run("filters by status", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/purchase-orders?status=submitted", nil)
		req = req.WithContext(ctx)

		rr := httptest.NewRecorder()
		h.List(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var result domain.PaginatedResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, int64(1), result.Total)
	})

	t.Run("unknown status returns 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/purchase-orders?status=archived", nil)
		req = req.WithContext(ctx)

		rr := httptest.NewRecorder()
		h.List(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestPurchaseOrderHandler_Lifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createPurchaseOrderHandler(t, db)
	ctx := createApproverContext()

	// Create through the handler so the service owns the number and total.
	req := httptest.NewRequest(http.MethodPost, "/purchase-orders", bytes.NewReader(validCreateBody(t)))
	req = req.WithContext(ctx)
	rr := httptest.NewRecorder()
	h.Create(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created domain.PurchaseOrderDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	id := created.ID.String()

	t.Run("submit", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.Submit(rr, newRequestWithID(ctx, http.MethodPost, "/purchase-orders/"+id+"/submit", id, nil))

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var result domain.PurchaseOrderDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, domain.POStatusSubmitted, result.Status)
	})

	t.Run("update after submit returns 409", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.Update(rr, newRequestWithID(ctx, http.MethodPut, "/purchase-orders/"+id, id, validCreateBody(t)))

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("approve generates invoice", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{"notes": "within budget"})
		rr := httptest.NewRecorder()
		h.Approve(rr, newRequestWithID(ctx, http.MethodPost, "/purchase-orders/"+id+"/approve", id, body))

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var result domain.PurchaseOrderDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, domain.POStatusInvoiced, result.Status)
		require.NotNil(t, result.Invoice)
		assert.Regexp(t, `^INV-\d{6}-[0-9A-F]{8}$`, result.Invoice.InvoiceNumber)
	})

	t.Run("second approve succeeds idempotently", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.Approve(rr, newRequestWithID(ctx, http.MethodPost, "/purchase-orders/"+id+"/approve", id, nil))

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var result domain.PurchaseOrderDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, domain.POStatusInvoiced, result.Status)
		assert.Equal(t, "within budget", result.ApprovalNotes)
		require.NotNil(t, result.Invoice)
	})

	t.Run("delete after invoicing returns 409", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.Delete(rr, newRequestWithID(ctx, http.MethodDelete, "/purchase-orders/"+id, id, nil))

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestPurchaseOrderHandler_Reject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createPurchaseOrderHandler(t, db)
	ctx := createApproverContext()

	t.Run("reject without notes", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, "PO-2026-000030", domain.POStatusSubmitted)
		id := po.ID.String()

		rr := httptest.NewRecorder()
		h.Reject(rr, newRequestWithID(ctx, http.MethodPost, "/purchase-orders/"+id+"/reject", id, nil))

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var result domain.PurchaseOrderDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, domain.POStatusRejected, result.Status)
		assert.Empty(t, result.ApprovalNotes)
	})

	t.Run("reject with notes", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, "PO-2026-000031", domain.POStatusSubmitted)
		id := po.ID.String()

		body, _ := json.Marshal(map[string]string{"notes": "over budget"})
		rr := httptest.NewRecorder()
		h.Reject(rr, newRequestWithID(ctx, http.MethodPost, "/purchase-orders/"+id+"/reject", id, body))

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var result domain.PurchaseOrderDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, domain.POStatusRejected, result.Status)
	})
}

func TestPurchaseOrderHandler_DeleteDraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createPurchaseOrderHandler(t, db)
	ctx := createApproverContext()

	po := testutil.CreateTestOrder(t, db, "PO-2026-000040", domain.POStatusDraft)
	id := po.ID.String()

	rr := httptest.NewRecorder()
	h.Delete(rr, newRequestWithID(ctx, http.MethodDelete, "/purchase-orders/"+id, id, nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
}

package service_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/neemfurnitech/procurement-api/internal/domain"
	"github.com/neemfurnitech/procurement-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approveOrder(t *testing.T, env *testEnv) *domain.PurchaseOrderDTO {
	t.Helper()
	ctx := approverContext()

	po, err := env.poService.Create(ctx, createRequest())
	require.NoError(t, err)
	_, err = env.poService.Submit(ctx, po.ID)
	require.NoError(t, err)
	approved, err := env.poService.Approve(ctx, po.ID, "")
	require.NoError(t, err)
	return approved
}

func TestMarkInvoicePaid(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()
	order := approveOrder(t, env)

	paid, err := env.invoiceService.MarkPaid(ctx, order.Invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, paid.Status)

	// Marking again is a no-op.
	again, err := env.invoiceService.MarkPaid(ctx, order.Invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, again.Status)
}

func TestMarkPaidUnknownInvoice(t *testing.T) {
	env := setupEnv(t)

	_, err := env.invoiceService.MarkPaid(approverContext(), uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestListInvoicesFiltersByStatus(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	first := approveOrder(t, env)
	approveOrder(t, env)

	_, err := env.invoiceService.MarkPaid(ctx, first.Invoice.ID)
	require.NoError(t, err)

	pending := domain.InvoiceStatusPending
	result, err := env.invoiceService.List(ctx, 1, 20, &pending)
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.Total)

	result, err = env.invoiceService.List(ctx, 1, 20, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.Total)
}

func TestReconcileGeneratesMissingInvoices(t *testing.T) {
	env := setupEnv(t)
	ctx := approverContext()

	// Strand two orders in approved without invoices.
	for i := 0; i < 2; i++ {
		po, err := env.poService.Create(ctx, createRequest())
		require.NoError(t, err)
		_, err = env.poService.Submit(ctx, po.ID)
		require.NoError(t, err)
		res := env.db.Model(&domain.PurchaseOrder{}).
			Where("id = ? AND status = ?", po.ID, domain.POStatusSubmitted).
			Update("status", domain.POStatusApproved)
		require.NoError(t, res.Error)
		require.EqualValues(t, 1, res.RowsAffected)
	}

	// One fully invoiced order that reconciliation must skip.
	approveOrder(t, env)

	generated, err := env.invoiceService.Reconcile(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, generated)

	// A second pass finds nothing left to do.
	generated, err = env.invoiceService.Reconcile(ctx, 50)
	require.NoError(t, err)
	assert.Zero(t, generated)

	var invoiceCount int64
	require.NoError(t, env.db.Model(&domain.Invoice{}).Count(&invoiceCount).Error)
	assert.EqualValues(t, 3, invoiceCount)
}

package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DTOs for API responses

type PurchaseOrderDTO struct {
	ID            uuid.UUID              `json:"id"`
	PONumber      string                 `json:"poNumber"`
	VendorName    string                 `json:"vendorName"`
	VendorEmail   string                 `json:"vendorEmail"`
	VendorPhone   string                 `json:"vendorPhone,omitempty"`
	Description   string                 `json:"description,omitempty"`
	Status        PurchaseOrderStatus    `json:"status"`
	TotalAmount   decimal.Decimal        `json:"totalAmount"`
	ApprovedByID  string                 `json:"approvedById,omitempty"`
	ApprovedAt    *string                `json:"approvedAt,omitempty"` // ISO 8601
	ApprovalNotes string                 `json:"approvalNotes,omitempty"`
	CreatedByID   string                 `json:"createdById"`
	CreatedByName string                 `json:"createdByName,omitempty"`
	Items         []PurchaseOrderItemDTO `json:"items"`
	Invoice       *InvoiceDTO            `json:"invoice,omitempty"`
	CreatedAt     string                 `json:"createdAt"` // ISO 8601
	UpdatedAt     string                 `json:"updatedAt"` // ISO 8601
}

type PurchaseOrderItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductName string          `json:"productName"`
	Description string          `json:"description,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
}

type InvoiceDTO struct {
	ID              uuid.UUID       `json:"id"`
	InvoiceNumber   string          `json:"invoiceNumber"`
	PurchaseOrderID uuid.UUID       `json:"purchaseOrderId"`
	PONumber        string          `json:"poNumber,omitempty"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          InvoiceStatus   `json:"status"`
	GeneratedAt     string          `json:"generatedAt"` // ISO 8601
	InvoiceData     string          `json:"invoiceData,omitempty"`
}

type FinanceNotificationDTO struct {
	ID               uuid.UUID        `json:"id"`
	RecipientEmail   string           `json:"recipientEmail"`
	InvoiceID        uuid.UUID        `json:"invoiceId"`
	PurchaseOrderID  uuid.UUID        `json:"purchaseOrderId"`
	NotificationType NotificationType `json:"notificationType"`
	Subject          string           `json:"subject"`
	Message          string           `json:"message"`
	CreatedAt        string           `json:"createdAt"` // ISO 8601
}

type AuditTrailEntryDTO struct {
	ID          uuid.UUID   `json:"id"`
	EntityType  string      `json:"entityType"`
	EntityID    uuid.UUID   `json:"entityId"`
	Action      AuditAction `json:"action"`
	ChangedByID string      `json:"changedById,omitempty"`
	ChangedBy   string      `json:"changedBy,omitempty"`
	Changes     string      `json:"changes,omitempty"`
	CreatedAt   string      `json:"createdAt"` // ISO 8601
}

// InvoiceSnapshot is the immutable document body stored on an invoice at
// generation time.
type InvoiceSnapshot struct {
	PONumber    string                `json:"po_number"`
	VendorName  string                `json:"vendor_name"`
	VendorEmail string                `json:"vendor_email"`
	VendorPhone string                `json:"vendor_phone,omitempty"`
	TotalAmount decimal.Decimal       `json:"total_amount"`
	Description string                `json:"description,omitempty"`
	Items       []InvoiceSnapshotItem `json:"items"`
	GeneratedAt string                `json:"generated_at"` // ISO 8601
}

type InvoiceSnapshotItem struct {
	ProductName string          `json:"product_name"`
	Description string          `json:"description,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// API Response wrapper
type APIResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
}

// Request DTOs

type CreatePurchaseOrderRequest struct {
	VendorName  string                           `json:"vendorName" validate:"required,max=200"`
	VendorEmail string                           `json:"vendorEmail" validate:"required,email"`
	VendorPhone string                           `json:"vendorPhone,omitempty" validate:"max=50"`
	Description string                           `json:"description,omitempty"`
	Items       []CreatePurchaseOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type UpdatePurchaseOrderRequest struct {
	VendorName  string                           `json:"vendorName" validate:"required,max=200"`
	VendorEmail string                           `json:"vendorEmail" validate:"required,email"`
	VendorPhone string                           `json:"vendorPhone,omitempty" validate:"max=50"`
	Description string                           `json:"description,omitempty"`
	Items       []CreatePurchaseOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type CreatePurchaseOrderItemRequest struct {
	ProductName string          `json:"productName" validate:"required,max=200"`
	Description string          `json:"description,omitempty"`
	Quantity    int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unitPrice" validate:"required"`
}

type ApprovePurchaseOrderRequest struct {
	Notes string `json:"notes,omitempty" validate:"max=2000"`
}

type RejectPurchaseOrderRequest struct {
	Notes string `json:"notes,omitempty" validate:"max=2000"`
}

// PurchaseOrderFilter holds optional list filters
type PurchaseOrderFilter struct {
	Status     PurchaseOrderStatus
	VendorName string
	Page       int
	PageSize   int
}

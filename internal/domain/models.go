package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns an ID client-side so the models also work on databases
// without gen_random_uuid support.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// PurchaseOrderStatus represents the lifecycle state of a purchase order
type PurchaseOrderStatus string

const (
	POStatusDraft     PurchaseOrderStatus = "draft"
	POStatusSubmitted PurchaseOrderStatus = "submitted"
	POStatusApproved  PurchaseOrderStatus = "approved"
	POStatusRejected  PurchaseOrderStatus = "rejected"
	POStatusInvoiced  PurchaseOrderStatus = "invoiced"
)

// IsValid checks if the PurchaseOrderStatus is a valid enum value
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case POStatusDraft, POStatusSubmitted, POStatusApproved, POStatusRejected, POStatusInvoiced:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from this status
func (s PurchaseOrderStatus) IsTerminal() bool {
	return s == POStatusRejected || s == POStatusInvoiced
}

// PurchaseOrder represents a vendor procurement request
type PurchaseOrder struct {
	BaseModel
	PONumber      string              `gorm:"type:varchar(50);not null;uniqueIndex;column:po_number"`
	VendorName    string              `gorm:"type:varchar(200);not null;index;column:vendor_name"`
	VendorEmail   string              `gorm:"type:varchar(255);not null;column:vendor_email"`
	VendorPhone   string              `gorm:"type:varchar(50);column:vendor_phone"`
	Description   string              `gorm:"type:text"`
	Status        PurchaseOrderStatus `gorm:"type:varchar(50);not null;default:'draft';index"`
	TotalAmount   decimal.Decimal     `gorm:"type:decimal(15,2);not null;column:total_amount"`
	ApprovedByID  string              `gorm:"type:varchar(100);column:approved_by_id"`
	ApprovedAt    *time.Time          `gorm:"column:approved_at"`
	ApprovalNotes string              `gorm:"type:text;column:approval_notes"`
	CreatedByID   string              `gorm:"type:varchar(100);not null;column:created_by_id"`
	CreatedByName string              `gorm:"type:varchar(200);column:created_by_name"`
	Items         []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
}

// PurchaseOrderItem represents a line item on a purchase order.
// TotalPrice is computed at write time, never lazily.
type PurchaseOrderItem struct {
	BaseModel
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index;column:purchase_order_id"`
	ProductName     string          `gorm:"type:varchar(200);not null;column:product_name"`
	Description     string          `gorm:"type:text"`
	Quantity        int             `gorm:"not null"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(15,2);not null;column:unit_price"`
	TotalPrice      decimal.Decimal `gorm:"type:decimal(15,2);not null;column:total_price"`
}

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
)

// Invoice is the financial document generated when a purchase order is
// approved. InvoiceData holds a JSON snapshot of the vendor, items and total at
// generation time so later changes to the order never alter the document. The
// unique index on purchase_order_id enforces at most one invoice per order.
type Invoice struct {
	BaseModel
	InvoiceNumber   string          `gorm:"type:varchar(50);not null;uniqueIndex;column:invoice_number"`
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex;column:purchase_order_id"`
	PurchaseOrder   *PurchaseOrder  `gorm:"foreignKey:PurchaseOrderID"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(15,2);not null;column:total_amount"`
	InvoiceData     string          `gorm:"type:jsonb;column:invoice_data"`
	Status          InvoiceStatus   `gorm:"type:varchar(50);not null;default:'pending'"`
	GeneratedAt     time.Time       `gorm:"not null;column:generated_at"`
}

// NotificationType represents the type of a finance notification
type NotificationType string

const (
	NotificationTypeInvoiceGenerated NotificationType = "invoice_generated"
)

// FinanceNotification records an invoice event addressed to the finance team.
// Creation is best-effort: a failure never rolls back the invoice it describes.
type FinanceNotification struct {
	BaseModel
	RecipientEmail   string           `gorm:"type:varchar(255);not null;column:recipient_email"`
	InvoiceID        uuid.UUID        `gorm:"type:uuid;not null;index;column:invoice_id"`
	PurchaseOrderID  uuid.UUID        `gorm:"type:uuid;not null;index;column:purchase_order_id"`
	NotificationType NotificationType `gorm:"type:varchar(50);not null;column:notification_type"`
	Subject          string           `gorm:"type:varchar(500);not null"`
	Message          string           `gorm:"type:text;not null"`
}

// AuditAction represents the type of audited action
type AuditAction string

const (
	AuditActionApproved AuditAction = "approved"
	AuditActionRejected AuditAction = "rejected"
	AuditActionInvoiced AuditAction = "invoiced"
)

// AuditTrailEntry is an append-only record of a state-changing action against
// an entity. Entries are never updated or deleted.
type AuditTrailEntry struct {
	ID          uuid.UUID   `gorm:"type:uuid;primary_key"`
	EntityType  string      `gorm:"type:varchar(50);not null;index:idx_audit_entity;column:entity_type"`
	EntityID    uuid.UUID   `gorm:"type:uuid;not null;index:idx_audit_entity;column:entity_id"`
	Action      AuditAction `gorm:"type:varchar(50);not null"`
	ChangedByID string      `gorm:"type:varchar(100);column:changed_by_id"`
	ChangedBy   string      `gorm:"type:varchar(200);column:changed_by"`
	Changes     string      `gorm:"type:jsonb"`
	CreatedAt   time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (e *AuditTrailEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// TableName overrides the default table name
func (AuditTrailEntry) TableName() string {
	return "audit_trail"
}

// EntityTypePurchaseOrder is the audit trail entity type for purchase orders
const EntityTypePurchaseOrder = "purchase_order"

// NumberSequence tracks the last issued purchase order sequence per year.
// Rows are only touched inside a transaction so concurrent creates never
// share a number.
type NumberSequence struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	Year         int       `gorm:"not null;uniqueIndex"`
	LastSequence int       `gorm:"not null;default:0;column:last_sequence"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (s *NumberSequence) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// UserRoleType represents a role a user can have
type UserRoleType string

const (
	RoleAdmin       UserRoleType = "admin"
	RoleProcurement UserRoleType = "procurement"
	RoleApprover    UserRoleType = "approver"
	RoleViewer      UserRoleType = "viewer"
	RoleAPIService  UserRoleType = "api_service"
)

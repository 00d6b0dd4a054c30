package models

import (
	"time"

	"gorm.io/gorm"
)

// InvoiceStatus represents the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft           InvoiceStatus = "draft"
	InvoiceStatusPendingApproval InvoiceStatus = "pending_approval"
	InvoiceStatusApproved        InvoiceStatus = "approved"
	InvoiceStatusIssued          InvoiceStatus = "issued"
	InvoiceStatusCancelled       InvoiceStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusPendingApproval, InvoiceStatusApproved,
		InvoiceStatusIssued, InvoiceStatusCancelled:
		return true
	}
	return false
}

// Invoice is the persisted unit of work.
// The number is unique per owner among non-deleted rows; the constraint
// lives in the database as a partial unique index on (user_id, number).
// Implements the Ownable interface for ownership-based authorization.
type Invoice struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// UserID is the owner of this invoice (multi-tenant isolation scope)
	UserID uint `gorm:"index;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Number string `gorm:"size:50;not null;index" json:"number"`

	ClientID uint    `gorm:"index" json:"client_id,omitempty"`
	Client   *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	Status InvoiceStatus `gorm:"size:20;default:'draft'" json:"status"`

	// Stamped exactly once by the matching status transition
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	IssuedAt   *time.Time `json:"issued_at,omitempty"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`

	// Derived from included lines on save, never mutated independently
	Subtotal  float64 `gorm:"type:decimal(12,2)" json:"subtotal"`
	VATAmount float64 `gorm:"type:decimal(12,2)" json:"vat_amount"`
	Total     float64 `gorm:"type:decimal(12,2)" json:"total"`

	Lines []InvoiceLine `gorm:"foreignKey:InvoiceID" json:"lines,omitempty"`
}

// GetUserID implements the Ownable interface for authorization.
func (i *Invoice) GetUserID() uint {
	return i.UserID
}

// Finalized returns true once the invoice is approved or issued.
// Finalized invoices can no longer be edited or deleted.
func (i *Invoice) Finalized() bool {
	return i.Status == InvoiceStatusApproved || i.Status == InvoiceStatusIssued
}

// Editable returns true while line items and notes may still change.
func (i *Invoice) Editable() bool {
	return i.Status == InvoiceStatusDraft || i.Status == InvoiceStatusPendingApproval
}

// InvoiceLine is a single service line on an invoice.
type InvoiceLine struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	InvoiceID uint     `gorm:"index;not null" json:"invoice_id"`
	Invoice   *Invoice `gorm:"foreignKey:InvoiceID" json:"-"`

	Description string  `gorm:"size:500;not null" json:"description"`
	Quantity    float64 `gorm:"type:decimal(10,3);not null;default:1" json:"quantity"`
	UnitRate    float64 `gorm:"type:decimal(10,2);not null" json:"unit_rate"`
	Currency    string  `gorm:"size:3;default:'EUR'" json:"currency"`

	// Only included lines contribute to invoice totals
	Included bool `gorm:"default:true" json:"included"`

	Position int `gorm:"default:0" json:"position"`
}

// Amount is the line total (quantity of hours times the unit rate).
func (l *InvoiceLine) Amount() float64 {
	return l.Quantity * l.UnitRate
}

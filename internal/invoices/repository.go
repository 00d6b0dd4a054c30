package invoices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/invoice-admin/internal/models"
	"github.com/diewo77/invoice-admin/internal/validation"
)

// Repository is the single authority for durable invoice state. It owns
// the uniqueness guarantee (via the partial unique index) and the
// status-transition rules. Every query is explicitly scoped to the
// owning user; ownership is never implicit.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// allowedTransitions is the forward-only lifecycle.
// approved and issued rows are immutable apart from approve→issue.
var allowedTransitions = map[models.InvoiceStatus][]models.InvoiceStatus{
	models.InvoiceStatusDraft: {
		models.InvoiceStatusPendingApproval,
		models.InvoiceStatusApproved,
		models.InvoiceStatusCancelled,
	},
	models.InvoiceStatusPendingApproval: {
		models.InvoiceStatusApproved,
		models.InvoiceStatusCancelled,
	},
	models.InvoiceStatusApproved: {
		models.InvoiceStatusIssued,
	},
}

func canTransition(from, to models.InvoiceStatus) bool {
	for _, t := range allowedTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// validate checks the record before any write reaches the store.
func validate(inv *models.Invoice) error {
	v := validation.Violations{}
	if inv.UserID == 0 {
		v["user_id"] = "required"
	}
	validation.Required("number", inv.Number, v)
	validation.MinCount("lines", len(inv.Lines), 1, v)
	for i := range inv.Lines {
		l := &inv.Lines[i]
		validation.Required(fmt.Sprintf("lines[%d].description", i), l.Description, v)
		validation.PositiveFloat(fmt.Sprintf("lines[%d].quantity", i), l.Quantity, v)
		validation.NonNegativeFloat(fmt.Sprintf("lines[%d].unit_rate", i), l.UnitRate, v)
	}
	if inv.Status != "" && !inv.Status.Valid() {
		v["status"] = "unknown_status"
	}
	if !v.Empty() {
		return validationErr(v)
	}
	return nil
}

// computeTotals derives subtotal/vat/total from the included lines.
// VAT is fixed at zero in the current scope, so total equals subtotal.
func computeTotals(inv *models.Invoice) {
	var subtotal float64
	for i := range inv.Lines {
		if inv.Lines[i].Included {
			subtotal += inv.Lines[i].Amount()
		}
	}
	inv.Subtotal = subtotal
	inv.VATAmount = 0
	inv.Total = subtotal + inv.VATAmount
}

// classify rewraps a raw storage error as a domain error.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	lower := strings.ToLower(err.Error())
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(lower, "duplicate") ||
		strings.Contains(lower, "unique constraint") {
		return ErrDuplicateNumber
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// Save persists the invoice. New records are created together with their
// lines in one transaction; existing records may only be updated while
// editable (draft or pending_approval).
//
// A uniqueness violation on (user_id, number) surfaces as
// ErrDuplicateNumber so the workflow can allocate a new number and retry.
func (r *Repository) Save(ctx context.Context, inv *models.Invoice) error {
	if inv.UserID == 0 {
		return ErrNotAuthenticated
	}
	if err := validate(inv); err != nil {
		return err
	}
	if inv.Status == "" {
		inv.Status = models.InvoiceStatusDraft
	}
	computeTotals(inv)

	if inv.ID == 0 {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return tx.Create(inv).Error
		})
		return classify(err)
	}

	// Update path: reload the stored row owner-scoped and check it is editable.
	var current models.Invoice
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", inv.UserID).
		First(&current, inv.ID).Error; err != nil {
		return classify(err)
	}
	if !current.Editable() {
		return fmt.Errorf("%w: invoice %s is finalized", ErrForbiddenTransition, current.Number)
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Invoice{}).
			Where("id = ? AND user_id = ?", inv.ID, inv.UserID).
			Updates(map[string]any{
				"number":     inv.Number,
				"client_id":  inv.ClientID,
				"notes":      inv.Notes,
				"subtotal":   inv.Subtotal,
				"vat_amount": inv.VATAmount,
				"total":      inv.Total,
			}).Error; err != nil {
			return err
		}
		// Replace lines wholesale; line-level diffing is not worth it at this scale.
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceLine{}).Error; err != nil {
			return err
		}
		for i := range inv.Lines {
			inv.Lines[i].ID = 0
			inv.Lines[i].InvoiceID = inv.ID
		}
		return tx.Create(&inv.Lines).Error
	})
	return classify(err)
}

// UpdateStatus transitions the invoice to newStatus and stamps the
// matching timestamp. Rows not owned by the caller are not found.
func (r *Repository) UpdateStatus(ctx context.Context, ownerID uint, number string, newStatus models.InvoiceStatus) (*models.Invoice, error) {
	if ownerID == 0 {
		return nil, ErrNotAuthenticated
	}
	if !newStatus.Valid() {
		return nil, validationErr(validation.Violations{"status": "unknown_status"})
	}
	var inv models.Invoice
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND number = ?", ownerID, number).
			First(&inv).Error; err != nil {
			return err
		}
		if !canTransition(inv.Status, newStatus) {
			return fmt.Errorf("%w: %s -> %s", ErrForbiddenTransition, inv.Status, newStatus)
		}
		updates := map[string]any{"status": newStatus}
		now := time.Now()
		// Timestamps are stamped by the transition only, never backdated.
		switch newStatus {
		case models.InvoiceStatusApproved:
			inv.ApprovedAt = &now
			updates["approved_at"] = &now
		case models.InvoiceStatusIssued:
			inv.IssuedAt = &now
			updates["issued_at"] = &now
		}
		inv.Status = newStatus
		return tx.Model(&models.Invoice{}).
			Where("id = ?", inv.ID).
			Updates(updates).Error
	})
	if err != nil {
		if errors.Is(err, ErrForbiddenTransition) {
			return nil, err
		}
		return nil, classify(err)
	}
	return &inv, nil
}

// SoftDelete marks the invoice deleted. Finalized invoices (approved or
// issued) are refused; hard delete is never exposed.
func (r *Repository) SoftDelete(ctx context.Context, ownerID uint, number string) error {
	if ownerID == 0 {
		return ErrNotAuthenticated
	}
	var inv models.Invoice
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND number = ?", ownerID, number).
			First(&inv).Error; err != nil {
			return err
		}
		if inv.Finalized() {
			return fmt.Errorf("%w: cannot delete finalized invoice %s", ErrForbiddenTransition, inv.Number)
		}
		return tx.Delete(&inv).Error
	})
	if err != nil {
		if errors.Is(err, ErrForbiddenTransition) {
			return err
		}
		return classify(err)
	}
	return nil
}

// ListFilter narrows List results.
type ListFilter struct {
	Status models.InvoiceStatus
	Limit  int
	Offset int
}

// List returns the owner's non-deleted invoices, newest first.
func (r *Repository) List(ctx context.Context, ownerID uint, filter ListFilter) ([]models.Invoice, error) {
	if ownerID == 0 {
		return nil, ErrNotAuthenticated
	}
	q := r.db.WithContext(ctx).Where("user_id = ?", ownerID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var invs []models.Invoice
	err := q.Preload("Lines").
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(filter.Offset).
		Find(&invs).Error
	if err != nil {
		return nil, classify(err)
	}
	return invs, nil
}

// GetByNumber looks up one invoice by number within the owner's scope.
// With includeDeleted the lookup also sees soft-deleted rows (audit path).
func (r *Repository) GetByNumber(ctx context.Context, ownerID uint, number string, includeDeleted bool) (*models.Invoice, error) {
	if ownerID == 0 {
		return nil, ErrNotAuthenticated
	}
	q := r.db.WithContext(ctx)
	if includeDeleted {
		q = q.Unscoped()
	}
	var inv models.Invoice
	err := q.Preload("Lines").
		Where("user_id = ? AND number = ?", ownerID, number).
		First(&inv).Error
	if err != nil {
		return nil, classify(err)
	}
	return &inv, nil
}

package invoices

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/diewo77/invoice-admin/internal/models"
	"github.com/diewo77/invoice-admin/internal/numbering"
)

// NumberSource is the slice of the allocator the workflow needs.
type NumberSource interface {
	PeriodKey(t time.Time) string
	Allocate(ctx context.Context, ownerID uint, periodKey string) (string, error)
	Exists(ctx context.Context, ownerID uint, number string) (bool, error)
}

// Saver is the slice of the repository the workflow needs.
type Saver interface {
	Save(ctx context.Context, inv *models.Invoice) error
}

// Draft is the caller's input for a new invoice.
type Draft struct {
	ClientID uint
	Notes    string
	Status   models.InvoiceStatus // draft or pending_approval; defaults to draft
	Lines    []models.InvoiceLine
}

// Workflow turns the optimistic allocator plus the authoritative
// repository into a create operation that recovers automatically from
// the one known race: two sessions computing the same candidate number.
//
// Policy: allocate, save, and on a duplicate allocate once more and
// retry exactly once. A second duplicate is terminal; unbounded retry
// would mask a systemic problem. All other failures propagate untouched.
type Workflow struct {
	numbers NumberSource
	repo    Saver
	log     zerolog.Logger
	now     func() time.Time
}

func NewWorkflow(numbers NumberSource, repo Saver, log zerolog.Logger) *Workflow {
	return &Workflow{numbers: numbers, repo: repo, log: log, now: time.Now}
}

// Create allocates a number, builds the invoice and saves it.
// The intermediate duplicate error, if any, is invisible to the caller
// when the retry succeeds.
func (w *Workflow) Create(ctx context.Context, ownerID uint, draft Draft) (*models.Invoice, error) {
	if ownerID == 0 {
		return nil, ErrNotAuthenticated
	}
	period := w.numbers.PeriodKey(w.now())

	number, err := w.allocate(ctx, ownerID, period)
	if err != nil {
		return nil, err
	}

	inv := w.build(ownerID, number, draft)
	err = w.repo.Save(ctx, inv)
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, ErrDuplicateNumber) {
		return nil, err
	}

	// Lost the race for this number; take a fresh candidate and try once more.
	w.log.Info().
		Uint("owner", ownerID).
		Str("number", number).
		Msg("invoice number taken, reallocating")

	number, err = w.allocate(ctx, ownerID, period)
	if err != nil {
		return nil, err
	}
	inv = w.build(ownerID, number, draft)
	err = w.repo.Save(ctx, inv)
	if err == nil {
		return inv, nil
	}
	if errors.Is(err, ErrDuplicateNumber) {
		w.log.Error().
			Uint("owner", ownerID).
			Str("number", number).
			Msg("second duplicate in a row, giving up")
		return nil, ErrNumberExhausted
	}
	return nil, err
}

// allocate asks for a candidate, falling back to a clock-derived
// synthetic number when the allocator cannot reach the store. The
// fallback trades the monotonic sequence for availability; the unique
// index still has the final say.
func (w *Workflow) allocate(ctx context.Context, ownerID uint, period string) (string, error) {
	number, err := w.numbers.Allocate(ctx, ownerID, period)
	if err != nil {
		if !errors.Is(err, numbering.ErrUnavailable) {
			return "", err
		}
		number = numbering.Synthetic(period, w.now())
		w.log.Warn().
			Uint("owner", ownerID).
			Str("number", number).
			Msg("allocator unavailable, using synthetic number")
		return number, nil
	}

	// Pre-check is an optimization only: a stale negative is caught by the
	// index at save time, and an error here is not worth failing over.
	if taken, eerr := w.numbers.Exists(ctx, ownerID, number); eerr == nil && taken {
		w.log.Debug().
			Uint("owner", ownerID).
			Str("number", number).
			Msg("candidate already taken at pre-check")
		if fresh, aerr := w.numbers.Allocate(ctx, ownerID, period); aerr == nil {
			number = fresh
		}
	}
	return number, nil
}

func (w *Workflow) build(ownerID uint, number string, draft Draft) *models.Invoice {
	status := draft.Status
	if status != models.InvoiceStatusPendingApproval {
		status = models.InvoiceStatusDraft
	}
	lines := make([]models.InvoiceLine, len(draft.Lines))
	copy(lines, draft.Lines)
	for i := range lines {
		lines[i].Position = i
	}
	return &models.Invoice{
		UserID:   ownerID,
		Number:   number,
		ClientID: draft.ClientID,
		Notes:    draft.Notes,
		Status:   status,
		Lines:    lines,
	}
}

// Package numbering derives candidate invoice numbers.
//
// The allocator is optimistic: it produces the next free-looking number
// for an owner and period but guarantees nothing across concurrent
// callers. True uniqueness is enforced by the partial unique index on
// (user_id, number); callers retry once on a duplicate (see the
// invoices workflow).
package numbering

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/invoice-admin/internal/config"
	"github.com/diewo77/invoice-admin/internal/models"
)

// ErrUnavailable signals that the allocator could not query existing
// numbers. Callers may fall back to a synthetic number; the database
// index remains the final authority on uniqueness.
var ErrUnavailable = errors.New("number allocator unavailable")

// minPadWidth is the floor on sequence digits regardless of configuration.
const minPadWidth = 4

// Allocator computes candidate invoice numbers from the stored set.
type Allocator struct {
	db  *gorm.DB
	cfg config.NumberingConfig
}

func NewAllocator(db *gorm.DB, cfg config.NumberingConfig) *Allocator {
	if cfg.PadWidth < minPadWidth {
		cfg.PadWidth = minPadWidth
	}
	return &Allocator{db: db, cfg: cfg}
}

// PeriodKey returns the allocation bucket for a date, e.g. "2025" or
// "INV-2025" with a configured prefix. The sequence restarts per bucket.
func (a *Allocator) PeriodKey(t time.Time) string {
	return fmt.Sprintf("%s%04d", a.cfg.Prefix, t.Year())
}

// Allocate returns the next candidate number for the owner and period:
// the highest parsed suffix among existing non-deleted numbers plus one,
// zero-padded. Numbers whose suffix does not parse (legacy data) are
// skipped. An empty period starts at 1. Never mutates state; the result
// may be discarded freely.
func (a *Allocator) Allocate(ctx context.Context, ownerID uint, periodKey string) (string, error) {
	var numbers []string
	err := a.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("user_id = ? AND number LIKE ?", ownerID, periodKey+"-%").
		Pluck("number", &numbers).Error
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	maxSeq := 0
	width := a.cfg.PadWidth
	for _, n := range numbers {
		suffix := n[strings.LastIndex(n, "-")+1:]
		seq, perr := strconv.Atoi(suffix)
		if perr != nil || seq < 0 {
			// malformed legacy entry, ignore for the max computation
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
		// keep the widest existing padding to avoid premature overflow
		if len(suffix) > width {
			width = len(suffix)
		}
	}
	return fmt.Sprintf("%s-%0*d", periodKey, width, maxSeq+1), nil
}

// Exists reports whether the owner already holds the candidate number
// among non-deleted invoices. Pure read, used as a pre-check only: the
// race window between check and write means it is an optimization, not
// a correctness guarantee.
func (a *Allocator) Exists(ctx context.Context, ownerID uint, number string) (bool, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("user_id = ? AND number = ?", ownerID, number).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return count > 0, nil
}

// Synthetic builds a fallback number from the period and a
// high-resolution clock value. Used when Allocate cannot reach the
// store; trades the monotonic sequence for availability.
func Synthetic(periodKey string, now time.Time) string {
	return fmt.Sprintf("%s-%d", periodKey, now.UnixNano())
}

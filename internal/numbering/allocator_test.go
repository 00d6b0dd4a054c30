package numbering

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/invoice-admin/internal/config"
	"github.com/diewo77/invoice-admin/internal/db"
	"github.com/diewo77/invoice-admin/internal/models"
)

func setupAllocatorDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}, &models.Invoice{}, &models.InvoiceLine{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.CreateNumberIndex(conn); err != nil {
		t.Fatalf("index: %v", err)
	}
	return conn
}

func seedNumbers(t *testing.T, conn *gorm.DB, ownerID uint, numbers ...string) {
	t.Helper()
	for _, n := range numbers {
		inv := models.Invoice{UserID: ownerID, Number: n, Status: models.InvoiceStatusDraft}
		if err := conn.Create(&inv).Error; err != nil {
			t.Fatalf("seed %s: %v", n, err)
		}
	}
}

func newTestAllocator(conn *gorm.DB) *Allocator {
	return NewAllocator(conn, config.NumberingConfig{PadWidth: 4})
}

func TestAllocate_EmptyPeriodStartsAtOne(t *testing.T) {
	conn := setupAllocatorDB(t)
	a := newTestAllocator(conn)

	got, err := a.Allocate(context.Background(), 2, "2025")
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got != "2025-0001" {
		t.Errorf("Allocate() = %q, want %q", got, "2025-0001")
	}
}

func TestAllocate_NextAfterMax(t *testing.T) {
	conn := setupAllocatorDB(t)
	a := newTestAllocator(conn)
	seedNumbers(t, conn, 1, "2025-0001", "2025-0002")

	got, err := a.Allocate(context.Background(), 1, "2025")
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got != "2025-0003" {
		t.Errorf("Allocate() = %q, want %q", got, "2025-0003")
	}
}

func TestAllocate_GapsDoNotLowerCandidate(t *testing.T) {
	conn := setupAllocatorDB(t)
	a := newTestAllocator(conn)
	seedNumbers(t, conn, 1, "2025-0001", "2025-0007")

	got, err := a.Allocate(context.Background(), 1, "2025")
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got != "2025-0008" {
		t.Errorf("Allocate() = %q, want %q", got, "2025-0008")
	}
}

func TestAllocate_MalformedSuffixIgnored(t *testing.T) {
	conn := setupAllocatorDB(t)
	a := newTestAllocator(conn)
	seedNumbers(t, conn, 1, "2025-0002", "2025-ABCD")

	got, err := a.Allocate(context.Background(), 1, "2025")
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got != "2025-0003" {
		t.Errorf("Allocate() = %q, want %q", got, "2025-0003")
	}
}

func TestAllocate_PerOwnerIsolation(t *testing.T) {
	conn := setupAllocatorDB(t)
	a := newTestAllocator(conn)
	seedNumbers(t, conn, 1, "2025-0001", "2025-0002")
	// owner 2 holds the identical literal number without conflict
	seedNumbers(t, conn, 2, "2025-0001")

	got, err := a.Allocate(context.Background(), 2, "2025")
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got != "2025-0002" {
		t.Errorf("Allocate() = %q, want %q", got, "2025-0002")
	}
}

func TestAllocate_KeepsWidestExistingPadding(t *testing.T) {
	conn := setupAllocatorDB(t)
	a := newTestAllocator(conn)
	seedNumbers(t, conn, 1, "2025-00041")

	got, err := a.Allocate(context.Background(), 1, "2025")
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got != "2025-00042" {
		t.Errorf("Allocate() = %q, want %q", got, "2025-00042")
	}
}

func TestAllocate_SkipsSoftDeleted(t *testing.T) {
	conn := setupAllocatorDB(t)
	a := newTestAllocator(conn)
	seedNumbers(t, conn, 1, "2025-0001", "2025-0002")
	if err := conn.Where("number = ?", "2025-0002").Delete(&models.Invoice{}).Error; err != nil {
		t.Fatalf("delete: %v", err)
	}

	// The deleted number drops out of the max computation; reuse is fine
	// because the unique index only covers non-deleted rows.
	got, err := a.Allocate(context.Background(), 1, "2025")
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got != "2025-0002" {
		t.Errorf("Allocate() = %q, want %q", got, "2025-0002")
	}
}

func TestExists(t *testing.T) {
	conn := setupAllocatorDB(t)
	a := newTestAllocator(conn)
	seedNumbers(t, conn, 1, "2025-0001")

	taken, err := a.Exists(context.Background(), 1, "2025-0001")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !taken {
		t.Error("Exists() = false for a stored number, want true")
	}

	free, err := a.Exists(context.Background(), 1, "2025-0002")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if free {
		t.Error("Exists() = true for a free number, want false")
	}

	// other owners do not see the number as taken
	other, err := a.Exists(context.Background(), 2, "2025-0001")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if other {
		t.Error("Exists() = true across owners, want false")
	}
}

func TestPeriodKey(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{"plain year", "", "2025"},
		{"with prefix", "INV-", "INV-2025"},
	}
	date := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAllocator(nil, config.NumberingConfig{Prefix: tt.prefix, PadWidth: 4})
			if got := a.PeriodKey(date); got != tt.want {
				t.Errorf("PeriodKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSynthetic(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 123456789, time.UTC)
	got := Synthetic("2025", now)
	if !strings.HasPrefix(got, "2025-") {
		t.Errorf("Synthetic() = %q, want prefix %q", got, "2025-")
	}
	if got == "2025-" {
		t.Error("Synthetic() produced no clock component")
	}
}

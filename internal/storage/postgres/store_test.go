package postgres

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/msivakumar/duetrack/internal/dues"
	"github.com/msivakumar/duetrack/internal/errs"
)

func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres store tests")
	}
	return dsn
}

func mustOpen(t *testing.T, dsn string) *Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func applyInitSQL(t *testing.T, s *Store) {
	t.Helper()
	_, thisFile, _, _ := runtime.Caller(0)
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "db", "migrations", "0001_init.up.sql")
	sqlBytes, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read init sql: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := s.pool.Exec(ctx, string(sqlBytes)); err != nil {
		t.Fatalf("apply init sql: %v", err)
	}
}

func newTestPayer(module dues.Module, name string) dues.Payer {
	now := time.Now().UTC().Truncate(time.Second)
	return dues.Payer{
		ID:            uuid.New(),
		Module:        module,
		Name:          name,
		Phone:         "9876543210",
		MonthlyAmount: 30000,
		Status:        dues.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestPostgresPayerCRUD(t *testing.T) {
	s := mustOpen(t, getTestDSN(t))
	applyInitSQL(t, s)
	ctx := context.Background()

	p := newTestPayer(dues.ModuleCable, "Murugan")
	t.Cleanup(func() { _ = s.DeletePayer(ctx, p.Module, p.ID) })
	if _, err := s.CreatePayer(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := s.GetPayer(ctx, p.Module, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != p.Name || got.MonthlyAmount != p.MonthlyAmount {
		t.Errorf("round trip mismatch: %+v", got)
	}

	got.Name = "Murugan K"
	got.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	if _, err := s.UpdatePayer(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	again, err := s.GetPayer(ctx, p.Module, p.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if again.Name != "Murugan K" {
		t.Errorf("name = %q after update", again.Name)
	}

	if err := s.DeletePayer(ctx, p.Module, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetPayer(ctx, p.Module, p.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("get after delete err = %v, want ErrNotFound", err)
	}
}

func TestPostgresDuplicatePayment(t *testing.T) {
	s := mustOpen(t, getTestDSN(t))
	applyInitSQL(t, s)
	ctx := context.Background()

	p := newTestPayer(dues.ModuleCable, "Kumar")
	if _, err := s.CreatePayer(ctx, p); err != nil {
		t.Fatalf("create payer: %v", err)
	}
	t.Cleanup(func() { _ = s.DeletePayer(ctx, p.Module, p.ID) })

	now := time.Now().UTC().Truncate(time.Second)
	pay := dues.Payment{
		ID:        uuid.New(),
		Module:    p.Module,
		PayerID:   p.ID,
		Month:     dues.Month{Year: 2026, M: time.July},
		Amount:    p.MonthlyAmount,
		Mode:      dues.DefaultPaymentMode,
		PaidDate:  now,
		CreatedAt: now,
	}
	if _, err := s.CreatePayment(ctx, pay); err != nil {
		t.Fatalf("first payment: %v", err)
	}
	dup := pay
	dup.ID = uuid.New()
	if _, err := s.CreatePayment(ctx, dup); !errors.Is(err, errs.ErrDuplicatePayment) {
		t.Fatalf("second payment err = %v, want ErrDuplicatePayment", err)
	}
}

func TestPostgresSettingsRoundTrip(t *testing.T) {
	s := mustOpen(t, getTestDSN(t))
	applyInitSQL(t, s)
	ctx := context.Background()

	st := dues.DefaultSettings(dues.ModuleMagalir)
	st.BusinessName = "Magalir Sangam"
	st.Staff = []dues.StaffMember{{ID: uuid.New(), Name: "Devi", Phone: "9000000002", Role: dues.DefaultStaffRole, CreatedAt: time.Now().UTC().Truncate(time.Second)}}
	st.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	if _, err := s.SaveSettings(ctx, st); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.GetSettings(ctx, dues.ModuleMagalir)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.BusinessName != st.BusinessName || len(got.Staff) != 1 || got.Staff[0].Name != "Devi" {
		t.Errorf("settings round trip mismatch: %+v", got)
	}
}

package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/msivakumar/duetrack/internal/dues"
	"github.com/msivakumar/duetrack/internal/errs"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "duetrack.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testPayer(module dues.Module, name string) dues.Payer {
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

func testPayment(p dues.Payer, month dues.Month) dues.Payment {
	now := time.Now().UTC().Truncate(time.Second)
	return dues.Payment{
		ID:        uuid.New(),
		Module:    p.Module,
		GroupID:   p.GroupID,
		PayerID:   p.ID,
		Month:     month,
		Amount:    p.MonthlyAmount,
		Mode:      dues.DefaultPaymentMode,
		PaidDate:  now,
		CreatedAt: now,
	}
}

func TestPayerRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	in := testPayer(dues.ModuleCable, "Murugan")
	in.Area = "Anna Nagar"
	in.STBNumber = "STB-1001"
	if _, err := s.CreatePayer(ctx, in); err != nil {
		t.Fatalf("create payer: %v", err)
	}

	got, err := s.GetPayer(ctx, dues.ModuleCable, in.ID)
	if err != nil {
		t.Fatalf("get payer: %v", err)
	}
	if got.Name != in.Name || got.Area != in.Area || got.STBNumber != in.STBNumber {
		t.Errorf("payer fields lost: got %+v", got)
	}
	if got.MonthlyAmount != in.MonthlyAmount {
		t.Errorf("monthly amount = %d, want %d", got.MonthlyAmount, in.MonthlyAmount)
	}
	if got.GroupID != uuid.Nil {
		t.Errorf("group id = %s, want nil", got.GroupID)
	}

	// Module scoping: the same id under another module is not found.
	if _, err := s.GetPayer(ctx, dues.ModuleChit, in.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("cross-module get err = %v, want ErrNotFound", err)
	}
}

func TestPayerArchivedAtSurvivesUpdate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := testPayer(dues.ModuleCable, "Selvi")
	if _, err := s.CreatePayer(ctx, p); err != nil {
		t.Fatalf("create payer: %v", err)
	}
	archived := time.Now().UTC().Truncate(time.Second)
	p.Status = dues.StatusInactive
	p.ArchivedAt = &archived
	if _, err := s.UpdatePayer(ctx, p); err != nil {
		t.Fatalf("update payer: %v", err)
	}
	got, err := s.GetPayer(ctx, dues.ModuleCable, p.ID)
	if err != nil {
		t.Fatalf("get payer: %v", err)
	}
	if got.Status != dues.StatusInactive || got.ArchivedAt == nil {
		t.Fatalf("archive not persisted: status=%s archived_at=%v", got.Status, got.ArchivedAt)
	}
	if !got.ArchivedAt.Equal(archived) {
		t.Errorf("archived_at = %v, want %v", got.ArchivedAt, archived)
	}
}

func TestDuplicatePaymentRejected(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := testPayer(dues.ModuleCable, "Kumar")
	if _, err := s.CreatePayer(ctx, p); err != nil {
		t.Fatalf("create payer: %v", err)
	}
	month := dues.Month{Year: 2026, M: time.July}
	if _, err := s.CreatePayment(ctx, testPayment(p, month)); err != nil {
		t.Fatalf("first payment: %v", err)
	}
	_, err := s.CreatePayment(ctx, testPayment(p, month))
	if !errors.Is(err, errs.ErrDuplicatePayment) {
		t.Fatalf("second payment err = %v, want ErrDuplicatePayment", err)
	}

	// A different month for the same payer is fine.
	if _, err := s.CreatePayment(ctx, testPayment(p, month.AddMonths(1))); err != nil {
		t.Errorf("next month payment err = %v", err)
	}
}

func TestDeletePayerCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := testPayer(dues.ModuleCable, "Ravi")
	if _, err := s.CreatePayer(ctx, p); err != nil {
		t.Fatalf("create payer: %v", err)
	}
	pay := testPayment(p, dues.Month{Year: 2026, M: time.July})
	if _, err := s.CreatePayment(ctx, pay); err != nil {
		t.Fatalf("create payment: %v", err)
	}

	if err := s.DeletePayer(ctx, dues.ModuleCable, p.ID); err != nil {
		t.Fatalf("delete payer: %v", err)
	}
	if _, err := s.GetPayment(ctx, dues.ModuleCable, pay.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("payment after cascade err = %v, want ErrNotFound", err)
	}
}

func TestDeleteGroupCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	g := dues.Group{
		ID:            uuid.New(),
		Module:        dues.ModuleChit,
		Name:          "Diwali Chit",
		MonthlyAmount: 500000,
		Status:        dues.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := s.CreateGroup(ctx, g); err != nil {
		t.Fatalf("create group: %v", err)
	}
	m := testPayer(dues.ModuleChit, "Lakshmi")
	m.GroupID = g.ID
	if _, err := s.CreatePayer(ctx, m); err != nil {
		t.Fatalf("create member: %v", err)
	}
	pay := testPayment(m, dues.Month{Year: 2026, M: time.August})
	if _, err := s.CreatePayment(ctx, pay); err != nil {
		t.Fatalf("create payment: %v", err)
	}

	if err := s.DeleteGroup(ctx, dues.ModuleChit, g.ID); err != nil {
		t.Fatalf("delete group: %v", err)
	}
	if _, err := s.GetPayer(ctx, dues.ModuleChit, m.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("member after cascade err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetPayment(ctx, dues.ModuleChit, pay.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("payment after cascade err = %v, want ErrNotFound", err)
	}
}

func TestCountMembersByGroup(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	g := dues.Group{ID: uuid.New(), Module: dues.ModuleMagalir, Name: "Sangam A", Status: dues.StatusActive, CreatedAt: now, UpdatedAt: now}
	if _, err := s.CreateGroup(ctx, g); err != nil {
		t.Fatalf("create group: %v", err)
	}
	for _, name := range []string{"Amutha", "Bhavani", "Chitra"} {
		m := testPayer(dues.ModuleMagalir, name)
		m.GroupID = g.ID
		if _, err := s.CreatePayer(ctx, m); err != nil {
			t.Fatalf("create member %s: %v", name, err)
		}
	}

	counts, err := s.CountMembersByGroup(ctx, dues.ModuleMagalir)
	if err != nil {
		t.Fatalf("count members: %v", err)
	}
	if counts[g.ID] != 3 {
		t.Errorf("member count = %d, want 3", counts[g.ID])
	}
}

func TestListPaymentsFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := testPayer(dues.ModuleCable, "A")
	b := testPayer(dues.ModuleCable, "B")
	for _, p := range []dues.Payer{a, b} {
		if _, err := s.CreatePayer(ctx, p); err != nil {
			t.Fatalf("create payer: %v", err)
		}
	}
	jul := dues.Month{Year: 2026, M: time.July}
	aug := jul.AddMonths(1)
	for _, pay := range []dues.Payment{testPayment(a, jul), testPayment(a, aug), testPayment(b, jul)} {
		if _, err := s.CreatePayment(ctx, pay); err != nil {
			t.Fatalf("create payment: %v", err)
		}
	}

	byMonth, err := s.ListPayments(ctx, dues.ModuleCable, dues.PaymentFilter{Month: &jul})
	if err != nil {
		t.Fatalf("list by month: %v", err)
	}
	if len(byMonth) != 2 {
		t.Errorf("payments in %s = %d, want 2", jul, len(byMonth))
	}

	byPayer, err := s.ListPayments(ctx, dues.ModuleCable, dues.PaymentFilter{PayerID: a.ID})
	if err != nil {
		t.Fatalf("list by payer: %v", err)
	}
	if len(byPayer) != 2 {
		t.Errorf("payments for payer = %d, want 2", len(byPayer))
	}
}

func TestRestoreModuleReplace(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	old := testPayer(dues.ModuleCable, "Old")
	if _, err := s.CreatePayer(ctx, old); err != nil {
		t.Fatalf("create payer: %v", err)
	}
	if _, err := s.CreatePayment(ctx, testPayment(old, dues.Month{Year: 2026, M: time.June})); err != nil {
		t.Fatalf("create payment: %v", err)
	}
	// Another module's data must survive the replace.
	other := testPayer(dues.ModuleChit, "Other")
	if _, err := s.CreatePayer(ctx, other); err != nil {
		t.Fatalf("create other payer: %v", err)
	}

	fresh := testPayer(dues.ModuleCable, "Fresh")
	if err := s.RestoreModule(ctx, dues.ModuleCable, []dues.Payer{fresh}, nil, nil, true); err != nil {
		t.Fatalf("restore: %v", err)
	}

	payers, err := s.ListPayers(ctx, dues.ModuleCable, uuid.Nil)
	if err != nil {
		t.Fatalf("list payers: %v", err)
	}
	if len(payers) != 1 || payers[0].ID != fresh.ID {
		t.Fatalf("after replace got %d payers, want only the restored one", len(payers))
	}
	payments, err := s.ListPayments(ctx, dues.ModuleCable, dues.PaymentFilter{})
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(payments) != 0 {
		t.Errorf("payments after replace = %d, want 0", len(payments))
	}
	if _, err := s.GetPayer(ctx, dues.ModuleChit, other.ID); err != nil {
		t.Errorf("other module payer lost in replace: %v", err)
	}
}

func TestSettingsUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.GetSettings(ctx, dues.ModuleCable); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("unset settings err = %v, want ErrNotFound", err)
	}

	st := dues.DefaultSettings(dues.ModuleCable)
	st.BusinessName = "Sun Cable Network"
	st.Staff = []dues.StaffMember{{ID: uuid.New(), Name: "Mani", Phone: "9000000001", Role: dues.DefaultStaffRole, CreatedAt: time.Now().UTC().Truncate(time.Second)}}
	st.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	if _, err := s.SaveSettings(ctx, st); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	st.ReminderDay = 5
	if _, err := s.SaveSettings(ctx, st); err != nil {
		t.Fatalf("upsert settings: %v", err)
	}
	got, err := s.GetSettings(ctx, dues.ModuleCable)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if got.ReminderDay != 5 || got.BusinessName != "Sun Cable Network" {
		t.Errorf("settings not upserted: %+v", got)
	}
	if len(got.Staff) != 1 || got.Staff[0].Name != "Mani" {
		t.Errorf("staff not round-tripped: %+v", got.Staff)
	}
}

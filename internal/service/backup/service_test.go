package backup

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/msivakumar/duetrack/internal/dues"
	"github.com/msivakumar/duetrack/internal/storage/memory"
)

func seedPaidPayer(store *memory.Store, month dues.Month) dues.Payer {
	now := time.Now().UTC()
	p := dues.Payer{
		ID: uuid.New(), Module: dues.ModuleCable, Name: "Anbu", Phone: "9876543210",
		MonthlyAmount: 30000, Status: dues.StatusActive, CreatedAt: now, UpdatedAt: now,
	}
	store.SeedPayer(p)
	store.SeedPayment(dues.Payment{
		ID: uuid.New(), Module: dues.ModuleCable, PayerID: p.ID, Month: month,
		Amount: 30000, Mode: "cash", PaidDate: now, CreatedAt: now,
	})
	return p
}

func TestMergeSkipsSettledMonths(t *testing.T) {
	store := memory.New()
	svc := New(store, store)
	ctx := context.Background()
	month := dues.Month{Year: 2026, M: time.August}
	payer := seedPaidPayer(store, month)

	// The backup carries a payment for the same (payer, month) under a
	// different id, plus one for a month not yet settled.
	other := month.AddMonths(-1)
	now := time.Now().UTC()
	doc := Document{
		Customers: []dues.Payer{},
		Payments: []dues.Payment{
			{ID: uuid.New(), PayerID: payer.ID, Month: month, Amount: 100, Mode: "cash", PaidDate: now, CreatedAt: now},
			{ID: uuid.New(), PayerID: payer.ID, Month: other, Amount: 30000, Mode: "cash", PaidDate: now, CreatedAt: now},
		},
	}
	res, err := svc.Restore(ctx, dues.ModuleCable, doc, ModeMerge)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if res.Payments != 1 {
		t.Errorf("imported %d payments, want 1", res.Payments)
	}

	settled, err := store.ListPayments(ctx, dues.ModuleCable, dues.PaymentFilter{PayerID: payer.ID, Month: &month})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(settled) != 1 {
		t.Fatalf("%d payments for the settled month, want 1", len(settled))
	}
	if settled[0].Amount != 30000 {
		t.Errorf("live payment overwritten: amount = %d", settled[0].Amount)
	}
	restored, err := store.ListPayments(ctx, dues.ModuleCable, dues.PaymentFilter{PayerID: payer.ID, Month: &other})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(restored) != 1 {
		t.Errorf("%d payments for the open month, want 1", len(restored))
	}
}

func TestMergeDeduplicatesWithinDocument(t *testing.T) {
	store := memory.New()
	svc := New(store, store)
	ctx := context.Background()
	now := time.Now().UTC()
	month := dues.Month{Year: 2026, M: time.August}
	payerID := uuid.New()

	doc := Document{
		Customers: []dues.Payer{{
			ID: payerID, Name: "Anbu", Phone: "9876543210", MonthlyAmount: 30000,
			Status: dues.StatusActive, CreatedAt: now, UpdatedAt: now,
		}},
		Payments: []dues.Payment{
			{ID: uuid.New(), PayerID: payerID, Month: month, Amount: 30000, Mode: "cash", PaidDate: now, CreatedAt: now},
			{ID: uuid.New(), PayerID: payerID, Month: month, Amount: 30000, Mode: "cash", PaidDate: now, CreatedAt: now},
		},
	}
	res, err := svc.Restore(ctx, dues.ModuleCable, doc, ModeMerge)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if res.Payments != 1 {
		t.Errorf("imported %d payments, want 1", res.Payments)
	}
	payments, err := store.ListPayments(ctx, dues.ModuleCable, dues.PaymentFilter{PayerID: payerID, Month: &month})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(payments) != 1 {
		t.Errorf("%d payments for (payer, month), want 1", len(payments))
	}
}

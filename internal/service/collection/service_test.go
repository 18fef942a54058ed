package collection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/msivakumar/duetrack/internal/dues"
	"github.com/msivakumar/duetrack/internal/errs"
	"github.com/msivakumar/duetrack/internal/storage/memory"
)

func seedPayer(store *memory.Store, module dues.Module, groupID uuid.UUID, name string, amount int64) dues.Payer {
	now := time.Now().UTC()
	p := dues.Payer{
		ID: uuid.New(), Module: module, GroupID: groupID, Name: name,
		Phone: "9876543210", MonthlyAmount: amount,
		Status: dues.StatusActive, CreatedAt: now, UpdatedAt: now,
	}
	store.SeedPayer(p)
	return p
}

func TestRecordPayment(t *testing.T) {
	month := dues.Month{Year: 2026, M: time.July}
	amount := int64(20000)
	negative := int64(-1)

	tests := []struct {
		name    string
		module  dues.Module
		prepare func(store *memory.Store, svc Service) RecordInput
		wantErr error
		check   func(t *testing.T, p dues.Payment)
	}{
		{
			name: "defaults to the payer's monthly due and cash",
			prepare: func(store *memory.Store, _ Service) RecordInput {
				payer := seedPayer(store, dues.ModuleCable, uuid.Nil, "Anbu", 30000)
				return RecordInput{PayerID: payer.ID, Month: month}
			},
			check: func(t *testing.T, p dues.Payment) {
				if p.Amount != 30000 {
					t.Errorf("amount = %d, want 30000", p.Amount)
				}
				if p.Mode != dues.DefaultPaymentMode {
					t.Errorf("mode = %q, want %q", p.Mode, dues.DefaultPaymentMode)
				}
			},
		},
		{
			name: "explicit amount and mode win over defaults",
			prepare: func(store *memory.Store, _ Service) RecordInput {
				payer := seedPayer(store, dues.ModuleCable, uuid.Nil, "Anbu", 30000)
				return RecordInput{PayerID: payer.ID, Month: month, Amount: &amount, Mode: "upi"}
			},
			check: func(t *testing.T, p dues.Payment) {
				if p.Amount != 20000 || p.Mode != "upi" {
					t.Errorf("got amount=%d mode=%q", p.Amount, p.Mode)
				}
			},
		},
		{
			name:   "group member due comes from the group",
			module: dues.ModuleChit,
			prepare: func(store *memory.Store, _ Service) RecordInput {
				now := time.Now().UTC()
				g := dues.Group{
					ID: uuid.New(), Module: dues.ModuleChit, Name: "Diwali",
					MonthlyAmount: 500000, Status: dues.StatusActive,
					CreatedAt: now, UpdatedAt: now,
				}
				store.SeedGroup(g)
				member := seedPayer(store, dues.ModuleChit, g.ID, "Lakshmi", 0)
				return RecordInput{PayerID: member.ID, Month: month}
			},
			check: func(t *testing.T, p dues.Payment) {
				if p.Amount != 500000 {
					t.Errorf("amount = %d, want group due 500000", p.Amount)
				}
				if p.GroupID == uuid.Nil {
					t.Error("payment lost its group id")
				}
			},
		},
		{
			name: "second payment for the same month conflicts",
			prepare: func(store *memory.Store, svc Service) RecordInput {
				payer := seedPayer(store, dues.ModuleCable, uuid.Nil, "Anbu", 30000)
				in := RecordInput{PayerID: payer.ID, Month: month}
				if _, err := svc.RecordPayment(context.Background(), dues.ModuleCable, in); err != nil {
					t.Fatalf("first payment: %v", err)
				}
				return in
			},
			wantErr: errs.ErrDuplicatePayment,
		},
		{
			name: "unknown payer",
			prepare: func(_ *memory.Store, _ Service) RecordInput {
				return RecordInput{PayerID: uuid.New(), Month: month}
			},
			wantErr: errs.ErrNotFound,
		},
		{
			name: "negative amount",
			prepare: func(store *memory.Store, _ Service) RecordInput {
				payer := seedPayer(store, dues.ModuleCable, uuid.Nil, "Anbu", 30000)
				return RecordInput{PayerID: payer.ID, Month: month, Amount: &negative}
			},
			wantErr: errs.ErrInvalid,
		},
		{
			name: "missing month",
			prepare: func(store *memory.Store, _ Service) RecordInput {
				payer := seedPayer(store, dues.ModuleCable, uuid.Nil, "Anbu", 30000)
				return RecordInput{PayerID: payer.ID}
			},
			wantErr: errs.ErrInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			svc := New(store, store)
			in := tt.prepare(store, svc)
			module := tt.module
			if module == "" {
				module = dues.ModuleCable
			}
			p, err := svc.RecordPayment(context.Background(), module, in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, p)
			}
		})
	}
}

func TestCollectOrdering(t *testing.T) {
	store := memory.New()
	svc := New(store, store)
	month := dues.Month{Year: 2026, M: time.July}

	kumar := seedPayer(store, dues.ModuleCable, uuid.Nil, "Kumar", 25000)
	seedPayer(store, dues.ModuleCable, uuid.Nil, "Anbu", 30000)
	seedPayer(store, dues.ModuleCable, uuid.Nil, "Bala", 20000)

	if _, err := svc.RecordPayment(context.Background(), dues.ModuleCable, RecordInput{PayerID: kumar.ID, Month: month}); err != nil {
		t.Fatalf("record: %v", err)
	}

	view, err := svc.Collect(context.Background(), dues.ModuleCable, uuid.Nil, month)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	want := []string{"Anbu", "Bala", "Kumar"}
	if len(view.Rows) != len(want) {
		t.Fatalf("rows = %d, want %d", len(view.Rows), len(want))
	}
	for i, name := range want {
		if view.Rows[i].Name != name {
			t.Errorf("row %d = %q, want %q", i, view.Rows[i].Name, name)
		}
	}
	if !view.Rows[2].Paid {
		t.Error("paid row not last")
	}
	if view.Summary.Collected != 25000 || view.Summary.Pending != 50000 {
		t.Errorf("summary: %+v", view.Summary)
	}
}

func TestCollectEmptyRoster(t *testing.T) {
	store := memory.New()
	svc := New(store, store)
	view, err := svc.Collect(context.Background(), dues.ModuleCable, uuid.Nil, dues.Month{Year: 2026, M: time.July})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(view.Rows) != 0 || view.Summary.Total != 0 {
		t.Errorf("expected empty view, got %+v", view)
	}
}

func TestTrendWindowAndFloor(t *testing.T) {
	store := memory.New()
	svc := New(store, store)
	last := dues.Month{Year: 2026, M: time.July}

	payer := seedPayer(store, dues.ModuleCable, uuid.Nil, "Anbu", 10000)
	over := int64(50000)
	if _, err := svc.RecordPayment(context.Background(), dues.ModuleCable, RecordInput{PayerID: payer.ID, Month: last, Amount: &over}); err != nil {
		t.Fatalf("record: %v", err)
	}

	points, err := svc.Trend(context.Background(), dues.ModuleCable, last)
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	if len(points) != TrendWindow {
		t.Fatalf("points = %d, want %d", len(points), TrendWindow)
	}
	if points[0].Month.String() != "2026-02" || points[TrendWindow-1].Month != last {
		t.Errorf("window bounds: first=%s last=%s", points[0].Month, points[TrendWindow-1].Month)
	}
	final := points[TrendWindow-1]
	if final.Collected != 50000 {
		t.Errorf("collected = %d", final.Collected)
	}
	// Overpayment cannot drive pending negative.
	if final.Pending != 0 {
		t.Errorf("pending = %d, want 0", final.Pending)
	}
}

func TestPaymentHistoryOrder(t *testing.T) {
	store := memory.New()
	svc := New(store, store)
	payer := seedPayer(store, dues.ModuleCable, uuid.Nil, "Anbu", 10000)

	for _, m := range []dues.Month{
		{Year: 2026, M: time.May},
		{Year: 2026, M: time.July},
		{Year: 2025, M: time.December},
	} {
		if _, err := svc.RecordPayment(context.Background(), dues.ModuleCable, RecordInput{PayerID: payer.ID, Month: m}); err != nil {
			t.Fatalf("record %s: %v", m, err)
		}
	}

	history, err := svc.PaymentHistory(context.Background(), dues.ModuleCable, payer.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	want := []string{"2026-07", "2026-05", "2025-12"}
	for i, m := range want {
		if history[i].Month.String() != m {
			t.Errorf("history[%d] = %s, want %s", i, history[i].Month, m)
		}
	}
}

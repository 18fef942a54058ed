// Package collection implements monthly reconciliation: joining a roster
// scope against one month's payments into paid/unpaid partitions with
// aggregate totals, and the adjacent payment record/undo operations.
package collection

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/msivakumar/duetrack/internal/dues"
	"github.com/msivakumar/duetrack/internal/errs"
)

// Repo defines read operations needed by the service.
type Repo interface {
	ListPayers(ctx context.Context, module dues.Module, groupID uuid.UUID) ([]dues.Payer, error)
	GetPayer(ctx context.Context, module dues.Module, payerID uuid.UUID) (dues.Payer, error)
	ListGroups(ctx context.Context, module dues.Module) ([]dues.Group, error)
	GetGroup(ctx context.Context, module dues.Module, groupID uuid.UUID) (dues.Group, error)
	ListPayments(ctx context.Context, module dues.Module, f dues.PaymentFilter) ([]dues.Payment, error)
	GetPayment(ctx context.Context, module dues.Module, paymentID uuid.UUID) (dues.Payment, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	CreatePayment(ctx context.Context, p dues.Payment) (dues.Payment, error)
	UpdatePayment(ctx context.Context, p dues.Payment) (dues.Payment, error)
	DeletePayment(ctx context.Context, module dues.Module, paymentID uuid.UUID) error
}

// Row is one reconciliation output record for a single payer in a month.
type Row struct {
	PayerID   uuid.UUID
	Name      string
	Phone     string
	Address   string
	STBNumber string
	Area      string
	DueAmount int64
	PaymentID uuid.UUID
	Paid      bool
	PaidAmount int64
	PaidDate   *time.Time
	Mode       string
	WhatsAppSent bool
}

// Summary aggregates one reconciliation view.
type Summary struct {
	Total     int
	Paid      int
	Unpaid    int
	Collected int64
	Pending   int64
}

// View is the full reconciliation result for a scope and month.
type View struct {
	Month   dues.Month
	Group   *dues.Group
	Rows    []Row
	Summary Summary
}

// RecordInput is a record-payment request. Amount nil means "use the due".
type RecordInput struct {
	PayerID uuid.UUID
	Month   dues.Month
	Amount  *int64
	Mode    string
}

// Stats is the dashboard aggregate for the current month.
type Stats struct {
	Module          dues.Module
	CurrentMonth    dues.Month
	TotalPayers     int
	Active          int
	Inactive        int
	TotalGroups     int
	PaidThisMonth   int
	Collected       int64
	Pending         int64
	TotalMonthlyDue int64
}

// MonthlyReport lists one month's payments and the payers still owing.
type MonthlyReport struct {
	Month       dues.Month
	Collected   int64
	Pending     int64
	TotalPayers int
	PaidCount   int
	UnpaidCount int
	Payments    []dues.Payment
	Unpaid      []dues.Payer
}

// TrendPoint is one month in the trailing collection trend.
type TrendPoint struct {
	Month     dues.Month
	Collected int64
	Pending   int64
}

// TrendWindow is the fixed trailing window served by the trend report.
const TrendWindow = 6

// Service exposes reconciliation reads and payment writes.
type Service interface {
	// Collect is idempotent and side-effect-free.
	Collect(ctx context.Context, module dues.Module, groupID uuid.UUID, month dues.Month) (View, error)
	RecordPayment(ctx context.Context, module dues.Module, in RecordInput) (dues.Payment, error)
	UndoPayment(ctx context.Context, module dues.Module, paymentID uuid.UUID) error
	MarkReceiptSent(ctx context.Context, module dues.Module, paymentID uuid.UUID) (dues.Payment, error)
	GetPayment(ctx context.Context, module dues.Module, paymentID uuid.UUID) (dues.Payment, error)
	PaymentHistory(ctx context.Context, module dues.Module, payerID uuid.UUID) ([]dues.Payment, error)
	ListPayments(ctx context.Context, module dues.Module, month *dues.Month) ([]dues.Payment, error)
	Stats(ctx context.Context, module dues.Module, now dues.Month) (Stats, error)
	MonthlyReport(ctx context.Context, module dues.Module, month dues.Month) (MonthlyReport, error)
	Trend(ctx context.Context, module dues.Module, last dues.Month) ([]TrendPoint, error)
}

type service struct {
	repo   Repo
	writer Writer
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

func (s *service) Collect(ctx context.Context, module dues.Module, groupID uuid.UUID, month dues.Month) (View, error) {
	if month.IsZero() {
		return View{}, errs.ErrInvalid
	}
	var group *dues.Group
	if module.Grouped() {
		if groupID == uuid.Nil {
			return View{}, errs.ErrInvalid
		}
		g, err := s.repo.GetGroup(ctx, module, groupID)
		if err != nil {
			return View{}, err
		}
		group = &g
	}
	payers, err := s.repo.ListPayers(ctx, module, groupID)
	if err != nil {
		return View{}, err
	}
	payments, err := s.repo.ListPayments(ctx, module, dues.PaymentFilter{Month: &month, GroupID: groupID})
	if err != nil {
		return View{}, err
	}
	// At most one payment per payer by the uniqueness invariant.
	byPayer := make(map[uuid.UUID]dues.Payment, len(payments))
	for _, p := range payments {
		byPayer[p.PayerID] = p
	}

	rows := make([]Row, 0, len(payers))
	var sum Summary
	for _, p := range payers {
		if !p.Active() {
			continue
		}
		due := p.MonthlyAmount
		if group != nil {
			due = group.MonthlyAmount
		}
		row := Row{
			PayerID:   p.ID,
			Name:      p.Name,
			Phone:     p.Phone,
			Address:   p.Address,
			STBNumber: p.STBNumber,
			Area:      p.Area,
			DueAmount: due,
		}
		if pay, ok := byPayer[p.ID]; ok {
			paidDate := pay.PaidDate
			row.PaymentID = pay.ID
			row.Paid = true
			row.PaidAmount = pay.Amount
			row.PaidDate = &paidDate
			row.Mode = pay.Mode
			row.WhatsAppSent = pay.WhatsAppSent
			sum.Paid++
			sum.Collected += pay.Amount
		} else {
			sum.Unpaid++
			sum.Pending += due
		}
		sum.Total++
		rows = append(rows, row)
	}
	// Unpaid partition first, then byte-wise name order within each partition.
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Paid != rows[j].Paid {
			return !rows[i].Paid
		}
		return rows[i].Name < rows[j].Name
	})
	return View{Month: month, Group: group, Rows: rows, Summary: sum}, nil
}

func (s *service) RecordPayment(ctx context.Context, module dues.Module, in RecordInput) (dues.Payment, error) {
	if in.PayerID == uuid.Nil || in.Month.IsZero() {
		return dues.Payment{}, errs.ErrInvalid
	}
	if in.Amount != nil && *in.Amount < 0 {
		return dues.Payment{}, errs.Validation("amount must not be negative")
	}
	payer, err := s.repo.GetPayer(ctx, module, in.PayerID)
	if err != nil {
		return dues.Payment{}, err
	}
	existing, err := s.repo.ListPayments(ctx, module, dues.PaymentFilter{Month: &in.Month, PayerID: in.PayerID})
	if err != nil {
		return dues.Payment{}, err
	}
	if len(existing) > 0 {
		return dues.Payment{}, errs.ErrDuplicatePayment
	}
	amount := payer.MonthlyAmount
	if payer.GroupID != uuid.Nil {
		g, err := s.repo.GetGroup(ctx, module, payer.GroupID)
		if err != nil {
			return dues.Payment{}, err
		}
		amount = g.MonthlyAmount
	}
	if in.Amount != nil {
		amount = *in.Amount
	}
	mode := in.Mode
	if mode == "" {
		mode = dues.DefaultPaymentMode
	}
	now := time.Now().UTC()
	p := dues.Payment{
		ID:        uuid.New(),
		Module:    module,
		GroupID:   payer.GroupID,
		PayerID:   payer.ID,
		Month:     in.Month,
		Amount:    amount,
		Mode:      mode,
		PaidDate:  now,
		CreatedAt: now,
	}
	// The store insert is atomic; a concurrent duplicate surfaces as a
	// conflict rather than a second row.
	return s.writer.CreatePayment(ctx, p)
}

func (s *service) UndoPayment(ctx context.Context, module dues.Module, paymentID uuid.UUID) error {
	if paymentID == uuid.Nil {
		return errs.ErrInvalid
	}
	return s.writer.DeletePayment(ctx, module, paymentID)
}

func (s *service) MarkReceiptSent(ctx context.Context, module dues.Module, paymentID uuid.UUID) (dues.Payment, error) {
	if paymentID == uuid.Nil {
		return dues.Payment{}, errs.ErrInvalid
	}
	p, err := s.repo.GetPayment(ctx, module, paymentID)
	if err != nil {
		return dues.Payment{}, err
	}
	now := time.Now().UTC()
	p.WhatsAppSent = true
	p.WhatsAppSentAt = &now
	return s.writer.UpdatePayment(ctx, p)
}

func (s *service) GetPayment(ctx context.Context, module dues.Module, paymentID uuid.UUID) (dues.Payment, error) {
	if paymentID == uuid.Nil {
		return dues.Payment{}, errs.ErrInvalid
	}
	return s.repo.GetPayment(ctx, module, paymentID)
}

// PaymentHistory returns every payment of a payer, newest month first.
// Archived payers keep their history; only reconciliation excludes them.
func (s *service) PaymentHistory(ctx context.Context, module dues.Module, payerID uuid.UUID) ([]dues.Payment, error) {
	if payerID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	payments, err := s.repo.ListPayments(ctx, module, dues.PaymentFilter{PayerID: payerID})
	if err != nil {
		return nil, err
	}
	sort.Slice(payments, func(i, j int) bool { return payments[j].Month.Before(payments[i].Month) })
	return payments, nil
}

func (s *service) ListPayments(ctx context.Context, module dues.Module, month *dues.Month) ([]dues.Payment, error) {
	payments, err := s.repo.ListPayments(ctx, module, dues.PaymentFilter{Month: month})
	if err != nil {
		return nil, err
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].CreatedAt.After(payments[j].CreatedAt) })
	return payments, nil
}

func (s *service) Stats(ctx context.Context, module dues.Module, now dues.Month) (Stats, error) {
	payers, err := s.repo.ListPayers(ctx, module, uuid.Nil)
	if err != nil {
		return Stats{}, err
	}
	dueOf, groupCount, err := s.dueResolver(ctx, module)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Module: module, CurrentMonth: now, TotalGroups: groupCount}
	payments, err := s.repo.ListPayments(ctx, module, dues.PaymentFilter{Month: &now})
	if err != nil {
		return Stats{}, err
	}
	paid := make(map[uuid.UUID]struct{}, len(payments))
	for _, p := range payments {
		st.Collected += p.Amount
		paid[p.PayerID] = struct{}{}
	}
	st.PaidThisMonth = len(payments)
	for _, p := range payers {
		st.TotalPayers++
		if !p.Active() {
			st.Inactive++
			continue
		}
		st.Active++
		due := dueOf(p)
		st.TotalMonthlyDue += due
		if _, ok := paid[p.ID]; !ok {
			st.Pending += due
		}
	}
	return st, nil
}

func (s *service) MonthlyReport(ctx context.Context, module dues.Module, month dues.Month) (MonthlyReport, error) {
	if month.IsZero() {
		return MonthlyReport{}, errs.ErrInvalid
	}
	payments, err := s.repo.ListPayments(ctx, module, dues.PaymentFilter{Month: &month})
	if err != nil {
		return MonthlyReport{}, err
	}
	payers, err := s.repo.ListPayers(ctx, module, uuid.Nil)
	if err != nil {
		return MonthlyReport{}, err
	}
	dueOf, _, err := s.dueResolver(ctx, module)
	if err != nil {
		return MonthlyReport{}, err
	}
	rep := MonthlyReport{Month: month, Payments: payments, Unpaid: []dues.Payer{}}
	paid := make(map[uuid.UUID]struct{}, len(payments))
	for _, p := range payments {
		rep.Collected += p.Amount
		paid[p.PayerID] = struct{}{}
	}
	rep.PaidCount = len(payments)
	for _, p := range payers {
		if !p.Active() {
			continue
		}
		rep.TotalPayers++
		if _, ok := paid[p.ID]; !ok {
			rep.Pending += dueOf(p)
			rep.Unpaid = append(rep.Unpaid, p)
		}
	}
	rep.UnpaidCount = len(rep.Unpaid)
	sort.Slice(rep.Unpaid, func(i, j int) bool { return rep.Unpaid[i].Name < rep.Unpaid[j].Name })
	return rep, nil
}

// Trend returns the trailing TrendWindow months ending at last. Pending is
// the active roster's total due minus that month's collections, floored at
// zero: roster churn means old months cannot be reconstructed exactly.
func (s *service) Trend(ctx context.Context, module dues.Module, last dues.Month) ([]TrendPoint, error) {
	payers, err := s.repo.ListPayers(ctx, module, uuid.Nil)
	if err != nil {
		return nil, err
	}
	dueOf, _, err := s.dueResolver(ctx, module)
	if err != nil {
		return nil, err
	}
	var totalDue int64
	for _, p := range payers {
		if p.Active() {
			totalDue += dueOf(p)
		}
	}
	months := dues.TrailingMonths(last, TrendWindow)
	points := make([]TrendPoint, len(months))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range months {
		i, m := i, m
		g.Go(func() error {
			payments, err := s.repo.ListPayments(gctx, module, dues.PaymentFilter{Month: &m})
			if err != nil {
				return err
			}
			var collected int64
			for _, p := range payments {
				collected += p.Amount
			}
			pending := totalDue - collected
			if pending < 0 {
				pending = 0
			}
			points[i] = TrendPoint{Month: m, Collected: collected, Pending: pending}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

// dueResolver returns a function mapping a payer to its monthly due: the
// payer's own amount on global rosters, the owning group's amount otherwise.
// Also returns the group count so Stats does not scan groups twice.
func (s *service) dueResolver(ctx context.Context, module dues.Module) (func(dues.Payer) int64, int, error) {
	if !module.Grouped() {
		return func(p dues.Payer) int64 { return p.MonthlyAmount }, 0, nil
	}
	groups, err := s.repo.ListGroups(ctx, module)
	if err != nil {
		return nil, 0, err
	}
	dueByGroup := make(map[uuid.UUID]int64, len(groups))
	for _, g := range groups {
		dueByGroup[g.ID] = g.MonthlyAmount
	}
	return func(p dues.Payer) int64 { return dueByGroup[p.GroupID] }, len(groups), nil
}

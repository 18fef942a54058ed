// Package backup implements full-module export and replace-or-merge restore.
package backup

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/msivakumar/duetrack/internal/dues"
	"github.com/msivakumar/duetrack/internal/errs"
)

// FormatVersion is stamped on every export and checked loosely on restore.
const FormatVersion = "1.0"

// Mode selects restore behavior.
type Mode string

const (
	// ModeReplace wipes the module's data and loads the backup verbatim.
	ModeReplace Mode = "replace"
	// ModeMerge keeps existing rows and only inserts rows whose ids are absent.
	ModeMerge Mode = "merge"
)

// Document is the portable dump of one module's dataset.
type Document struct {
	Version    string
	ExportedAt time.Time
	Module     dues.Module
	Customers  []dues.Payer
	Groups     []dues.Group
	Payments   []dues.Payment
}

// Result counts what a restore imported.
type Result struct {
	Customers int
	Groups    int
	Payments  int
}

// Repo defines read operations needed by the service.
type Repo interface {
	ListPayers(ctx context.Context, module dues.Module, groupID uuid.UUID) ([]dues.Payer, error)
	ListGroups(ctx context.Context, module dues.Module) ([]dues.Group, error)
	ListPayments(ctx context.Context, module dues.Module, f dues.PaymentFilter) ([]dues.Payment, error)
}

// Writer defines the bulk-import primitive. Implementations apply the whole
// import in one store transaction so no reader sees a half-restored module.
type Writer interface {
	RestoreModule(ctx context.Context, module dues.Module, payers []dues.Payer, groups []dues.Group, payments []dues.Payment, replace bool) error
}

// Service exposes export and restore.
type Service interface {
	Export(ctx context.Context, module dues.Module) (Document, error)
	Restore(ctx context.Context, module dues.Module, doc Document, mode Mode) (Result, error)
}

type service struct {
	repo   Repo
	writer Writer
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

func (s *service) Export(ctx context.Context, module dues.Module) (Document, error) {
	payers, err := s.repo.ListPayers(ctx, module, uuid.Nil)
	if err != nil {
		return Document{}, err
	}
	groups, err := s.repo.ListGroups(ctx, module)
	if err != nil {
		return Document{}, err
	}
	payments, err := s.repo.ListPayments(ctx, module, dues.PaymentFilter{})
	if err != nil {
		return Document{}, err
	}
	return Document{
		Version:    FormatVersion,
		ExportedAt: time.Now().UTC(),
		Module:     module,
		Customers:  payers,
		Groups:     groups,
		Payments:   payments,
	}, nil
}

func (s *service) Restore(ctx context.Context, module dues.Module, doc Document, mode Mode) (Result, error) {
	if mode != ModeReplace && mode != ModeMerge {
		return Result{}, errs.Validation("mode must be replace or merge")
	}
	if doc.Customers == nil {
		return Result{}, errs.Validation("invalid backup data: customers missing")
	}

	payers := make([]dues.Payer, 0, len(doc.Customers))
	for _, p := range doc.Customers {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		p.Module = module
		if p.Status == "" {
			p.Status = dues.StatusActive
		}
		payers = append(payers, p)
	}
	groups := make([]dues.Group, 0, len(doc.Groups))
	for _, g := range doc.Groups {
		if g.ID == uuid.Nil {
			g.ID = uuid.New()
		}
		g.Module = module
		if g.Status == "" {
			g.Status = dues.StatusActive
		}
		groups = append(groups, g)
	}
	payments := make([]dues.Payment, 0, len(doc.Payments))
	for _, p := range doc.Payments {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		p.Module = module
		payments = append(payments, p)
	}

	if mode == ModeMerge {
		var err error
		payers, groups, payments, err = s.dropExisting(ctx, module, payers, groups, payments)
		if err != nil {
			return Result{}, err
		}
	}
	if err := s.writer.RestoreModule(ctx, module, payers, groups, payments, mode == ModeReplace); err != nil {
		return Result{}, err
	}
	return Result{Customers: len(payers), Groups: len(groups), Payments: len(payments)}, nil
}

// payerMonth is the uniqueness key of a payment.
type payerMonth struct {
	payer uuid.UUID
	month dues.Month
}

// dropExisting filters out rows that would collide with live data: any row
// whose id already exists, and any payment whose (payer, month) pair is
// already settled. A backup payment may carry a fresh id for a month the
// payer has since paid; inserting it would break the one-payment-per-month
// rule, so merge skips it.
func (s *service) dropExisting(ctx context.Context, module dues.Module, payers []dues.Payer, groups []dues.Group, payments []dues.Payment) ([]dues.Payer, []dues.Group, []dues.Payment, error) {
	existingPayers, err := s.repo.ListPayers(ctx, module, uuid.Nil)
	if err != nil {
		return nil, nil, nil, err
	}
	existingGroups, err := s.repo.ListGroups(ctx, module)
	if err != nil {
		return nil, nil, nil, err
	}
	existingPayments, err := s.repo.ListPayments(ctx, module, dues.PaymentFilter{})
	if err != nil {
		return nil, nil, nil, err
	}
	seen := make(map[uuid.UUID]struct{})
	for _, p := range existingPayers {
		seen[p.ID] = struct{}{}
	}
	for _, g := range existingGroups {
		seen[g.ID] = struct{}{}
	}
	settled := make(map[payerMonth]struct{}, len(existingPayments))
	for _, p := range existingPayments {
		seen[p.ID] = struct{}{}
		settled[payerMonth{p.PayerID, p.Month}] = struct{}{}
	}
	fp := payers[:0]
	for _, p := range payers {
		if _, ok := seen[p.ID]; !ok {
			fp = append(fp, p)
		}
	}
	fg := groups[:0]
	for _, g := range groups {
		if _, ok := seen[g.ID]; !ok {
			fg = append(fg, g)
		}
	}
	fpay := payments[:0]
	for _, p := range payments {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		key := payerMonth{p.PayerID, p.Month}
		if _, ok := settled[key]; ok {
			continue
		}
		settled[key] = struct{}{}
		fpay = append(fpay, p)
	}
	return fp, fg, fpay, nil
}

// Package roster implements payer and group lifecycle rules: required-field
// validation, archive/reactivate transitions, and cascading hard deletes.
package roster

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/msivakumar/duetrack/internal/dues"
	"github.com/msivakumar/duetrack/internal/errs"
)

// Repo defines read operations needed by the service.
type Repo interface {
	// ListPayers returns payers of a module; groupID narrows to one group
	// when not uuid.Nil.
	ListPayers(ctx context.Context, module dues.Module, groupID uuid.UUID) ([]dues.Payer, error)
	GetPayer(ctx context.Context, module dues.Module, payerID uuid.UUID) (dues.Payer, error)
	ListGroups(ctx context.Context, module dues.Module) ([]dues.Group, error)
	GetGroup(ctx context.Context, module dues.Module, groupID uuid.UUID) (dues.Group, error)
	// CountMembersByGroup derives member counts from the member set.
	CountMembersByGroup(ctx context.Context, module dues.Module) (map[uuid.UUID]int, error)
}

// Writer defines write operations needed by the service. Deletes cascade in
// the store so readers never observe a payer without its payments half-removed.
type Writer interface {
	CreatePayer(ctx context.Context, p dues.Payer) (dues.Payer, error)
	UpdatePayer(ctx context.Context, p dues.Payer) (dues.Payer, error)
	// DeletePayer removes the payer and all their payments atomically.
	DeletePayer(ctx context.Context, module dues.Module, payerID uuid.UUID) error
	CreateGroup(ctx context.Context, g dues.Group) (dues.Group, error)
	UpdateGroup(ctx context.Context, g dues.Group) (dues.Group, error)
	// DeleteGroup removes the group, its members, and their payments atomically.
	DeleteGroup(ctx context.Context, module dues.Module, groupID uuid.UUID) error
}

// ListFilter narrows a roster listing.
type ListFilter struct {
	Status dues.Status
	Search string
}

// GroupWithCount pairs a group with its derived member count.
type GroupWithCount struct {
	dues.Group
	MemberCount int
}

// Service exposes roster CRUD for all modules.
type Service interface {
	ListPayers(ctx context.Context, module dues.Module, groupID uuid.UUID, f ListFilter) ([]dues.Payer, error)
	GetPayer(ctx context.Context, module dues.Module, payerID uuid.UUID) (dues.Payer, error)
	CreatePayer(ctx context.Context, p dues.Payer) (dues.Payer, error)
	UpdatePayer(ctx context.Context, p dues.Payer) (dues.Payer, error)
	Archive(ctx context.Context, module dues.Module, payerID uuid.UUID) (dues.Payer, error)
	Reactivate(ctx context.Context, module dues.Module, payerID uuid.UUID) (dues.Payer, error)
	DeletePayer(ctx context.Context, module dues.Module, payerID uuid.UUID) error

	ListGroups(ctx context.Context, module dues.Module) ([]GroupWithCount, error)
	GetGroup(ctx context.Context, module dues.Module, groupID uuid.UUID) (GroupWithCount, error)
	CreateGroup(ctx context.Context, g dues.Group) (dues.Group, error)
	UpdateGroup(ctx context.Context, g dues.Group) (dues.Group, error)
	DeleteGroup(ctx context.Context, module dues.Module, groupID uuid.UUID) error
}

type service struct {
	repo   Repo
	writer Writer
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

// ValidateCreatePayer checks required fields before insert. Name is always
// required; phone is required on global rosters where it is the receipt
// delivery address.
func ValidateCreatePayer(p dues.Payer) error {
	if strings.TrimSpace(p.Name) == "" {
		return errs.Validation("name is required")
	}
	if !p.Module.Grouped() && strings.TrimSpace(p.Phone) == "" {
		return errs.Validation("phone is required")
	}
	if p.MonthlyAmount < 0 {
		return errs.Validation("monthly_amount must not be negative")
	}
	return nil
}

func (s *service) ListPayers(ctx context.Context, module dues.Module, groupID uuid.UUID, f ListFilter) ([]dues.Payer, error) {
	payers, err := s.repo.ListPayers(ctx, module, groupID)
	if err != nil {
		return nil, err
	}
	out := payers
	if f.Status != "" || f.Search != "" {
		out = make([]dues.Payer, 0, len(payers))
		for _, p := range payers {
			if f.Status != "" && p.Status != f.Status {
				continue
			}
			if f.Search != "" && !matchesSearch(p, f.Search) {
				continue
			}
			out = append(out, p)
		}
	}
	// Group member screens list alphabetically; global rosters stay in the
	// store's newest-first order.
	if groupID != uuid.Nil {
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	}
	return out, nil
}

// matchesSearch checks name/phone/stb/area the way the roster screen expects:
// case-insensitive except for the phone, which matches as typed.
func matchesSearch(p dues.Payer, q string) bool {
	lq := strings.ToLower(q)
	return strings.Contains(strings.ToLower(p.Name), lq) ||
		strings.Contains(p.Phone, q) ||
		strings.Contains(strings.ToLower(p.STBNumber), lq) ||
		strings.Contains(strings.ToLower(p.Area), lq)
}

func (s *service) GetPayer(ctx context.Context, module dues.Module, payerID uuid.UUID) (dues.Payer, error) {
	if payerID == uuid.Nil {
		return dues.Payer{}, errs.ErrInvalid
	}
	return s.repo.GetPayer(ctx, module, payerID)
}

func (s *service) CreatePayer(ctx context.Context, p dues.Payer) (dues.Payer, error) {
	if err := ValidateCreatePayer(p); err != nil {
		return dues.Payer{}, err
	}
	if p.Module.Grouped() {
		if p.GroupID == uuid.Nil {
			return dues.Payer{}, errs.Validation("group_id is required")
		}
		if _, err := s.repo.GetGroup(ctx, p.Module, p.GroupID); err != nil {
			return dues.Payer{}, err
		}
	} else if p.GroupID != uuid.Nil {
		return dues.Payer{}, errs.Validation("group_id not allowed for this module")
	}
	now := time.Now().UTC()
	p.ID = uuid.New()
	p.Status = dues.StatusActive
	p.CreatedAt = now
	p.UpdatedAt = now
	p.ArchivedAt = nil
	return s.writer.CreatePayer(ctx, p)
}

// UpdatePayer persists a patched payer. The HTTP layer loads the current
// payer and applies the partial body; identity fields stay fixed here.
func (s *service) UpdatePayer(ctx context.Context, p dues.Payer) (dues.Payer, error) {
	if p.ID == uuid.Nil {
		return dues.Payer{}, errs.ErrInvalid
	}
	current, err := s.repo.GetPayer(ctx, p.Module, p.ID)
	if err != nil {
		return dues.Payer{}, err
	}
	if strings.TrimSpace(p.Name) == "" {
		return dues.Payer{}, errs.Validation("name is required")
	}
	if p.MonthlyAmount < 0 {
		return dues.Payer{}, errs.Validation("monthly_amount must not be negative")
	}
	p.GroupID = current.GroupID
	p.CreatedAt = current.CreatedAt
	p.ArchivedAt = current.ArchivedAt
	p.UpdatedAt = time.Now().UTC()
	return s.writer.UpdatePayer(ctx, p)
}

// Archive soft-deletes: the payer drops out of every future reconciliation
// while historical payments remain queryable.
func (s *service) Archive(ctx context.Context, module dues.Module, payerID uuid.UUID) (dues.Payer, error) {
	return s.setStatus(ctx, module, payerID, dues.StatusInactive)
}

func (s *service) Reactivate(ctx context.Context, module dues.Module, payerID uuid.UUID) (dues.Payer, error) {
	return s.setStatus(ctx, module, payerID, dues.StatusActive)
}

func (s *service) setStatus(ctx context.Context, module dues.Module, payerID uuid.UUID, status dues.Status) (dues.Payer, error) {
	if payerID == uuid.Nil {
		return dues.Payer{}, errs.ErrInvalid
	}
	p, err := s.repo.GetPayer(ctx, module, payerID)
	if err != nil {
		return dues.Payer{}, err
	}
	now := time.Now().UTC()
	p.Status = status
	p.UpdatedAt = now
	if status == dues.StatusInactive {
		p.ArchivedAt = &now
	} else {
		p.ArchivedAt = nil
	}
	return s.writer.UpdatePayer(ctx, p)
}

func (s *service) DeletePayer(ctx context.Context, module dues.Module, payerID uuid.UUID) error {
	if payerID == uuid.Nil {
		return errs.ErrInvalid
	}
	if _, err := s.repo.GetPayer(ctx, module, payerID); err != nil {
		return err
	}
	return s.writer.DeletePayer(ctx, module, payerID)
}

func (s *service) ListGroups(ctx context.Context, module dues.Module) ([]GroupWithCount, error) {
	if !module.Grouped() {
		return nil, errs.ErrUnknownModule
	}
	groups, err := s.repo.ListGroups(ctx, module)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CountMembersByGroup(ctx, module)
	if err != nil {
		return nil, err
	}
	out := make([]GroupWithCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupWithCount{Group: g, MemberCount: counts[g.ID]})
	}
	return out, nil
}

func (s *service) GetGroup(ctx context.Context, module dues.Module, groupID uuid.UUID) (GroupWithCount, error) {
	if groupID == uuid.Nil {
		return GroupWithCount{}, errs.ErrInvalid
	}
	g, err := s.repo.GetGroup(ctx, module, groupID)
	if err != nil {
		return GroupWithCount{}, err
	}
	counts, err := s.repo.CountMembersByGroup(ctx, module)
	if err != nil {
		return GroupWithCount{}, err
	}
	return GroupWithCount{Group: g, MemberCount: counts[g.ID]}, nil
}

func (s *service) CreateGroup(ctx context.Context, g dues.Group) (dues.Group, error) {
	if !g.Module.Grouped() {
		return dues.Group{}, errs.ErrUnknownModule
	}
	if strings.TrimSpace(g.Name) == "" {
		return dues.Group{}, errs.Validation("group name is required")
	}
	if g.MonthlyAmount < 0 {
		return dues.Group{}, errs.Validation("monthly_amount must not be negative")
	}
	now := time.Now().UTC()
	g.ID = uuid.New()
	g.Status = dues.StatusActive
	g.CreatedAt = now
	g.UpdatedAt = now
	return s.writer.CreateGroup(ctx, g)
}

func (s *service) UpdateGroup(ctx context.Context, g dues.Group) (dues.Group, error) {
	if g.ID == uuid.Nil {
		return dues.Group{}, errs.ErrInvalid
	}
	current, err := s.repo.GetGroup(ctx, g.Module, g.ID)
	if err != nil {
		return dues.Group{}, err
	}
	if strings.TrimSpace(g.Name) == "" {
		return dues.Group{}, errs.Validation("group name is required")
	}
	if g.MonthlyAmount < 0 {
		return dues.Group{}, errs.Validation("monthly_amount must not be negative")
	}
	g.CreatedAt = current.CreatedAt
	g.UpdatedAt = time.Now().UTC()
	return s.writer.UpdateGroup(ctx, g)
}

func (s *service) DeleteGroup(ctx context.Context, module dues.Module, groupID uuid.UUID) error {
	if groupID == uuid.Nil {
		return errs.ErrInvalid
	}
	if _, err := s.repo.GetGroup(ctx, module, groupID); err != nil {
		return err
	}
	return s.writer.DeleteGroup(ctx, module, groupID)
}

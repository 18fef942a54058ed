// Package settings manages the per-module singleton configuration and its
// staff sub-resource.
package settings

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/msivakumar/duetrack/internal/dues"
	"github.com/msivakumar/duetrack/internal/errs"
)

// Repo defines read operations needed by the service.
type Repo interface {
	// GetSettings returns errs.ErrNotFound when the module was never configured.
	GetSettings(ctx context.Context, module dues.Module) (dues.Settings, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	SaveSettings(ctx context.Context, s dues.Settings) (dues.Settings, error)
}

// Service exposes settings reads and updates.
type Service interface {
	Get(ctx context.Context, module dues.Module) (dues.Settings, error)
	Update(ctx context.Context, s dues.Settings) (dues.Settings, error)
	AddStaff(ctx context.Context, module dues.Module, m dues.StaffMember) (dues.StaffMember, error)
	RemoveStaff(ctx context.Context, module dues.Module, staffID uuid.UUID) error
}

type service struct {
	repo   Repo
	writer Writer
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

// Get returns stored settings, or the defaults when none were ever saved.
func (s *service) Get(ctx context.Context, module dues.Module) (dues.Settings, error) {
	st, err := s.repo.GetSettings(ctx, module)
	if errors.Is(err, errs.ErrNotFound) {
		return dues.DefaultSettings(module), nil
	}
	return st, err
}

func (s *service) Update(ctx context.Context, in dues.Settings) (dues.Settings, error) {
	if in.ReminderDay < 1 || in.ReminderDay > 28 {
		return dues.Settings{}, errs.Validation("reminder_day must be between 1 and 28")
	}
	current, err := s.Get(ctx, in.Module)
	if err != nil {
		return dues.Settings{}, err
	}
	// Staff is managed through its own sub-resource.
	in.Staff = current.Staff
	if in.CountryCode == "" {
		in.CountryCode = current.CountryCode
	}
	in.UpdatedAt = time.Now().UTC()
	return s.writer.SaveSettings(ctx, in)
}

func (s *service) AddStaff(ctx context.Context, module dues.Module, m dues.StaffMember) (dues.StaffMember, error) {
	if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Phone) == "" {
		return dues.StaffMember{}, errs.Validation("name and phone are required")
	}
	if m.Role == "" {
		m.Role = dues.DefaultStaffRole
	}
	m.ID = uuid.New()
	m.CreatedAt = time.Now().UTC()

	st, err := s.Get(ctx, module)
	if err != nil {
		return dues.StaffMember{}, err
	}
	st.Staff = append(st.Staff, m)
	st.UpdatedAt = time.Now().UTC()
	if _, err := s.writer.SaveSettings(ctx, st); err != nil {
		return dues.StaffMember{}, err
	}
	return m, nil
}

func (s *service) RemoveStaff(ctx context.Context, module dues.Module, staffID uuid.UUID) error {
	if staffID == uuid.Nil {
		return errs.ErrInvalid
	}
	st, err := s.Get(ctx, module)
	if err != nil {
		return err
	}
	// Fresh slice: the stored Staff may share its backing array with
	// snapshots handed to other readers.
	kept := make([]dues.StaffMember, 0, len(st.Staff))
	found := false
	for _, m := range st.Staff {
		if m.ID == staffID {
			found = true
			continue
		}
		kept = append(kept, m)
	}
	if !found {
		return errs.ErrNotFound
	}
	st.Staff = kept
	st.UpdatedAt = time.Now().UTC()
	_, err = s.writer.SaveSettings(ctx, st)
	return err
}

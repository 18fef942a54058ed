package memory

// Package memory provides a simple in-memory implementation used for
// development and tests. It keeps code paths easy to follow while allowing
// us to plug in a real DB later.
import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/msivakumar/duetrack/internal/dues"
	"github.com/msivakumar/duetrack/internal/errs"
)

// Store is an in-memory implementation of the repository+writer interfaces
// used by the services. It is guarded by an RWMutex for concurrent
// reads/writes; cascading deletes and restores run under a single write
// lock so readers never see them half-applied.
type Store struct {
	mu       sync.RWMutex
	payers   map[uuid.UUID]dues.Payer
	groups   map[uuid.UUID]dues.Group
	payments map[uuid.UUID]dues.Payment
	settings map[dues.Module]dues.Settings
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		payers:   make(map[uuid.UUID]dues.Payer),
		groups:   make(map[uuid.UUID]dues.Group),
		payments: make(map[uuid.UUID]dues.Payment),
		settings: make(map[dues.Module]dues.Settings),
	}
}

// Seed helpers for local dev/tests.
func (s *Store) SeedPayer(p dues.Payer)     { s.mu.Lock(); s.payers[p.ID] = p; s.mu.Unlock() }
func (s *Store) SeedGroup(g dues.Group)     { s.mu.Lock(); s.groups[g.ID] = g; s.mu.Unlock() }
func (s *Store) SeedPayment(p dues.Payment) { s.mu.Lock(); s.payments[p.ID] = p; s.mu.Unlock() }

// Reset drops all data; used between tests.
func (s *Store) Reset() {
	s.mu.Lock()
	s.payers = map[uuid.UUID]dues.Payer{}
	s.groups = map[uuid.UUID]dues.Group{}
	s.payments = map[uuid.UUID]dues.Payment{}
	s.settings = map[dues.Module]dues.Settings{}
	s.mu.Unlock()
}

// Ready reports store health; the memory store is always ready.
func (s *Store) Ready(ctx context.Context) error { return nil }

// --- Payer reads ---

// ListPayers returns payers of a module, newest first. A non-Nil groupID
// narrows to one group's members.
func (s *Store) ListPayers(_ context.Context, module dues.Module, groupID uuid.UUID) ([]dues.Payer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]dues.Payer, 0)
	for _, p := range s.payers {
		if p.Module != module {
			continue
		}
		if groupID != uuid.Nil && p.GroupID != groupID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) GetPayer(_ context.Context, module dues.Module, payerID uuid.UUID) (dues.Payer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payers[payerID]
	if !ok || p.Module != module {
		return dues.Payer{}, errs.ErrNotFound
	}
	return p, nil
}

// --- Payer writes ---

func (s *Store) CreatePayer(_ context.Context, p dues.Payer) (dues.Payer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payers[p.ID] = p
	return p, nil
}

func (s *Store) UpdatePayer(_ context.Context, p dues.Payer) (dues.Payer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.payers[p.ID]
	if !ok || cur.Module != p.Module {
		return dues.Payer{}, errs.ErrNotFound
	}
	s.payers[p.ID] = p
	return p, nil
}

// DeletePayer removes the payer and every payment referencing them in one
// critical section.
func (s *Store) DeletePayer(_ context.Context, module dues.Module, payerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payers[payerID]
	if !ok || p.Module != module {
		return errs.ErrNotFound
	}
	delete(s.payers, payerID)
	for id, pay := range s.payments {
		if pay.Module == module && pay.PayerID == payerID {
			delete(s.payments, id)
		}
	}
	return nil
}

// --- Group reads ---

func (s *Store) ListGroups(_ context.Context, module dues.Module) ([]dues.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]dues.Group, 0)
	for _, g := range s.groups {
		if g.Module == module {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) GetGroup(_ context.Context, module dues.Module, groupID uuid.UUID) (dues.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[groupID]
	if !ok || g.Module != module {
		return dues.Group{}, errs.ErrNotFound
	}
	return g, nil
}

// CountMembersByGroup derives member counts from the payer set.
func (s *Store) CountMembersByGroup(_ context.Context, module dues.Module) (map[uuid.UUID]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]int)
	for _, p := range s.payers {
		if p.Module == module && p.GroupID != uuid.Nil {
			out[p.GroupID]++
		}
	}
	return out, nil
}

// --- Group writes ---

func (s *Store) CreateGroup(_ context.Context, g dues.Group) (dues.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[g.ID] = g
	return g, nil
}

func (s *Store) UpdateGroup(_ context.Context, g dues.Group) (dues.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.groups[g.ID]
	if !ok || cur.Module != g.Module {
		return dues.Group{}, errs.ErrNotFound
	}
	s.groups[g.ID] = g
	return g, nil
}

// DeleteGroup removes the group, its members, and their payments in one
// critical section.
func (s *Store) DeleteGroup(_ context.Context, module dues.Module, groupID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok || g.Module != module {
		return errs.ErrNotFound
	}
	delete(s.groups, groupID)
	for id, p := range s.payers {
		if p.Module == module && p.GroupID == groupID {
			delete(s.payers, id)
		}
	}
	for id, p := range s.payments {
		if p.Module == module && p.GroupID == groupID {
			delete(s.payments, id)
		}
	}
	return nil
}

// --- Payment reads ---

func (s *Store) ListPayments(_ context.Context, module dues.Module, f dues.PaymentFilter) ([]dues.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]dues.Payment, 0)
	for _, p := range s.payments {
		if p.Module == module && f.Matches(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) GetPayment(_ context.Context, module dues.Module, paymentID uuid.UUID) (dues.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[paymentID]
	if !ok || p.Module != module {
		return dues.Payment{}, errs.ErrNotFound
	}
	return p, nil
}

// --- Payment writes ---

// CreatePayment inserts a payment, rejecting a second payment for the same
// (payer, month) under the write lock so concurrent recorders cannot race
// past the service-level check.
func (s *Store) CreatePayment(_ context.Context, p dues.Payment) (dues.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.payments {
		if existing.Module == p.Module && existing.PayerID == p.PayerID && existing.Month == p.Month {
			return dues.Payment{}, errs.ErrDuplicatePayment
		}
	}
	s.payments[p.ID] = p
	return p, nil
}

func (s *Store) UpdatePayment(_ context.Context, p dues.Payment) (dues.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.payments[p.ID]
	if !ok || cur.Module != p.Module {
		return dues.Payment{}, errs.ErrNotFound
	}
	s.payments[p.ID] = p
	return p, nil
}

func (s *Store) DeletePayment(_ context.Context, module dues.Module, paymentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok || p.Module != module {
		return errs.ErrNotFound
	}
	delete(s.payments, paymentID)
	return nil
}

// --- Settings ---

func (s *Store) GetSettings(_ context.Context, module dues.Module) (dues.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.settings[module]
	if !ok {
		return dues.Settings{}, errs.ErrNotFound
	}
	return st, nil
}

func (s *Store) SaveSettings(_ context.Context, st dues.Settings) (dues.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[st.Module] = st
	return st, nil
}

// --- Backup / restore ---

// RestoreModule bulk-imports a module's dataset. With replace=true the
// module's existing rows are dropped first; either way the whole import is
// applied under one write lock.
func (s *Store) RestoreModule(_ context.Context, module dues.Module, payers []dues.Payer, groups []dues.Group, payments []dues.Payment, replace bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if replace {
		for id, p := range s.payers {
			if p.Module == module {
				delete(s.payers, id)
			}
		}
		for id, g := range s.groups {
			if g.Module == module {
				delete(s.groups, id)
			}
		}
		for id, p := range s.payments {
			if p.Module == module {
				delete(s.payments, id)
			}
		}
	}
	for _, p := range payers {
		s.payers[p.ID] = p
	}
	for _, g := range groups {
		s.groups[g.ID] = g
	}
	for _, p := range payments {
		s.payments[p.ID] = p
	}
	return nil
}

package dues

import "github.com/google/uuid"

// PaymentFilter narrows a payment scan. Zero fields mean "any".
type PaymentFilter struct {
	Month   *Month
	GroupID uuid.UUID
	PayerID uuid.UUID
}

// Matches reports whether p satisfies the filter. Stores that scan in memory
// use it directly; SQL stores translate the same predicates into WHERE clauses.
func (f PaymentFilter) Matches(p Payment) bool {
	if f.Month != nil && p.Month != *f.Month {
		return false
	}
	if f.GroupID != uuid.Nil && p.GroupID != f.GroupID {
		return false
	}
	if f.PayerID != uuid.Nil && p.PayerID != f.PayerID {
		return false
	}
	return true
}

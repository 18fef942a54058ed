package dues

import (
	"time"

	"github.com/google/uuid"

	"github.com/msivakumar/duetrack/internal/errs"
)

// Module identifies one of the independent dues ledgers served by the
// application. All modules share the same roster/payment shape; grouped
// modules additionally partition their roster into groups.
type Module string

const (
	// ModuleCable is the cable-TV subscription ledger with a single global roster.
	ModuleCable Module = "cable"
	// ModuleMagalir is the women's-loan ledger; payers belong to groups.
	ModuleMagalir Module = "magalir"
	// ModuleChit is the chit-fund ledger; payers belong to groups.
	ModuleChit Module = "chit"
)

// Modules lists every registered module in display order.
var Modules = []Module{ModuleCable, ModuleMagalir, ModuleChit}

// ParseModule validates a module name from the request path.
func ParseModule(s string) (Module, error) {
	switch Module(s) {
	case ModuleCable, ModuleMagalir, ModuleChit:
		return Module(s), nil
	}
	return "", errs.ErrUnknownModule
}

// Grouped reports whether the module's roster is partitioned into groups.
func (m Module) Grouped() bool { return m == ModuleMagalir || m == ModuleChit }

// Status is the lifecycle state of a payer or group.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Payer is a roster entry owing a recurring monthly amount: a cable customer
// or a group member, depending on the module.
type Payer struct {
	ID      uuid.UUID
	Module  Module
	// GroupID is uuid.Nil for global-roster modules.
	GroupID uuid.UUID
	Name    string
	Phone   string
	Address string
	Area    string
	// STBNumber is the set-top-box tag; only the cable module populates it.
	STBNumber string
	// MonthlyAmount is the recurring due in the smallest currency unit.
	MonthlyAmount int64
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ArchivedAt    *time.Time
}

// Active reports whether the payer participates in collection reconciliation.
func (p Payer) Active() bool { return p.Status == StatusActive }

// Group owns a roster of payers in a grouped module. The member count is
// derived from the member set on read; it is never stored, so it cannot
// drift when a write fails partway.
type Group struct {
	ID          uuid.UUID
	Module      Module
	Name        string
	Description string
	// MonthlyAmount is the due each member owes per month.
	MonthlyAmount int64
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Payment records that a payer settled one month's due. At most one payment
// exists per (payer, month); the collection service enforces this before
// insert and the SQL stores back it with a unique index.
type Payment struct {
	ID      uuid.UUID
	Module  Module
	GroupID uuid.UUID
	PayerID uuid.UUID
	Month   Month
	Amount  int64
	// Mode is the payment channel (cash, upi, card...). Defaults to cash.
	Mode     string
	PaidDate time.Time
	// WhatsAppSent marks that a receipt was sent for this payment.
	WhatsAppSent   bool
	WhatsAppSentAt *time.Time
	CreatedAt      time.Time
}

// DefaultPaymentMode is applied when a record-payment request omits the mode.
const DefaultPaymentMode = "cash"

// StaffMember is a collector listed in a module's settings.
type StaffMember struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	Role      string
	CreatedAt time.Time
}

// DefaultStaffRole is applied when an add-staff request omits the role.
const DefaultStaffRole = "collector"

// Settings is the per-module singleton configuration. The reminder fields
// only drive client-side display; the server never sends anything.
type Settings struct {
	Module          Module
	ReminderDay     int
	ReminderEnabled bool
	BusinessName    string
	BusinessPhone   string
	// CountryCode prefixes phone numbers in wa.me receipt links.
	CountryCode string
	Staff       []StaffMember
	UpdatedAt   time.Time
}

// DefaultSettings returns the zero-configuration defaults served before the
// module has ever been configured.
func DefaultSettings(m Module) Settings {
	return Settings{
		Module:      m,
		ReminderDay: 1,
		CountryCode: "91",
	}
}

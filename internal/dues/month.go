package dues

import (
	"fmt"
	"time"

	"github.com/msivakumar/duetrack/internal/errs"
)

// Month is a calendar month key in YYYY-MM form (zero-padded month).
// The zero value is invalid; construct via ParseMonth or MonthOf.
type Month struct {
	Year int
	M    time.Month
}

// MonthOf returns the Month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), M: t.Month()}
}

// CurrentMonth returns the Month of the caller's wall clock.
func CurrentMonth() Month { return MonthOf(time.Now()) }

// ParseMonth parses a strict YYYY-MM key.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: month must be YYYY-MM", errs.ErrInvalid)
	}
	return MonthOf(t), nil
}

// String renders the YYYY-MM key.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.M))
}

// IsZero reports whether m is the invalid zero value.
func (m Month) IsZero() bool { return m.Year == 0 && m.M == 0 }

// AddMonths returns the month n months after m (n may be negative).
func (m Month) AddMonths(n int) Month {
	t := time.Date(m.Year, m.M, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return MonthOf(t)
}

// Before reports whether m precedes other.
func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.M < other.M
}

// MarshalText implements encoding.TextMarshaler so Month serializes as its
// YYYY-MM key in JSON bodies and as a map key.
func (m Month) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// TrailingMonths returns the n months ending at (and including) last,
// oldest first. Used by the trend report.
func TrailingMonths(last Month, n int) []Month {
	out := make([]Month, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, last.AddMonths(-i))
	}
	return out
}

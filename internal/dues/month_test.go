package dues

import (
	"testing"
	"time"
)

func TestParseMonth_Valid(t *testing.T) {
	m, err := ParseMonth("2025-03")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.Year != 2025 || m.M != time.March {
		t.Fatalf("unexpected month: %+v", m)
	}
	if got := m.String(); got != "2025-03" {
		t.Fatalf("round trip: %s", got)
	}
}

func TestParseMonth_Invalid(t *testing.T) {
	for _, s := range []string{"", "2025", "2025-13", "2025-3", "03-2025", "2025-03-01"} {
		if _, err := ParseMonth(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func TestMonth_AddMonths_YearBoundary(t *testing.T) {
	m := Month{Year: 2025, M: time.January}
	prev := m.AddMonths(-1)
	if prev.String() != "2024-12" {
		t.Fatalf("expected 2024-12, got %s", prev)
	}
	next := m.AddMonths(14)
	if next.String() != "2026-03" {
		t.Fatalf("expected 2026-03, got %s", next)
	}
}

func TestTrailingMonths(t *testing.T) {
	last := Month{Year: 2025, M: time.February}
	ms := TrailingMonths(last, 6)
	if len(ms) != 6 {
		t.Fatalf("expected 6 months, got %d", len(ms))
	}
	if ms[0].String() != "2024-09" || ms[5].String() != "2025-02" {
		t.Fatalf("unexpected window: %v .. %v", ms[0], ms[5])
	}
	for i := 1; i < len(ms); i++ {
		if !ms[i-1].Before(ms[i]) {
			t.Fatalf("window not ascending at %d", i)
		}
	}
}

func TestMonth_TextMarshalling(t *testing.T) {
	var m Month
	if err := m.UnmarshalText([]byte("2024-11")); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	b, err := m.MarshalText()
	if err != nil || string(b) != "2024-11" {
		t.Fatalf("marshal: %s %v", b, err)
	}
	if err := m.UnmarshalText([]byte("nope")); err == nil {
		t.Fatal("expected error for malformed key")
	}
}

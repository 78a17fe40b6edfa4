package util

import (
	"testing"
	"time"
)

func TestDayStart(t *testing.T) {
	in := time.Date(2026, 8, 28, 17, 45, 12, 999, time.UTC)
	want := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	if got := DayStart(in); !got.Equal(want) {
		t.Errorf("DayStart() = %v, want %v", got, want)
	}
}

func TestISOWeekday(t *testing.T) {
	// 2026-08-24 is a Monday, 2026-08-30 a Sunday.
	monday := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	if got := ISOWeekday(monday); got != 1 {
		t.Errorf("ISOWeekday(Monday) = %d, want 1", got)
	}
	if got := ISOWeekday(sunday); got != 7 {
		t.Errorf("ISOWeekday(Sunday) = %d, want 7", got)
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  MiXeD Case  "); got != "mixed case" {
		t.Errorf("Normalize() = %q, want %q", got, "mixed case")
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("short", 10); got != "short" {
		t.Errorf("TruncateString(short) = %q, want unchanged", got)
	}
	if got := TruncateString("a longer string", 9); got != "a long..." {
		t.Errorf("TruncateString() = %q, want %q", got, "a long...")
	}
	if got := TruncateString("abcdef", 3); got != "abc" {
		t.Errorf("TruncateString(tiny limit) = %q, want %q", got, "abc")
	}
}

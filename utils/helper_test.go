package utils

import (
	"testing"
	"time"
)

func TestDereferencePtr(t *testing.T) {
	v := 42
	if got := DereferencePtr(&v); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	if got := DereferencePtr[int](nil); got != 0 {
		t.Fatalf("nil without default should yield zero value, got %d", got)
	}
	fallback := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if got := DereferencePtr(nil, fallback); !got.Equal(fallback) {
		t.Fatalf("nil with default should yield the default, got %s", got)
	}
	explicit := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	if got := DereferencePtr(&explicit, fallback); !got.Equal(explicit) {
		t.Fatalf("non-nil pointer must win over the default, got %s", got)
	}
}

func TestNilIfEmpty(t *testing.T) {
	if got := NilIfEmpty(""); got != nil {
		t.Fatalf("empty string should map to nil, got %v", got)
	}
	got := NilIfEmpty("42")
	if got == nil || *got != "42" {
		t.Fatalf("non-empty string should map to a pointer, got %v", got)
	}
	if NilIfEmpty(0) != nil {
		t.Fatal("zero int should map to nil")
	}
}

func TestConvertToDateTruncatesInTimezone(t *testing.T) {
	// 02:30 UTC on June 10 is still June 9 in New York.
	instant := time.Date(2025, 6, 10, 2, 30, 0, 0, time.UTC)

	got, err := ConvertToDate(instant, "America/New_York")
	if err != nil {
		t.Fatalf("ConvertToDate: %v", err)
	}
	if got.Year() != 2025 || got.Month() != time.June || got.Day() != 9 {
		t.Fatalf("expected June 9 in New York, got %s", got)
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Fatalf("expected local midnight, got %s", got)
	}

	utc, err := ConvertToDate(instant, "")
	if err != nil {
		t.Fatalf("ConvertToDate default tz: %v", err)
	}
	if utc.Day() != 10 || utc.Hour() != 0 {
		t.Fatalf("empty timezone should truncate in UTC, got %s", utc)
	}

	if _, err := ConvertToDate(instant, "Not/AZone"); err == nil {
		t.Fatal("unknown timezone must return an error")
	}
}

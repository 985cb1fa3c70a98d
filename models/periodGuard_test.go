package models

import (
	"errors"
	"testing"
	"time"
)

func mkPeriod(id int, status FiscalPeriodStatus, start, end string) *FiscalPeriod {
	s, _ := time.Parse("2006-01-02", start)
	e, _ := time.Parse("2006-01-02", end)
	return &FiscalPeriod{ID: id, OrganizationId: "org-1", Status: status, StartsAt: s, EndsAt: e}
}

func date(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func TestPeriodCovers_HalfOpenBoundary(t *testing.T) {
	p := mkPeriod(1, FiscalPeriodStatusOpen, "2025-01-01", "2025-02-01")

	if !periodCovers(p, date("2025-01-01")) {
		t.Fatal("StartsAt itself must be inside the period")
	}
	if !periodCovers(p, date("2025-01-31")) {
		t.Fatal("last day before EndsAt must be inside the period")
	}
	if periodCovers(p, date("2025-02-01")) {
		t.Fatal("a date equal to EndsAt belongs to the next period")
	}
	if periodCovers(p, date("2024-12-31")) {
		t.Fatal("a date before StartsAt is outside the period")
	}
}

func TestGoverningClosure_OpenPeriodPasses(t *testing.T) {
	periods := []*FiscalPeriod{
		mkPeriod(1, FiscalPeriodStatusOpen, "2025-01-01", "2025-02-01"),
	}
	if got := governingClosure(periods, date("2025-01-15")); got != nil {
		t.Fatalf("open period must not deny, got period %d", got.ID)
	}
}

func TestGoverningClosure_ClosedPeriodDenies(t *testing.T) {
	periods := []*FiscalPeriod{
		mkPeriod(7, FiscalPeriodStatusClosed, "2025-01-01", "2025-02-01"),
	}
	got := governingClosure(periods, date("2025-01-15"))
	if got == nil {
		t.Fatal("closed covering period must deny")
	}
	if got.ID != 7 {
		t.Fatalf("expected period 7, got %d", got.ID)
	}
}

func TestGoverningClosure_AnyClosedOverlapDenies(t *testing.T) {
	// Overlaps are rejected at creation but may exist in legacy data.
	periods := []*FiscalPeriod{
		mkPeriod(1, FiscalPeriodStatusOpen, "2025-01-01", "2025-02-01"),
		mkPeriod(2, FiscalPeriodStatusClosed, "2025-01-10", "2025-01-20"),
	}
	if got := governingClosure(periods, date("2025-01-15")); got == nil || got.ID != 2 {
		t.Fatal("a single covering closed period is enough to deny")
	}
}

func TestPeriodClosedError_Shape(t *testing.T) {
	p := mkPeriod(12, FiscalPeriodStatusClosed, "2025-03-01", "2025-04-01")
	err := newPeriodClosedError(p)

	if err.Code != ReasonCodePeriodClosed {
		t.Fatalf("expected reason code %s, got %s", ReasonCodePeriodClosed, err.Code)
	}
	if err.PeriodId != 12 {
		t.Fatalf("expected period id 12, got %d", err.PeriodId)
	}
	if !err.PeriodStart.Equal(p.StartsAt) || !err.PeriodEnd.Equal(p.EndsAt) {
		t.Fatal("error must snapshot the period boundaries")
	}

	var pce *PeriodClosedError
	if !errors.As(error(err), &pce) {
		t.Fatal("PeriodClosedError must be extractable with errors.As")
	}
}

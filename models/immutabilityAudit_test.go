package models

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestViolationDetailsFromError_StructuredError(t *testing.T) {
	start := date("2025-01-01")
	end := date("2025-02-01")
	denial := &PeriodClosedError{
		Code:        ReasonCodePeriodClosed,
		PeriodId:    42,
		PeriodStart: start,
		PeriodEnd:   end,
	}

	details := violationDetailsFromError(denial)
	if details.PeriodId != "42" {
		t.Fatalf("expected period id 42, got %s", details.PeriodId)
	}
	if !details.PeriodStart.Equal(start) || !details.PeriodEnd.Equal(end) {
		t.Fatal("period boundaries were not carried over from the error")
	}
	if details.ReasonCode != ReasonCodePeriodClosed {
		t.Fatalf("expected reason code %s, got %s", ReasonCodePeriodClosed, details.ReasonCode)
	}
}

func TestViolationDetailsFromError_WrappedError(t *testing.T) {
	denial := fmt.Errorf("recording depletion: %w", &PeriodClosedError{
		Code:     ReasonCodePeriodClosed,
		PeriodId: 7,
	})

	details := violationDetailsFromError(denial)
	if details.PeriodId != "7" {
		t.Fatalf("wrapped PeriodClosedError not extracted, got period id %s", details.PeriodId)
	}
}

func TestViolationDetailsFromError_UnexpectedShapeFallsBack(t *testing.T) {
	details := violationDetailsFromError(errors.New("something else entirely"))

	if details.PeriodId != auditUnknownPeriodId {
		t.Fatalf("expected sentinel period id, got %s", details.PeriodId)
	}
	epoch := time.Unix(0, 0).UTC()
	if !details.PeriodStart.Equal(epoch) || !details.PeriodEnd.Equal(epoch) {
		t.Fatal("expected epoch sentinel boundaries for unshaped error")
	}
	if details.ReasonCode != ReasonCodePeriodClosed {
		t.Fatal("reason code must default to the closed-period code")
	}
}

func TestViolationDetailsFromError_ZeroPeriodIdFallsBack(t *testing.T) {
	details := violationDetailsFromError(&PeriodClosedError{Code: ReasonCodePeriodClosed})
	if details.PeriodId != auditUnknownPeriodId {
		t.Fatalf("zero period id must degrade to sentinel, got %s", details.PeriodId)
	}
}

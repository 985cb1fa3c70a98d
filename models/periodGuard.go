package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// PeriodClosedError is the structured denial raised by the period guard.
// The audit log depends on this shape for forensic completeness, and the HTTP
// boundary maps it to a 4xx with a machine-readable code.
type PeriodClosedError struct {
	Code        string    `json:"code"`
	PeriodId    int       `json:"periodId"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
}

func (e *PeriodClosedError) Error() string {
	return fmt.Sprintf("%s: period %d (%s .. %s) is closed",
		e.Code, e.PeriodId,
		e.PeriodStart.Format("2006-01-02"),
		e.PeriodEnd.Format("2006-01-02"))
}

func newPeriodClosedError(p *FiscalPeriod) *PeriodClosedError {
	return &PeriodClosedError{
		Code:        ReasonCodePeriodClosed,
		PeriodId:    p.ID,
		PeriodStart: p.StartsAt,
		PeriodEnd:   p.EndsAt,
	}
}

// periodCovers reports whether date falls inside the period's half-open range
// [StartsAt, EndsAt). A date exactly equal to EndsAt belongs to the next period.
func periodCovers(p *FiscalPeriod, date time.Time) bool {
	return !date.Before(p.StartsAt) && date.Before(p.EndsAt)
}

// governingClosure picks the period that denies the mutation, if any.
// Overlapping periods should not exist (creation rejects them) but legacy data
// may carry them; a single covering CLOSED period is enough to deny.
func governingClosure(periods []*FiscalPeriod, date time.Time) *FiscalPeriod {
	for _, p := range periods {
		if p == nil {
			continue
		}
		if p.Status == FiscalPeriodStatusClosed && periodCovers(p, date) {
			return p
		}
	}
	return nil
}

// ValidatePeriodOpen is the period guard: a pure predicate with no side
// effects. It passes when no fiscal period covers the date or the covering
// period is OPEN, and returns *PeriodClosedError otherwise. Callers are
// responsible for audit-logging the denial.
//
// The check runs on the caller's *gorm.DB so that guard-check-then-write
// shares one transaction; a concurrent close cannot slip between them.
func ValidatePeriodOpen(tx *gorm.DB, organizationId string, effectiveDate time.Time) error {
	periods, err := findCoveringPeriods(tx, organizationId, effectiveDate.UTC())
	if err != nil {
		return err
	}
	if closed := governingClosure(periods, effectiveDate.UTC()); closed != nil {
		return newPeriodClosedError(closed)
	}
	return nil
}

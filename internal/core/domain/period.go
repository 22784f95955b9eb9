package domain

import "time"

// PeriodStatus is the lifecycle state of an accounting period.
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "OPEN"
	PeriodClosed PeriodStatus = "CLOSED"
	PeriodLocked PeriodStatus = "LOCKED"
)

// AccountingPeriod is a fiscal window. The posting core only reads periods.
type AccountingPeriod struct {
	PeriodID       string       `json:"periodID"`
	OrganizationID string       `json:"organizationID"`
	Name           string       `json:"name"`
	StartDate      time.Time    `json:"startDate"`
	EndDate        time.Time    `json:"endDate"` // inclusive
	Status         PeriodStatus `json:"status"`
}

// Contains reports whether the calendar date of d lies within the period.
func (p AccountingPeriod) Contains(d time.Time) bool {
	day := TruncateToDate(d)
	return !day.Before(TruncateToDate(p.StartDate)) && !day.After(TruncateToDate(p.EndDate))
}

// AcceptsPostings reports whether d can be posted into this period.
func (p AccountingPeriod) AcceptsPostings(d time.Time) bool {
	return p.Status == PeriodOpen && p.Contains(d)
}

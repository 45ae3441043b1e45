package types

import (
	"fmt"
	"time"
)

// Period identifies a billing month.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// NewPeriod builds a validated Period.
func NewPeriod(month, year int) (Period, error) {
	p := Period{Month: month, Year: year}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// PeriodOf returns the billing period containing t, evaluated in UTC.
func PeriodOf(t time.Time) Period {
	t = t.UTC()
	return Period{Month: int(t.Month()), Year: t.Year()}
}

// Validate reports whether the month and year are in range.
func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("month must be between 1 and 12, got %d", p.Month)
	}
	if p.Year < 1 || p.Year > 9999 {
		return fmt.Errorf("year must be between 1 and 9999, got %d", p.Year)
	}
	return nil
}

// Start is midnight UTC on the first day of the period.
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// End is the exclusive upper bound: the first instant of the next period.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// DateLayout is how calendar-date bounds are bound against DATE columns.
const DateLayout = "2006-01-02"

// StartDate is the first day of the period as a calendar date.
func (p Period) StartDate() string {
	return p.Start().Format(DateLayout)
}

// EndDate is the first day of the next period as a calendar date.
func (p Period) EndDate() string {
	return p.End().Format(DateLayout)
}

// AddMonths shifts the period by n months, n may be negative.
func (p Period) AddMonths(n int) Period {
	return PeriodOf(p.Start().AddDate(0, n, 0))
}

// Label renders the period as "January 2024".
func (p Period) Label() string {
	return fmt.Sprintf("%s %d", time.Month(p.Month).String(), p.Year)
}

// ShortLabel renders the period as "Jan 2024".
func (p Period) ShortLabel() string {
	return p.Start().Format("Jan 2006")
}

// String implements fmt.Stringer as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

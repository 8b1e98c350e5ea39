package models

import (
	"fmt"
	"time"
)

// Period is one reporting month. A run always operates on a single period.
type Period struct {
	Year  int
	Month int
}

// PreviousMonth returns the period immediately before the given time,
// the default when no period is configured.
func PreviousMonth(now time.Time) Period {
	year, month := now.Year(), int(now.Month())
	if month == 1 {
		return Period{Year: year - 1, Month: 12}
	}
	return Period{Year: year, Month: month - 1}
}

// Key returns the period as YYYYMM, used in dataset paths and storage keys.
func (p Period) Key() string {
	return fmt.Sprintf("%d%02d", p.Year, p.Month)
}

// Text returns the period as MM/YYYY for statement headers.
func (p Period) Text() string {
	return fmt.Sprintf("%02d/%d", p.Month, p.Year)
}

// Valid reports whether the period denotes a real calendar month.
func (p Period) Valid() bool {
	return p.Year >= 2000 && p.Month >= 1 && p.Month <= 12
}

// monthNames holds Spanish month names, index 1..12. Statement subjects and
// headers use the upper-case Spanish name, as the delivered documents do.
var monthNames = []string{
	"", "ENERO", "FEBRERO", "MARZO", "ABRIL", "MAYO", "JUNIO",
	"JULIO", "AGOSTO", "SEPTIEMBRE", "OCTUBRE", "NOVIEMBRE", "DICIEMBRE",
}

// MonthName returns the Spanish month name for the period.
func (p Period) MonthName() string {
	if p.Month < 1 || p.Month > 12 {
		return ""
	}
	return monthNames[p.Month]
}

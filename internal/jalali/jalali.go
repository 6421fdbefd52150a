// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package jalali recognizes Jalali (Solar Hijri) dates written as YYYY/M/D
// and converts them to Gregorian dates formatted as "Mon. DD, YYYY".
package jalali

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"
)

// GregorianLayout is the Go time layout of converted dates, e.g. "Apr. 09, 1985".
const GregorianLayout = "Jan. 02, 2006"

const (
	minYear = 1
	maxYear = 9377
)

// InvalidDateError reports a date-shaped token whose fields are out of range
// for the Jalali calendar.
type InvalidDateError struct {
	Token  string
	Reason string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid Jalali date %q: %s", e.Token, e.Reason)
}

// Date is a calendar date in the Jalali calendar.
type Date struct {
	Year  int
	Month int
	Day   int
}

// String returns the date as zero-padded YYYY/MM/DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d/%02d/%02d", d.Year, d.Month, d.Day)
}

// Gregorian returns midnight UTC of the equivalent Gregorian day.
// d must be valid; use Parse to obtain one.
func (d Date) Gregorian() time.Time {
	g := ptime.Date(d.Year, ptime.Month(d.Month), d.Day, 12, 0, 0, 0, time.UTC).Time().UTC()
	return time.Date(g.Year(), g.Month(), g.Day(), 0, 0, 0, 0, time.UTC)
}

// FromGregorian returns the Jalali date of the calendar day of t. The
// calendar library does not map days before 1097 CE, so those yield the
// zero Date.
func FromGregorian(t time.Time) Date {
	noon := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC)
	pt := ptime.New(noon)
	return Date{Year: pt.Year(), Month: int(pt.Month()), Day: pt.Day()}
}

// Parse reads a token of the form YYYY/M/D or YYYY/MM/DD and validates it
// against the Jalali calendar, including the leap-year length of Esfand.
// Persian and Arabic-Indic digits are accepted alongside ASCII digits.
func Parse(token string) (Date, error) {
	fields := strings.Split(normalizeDigits(token), "/")
	if len(fields) != 3 {
		return Date{}, &InvalidDateError{Token: token, Reason: "expected YYYY/M/D"}
	}

	var parts [3]int
	for i, f := range fields {
		if f == "" || strings.TrimLeft(f, "0123456789") != "" {
			return Date{}, &InvalidDateError{Token: token, Reason: fmt.Sprintf("field %q is not a number", f)}
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return Date{}, &InvalidDateError{Token: token, Reason: err.Error()}
		}
		parts[i] = n
	}

	d := Date{Year: parts[0], Month: parts[1], Day: parts[2]}
	if err := d.validate(); err != nil {
		return Date{}, &InvalidDateError{Token: token, Reason: err.Error()}
	}
	return d, nil
}

func (d Date) validate() error {
	if d.Year < minYear || d.Year > maxYear {
		return fmt.Errorf("year %d out of range [%d, %d]", d.Year, minYear, maxYear)
	}
	if d.Month < 1 || d.Month > 12 {
		return fmt.Errorf("month %d out of range [1, 12]", d.Month)
	}
	if limit := maxDays(d.Month); d.Day < 1 || d.Day > limit {
		return fmt.Errorf("day %d out of range [1, %d] for month %d", d.Day, limit, d.Month)
	}
	if d.Month == int(ptime.Esfand) && d.Day == 30 && !isLeap(d.Year) {
		return fmt.Errorf("day 30 out of range [1, 29] for month 12 of common year %d", d.Year)
	}
	return nil
}

// isLeap reports whether Esfand of year has 30 days.
func isLeap(year int) bool {
	return ptime.Date(year, ptime.Esfand, 1, 12, 0, 0, 0, time.UTC).IsLeap()
}

// maxDays is the longest the given month can be in any year.
func maxDays(month int) int {
	if month <= 6 {
		return 31
	}
	return 30
}

// Convert maps a Jalali date token to its Gregorian "Mon. DD, YYYY" form.
// It fails with *InvalidDateError when the token is out of range.
func Convert(token string) (string, error) {
	d, err := Parse(token)
	if err != nil {
		return "", err
	}
	return d.Gregorian().Format(GregorianLayout), nil
}

var digitReplacer = strings.NewReplacer(
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

func normalizeDigits(s string) string {
	return digitReplacer.Replace(s)
}

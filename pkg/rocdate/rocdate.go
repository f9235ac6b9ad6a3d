// Package rocdate converts between the ROC (Minguo) calendar used by the
// Taiwan open-data services and the Gregorian calendar.
//
// ROC year = Gregorian year - 1911. Dates are written "YYY/MM/DD" with the
// month and day zero-padded and the year unpadded (e.g. "114/12/08").
package rocdate

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// EraOffset is the difference between a Gregorian year and its ROC year.
const EraOffset = 1911

// ErrInvalidDate is returned for strings that are not a valid ROC calendar date.
var ErrInvalidDate = errors.New("invalid ROC date")

var datePattern = regexp.MustCompile(`^(\d{1,3})/(\d{2})/(\d{2})$`)

// Date is a calendar day in the ROC calendar. The zero value is not a valid date.
type Date struct {
	Year  int // ROC year, 1-based
	Month time.Month
	Day   int
}

// FromGregorian converts a Gregorian calendar day to a ROC Date.
func FromGregorian(year int, month time.Month, day int) Date {
	return Date{Year: year - EraOffset, Month: month, Day: day}
}

// FromTime returns the ROC Date of t in t's own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return FromGregorian(y, m, d)
}

// Parse strictly parses a "YYY/MM/DD" string. The calendar day must exist:
// "113/02/30" is rejected.
func Parse(s string) (Date, error) {
	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if year < 1 {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	d := Date{Year: year, Month: time.Month(month), Day: day}
	// time.Date normalises out-of-range values, so a mismatch means the day does not exist.
	gy, gm, gd := d.Time(time.UTC).Date()
	if gy != d.Year+EraOffset || gm != d.Month || gd != d.Day {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseGregorian parses a "YYYY-MM-DD" string into a ROC Date.
func ParseGregorian(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return FromTime(t), nil
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// String renders d as "YYY/MM/DD".
func (d Date) String() string {
	return fmt.Sprintf("%d/%02d/%02d", d.Year, int(d.Month), d.Day)
}

// Gregorian returns the Gregorian year, month and day of d.
func (d Date) Gregorian() (int, time.Month, int) {
	return d.Year + EraOffset, d.Month, d.Day
}

// GregorianString renders d as a Gregorian "YYYY-MM-DD" string.
func (d Date) GregorianString() string {
	y, m, day := d.Gregorian()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), day)
}

// UpstreamFormat renders d the way the MOA open-data endpoint expects it ("114.12.03").
func (d Date) UpstreamFormat() string {
	return fmt.Sprintf("%d.%02d.%02d", d.Year, int(d.Month), d.Day)
}

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	y, m, day := d.Gregorian()
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}

// Weekday returns the Gregorian weekday of d.
func (d Date) Weekday() time.Weekday {
	return d.Time(time.UTC).Weekday()
}

// Before reports whether d is an earlier calendar day than other.
func (d Date) Before(other Date) bool {
	return d.Time(time.UTC).Before(other.Time(time.UTC))
}

// IsFixedNonTradingDay reports whether the market is closed on d by policy.
// The wholesale market is closed every Monday.
func IsFixedNonTradingDay(d Date) bool {
	return d.Weekday() == time.Monday
}

// FormatDate renders t as a ROC date in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	return FromTime(t.In(loc)).String()
}

// FormatDateTime renders t as "YYY/MM/DD HH:MM:SS" in loc.
func FormatDateTime(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	return fmt.Sprintf("%s %02d:%02d:%02d",
		FromTime(local).String(), local.Hour(), local.Minute(), local.Second())
}

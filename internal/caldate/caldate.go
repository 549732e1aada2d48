// Package caldate parses the partial dates found on witness declarations:
// "1914", "5-1914" (month-year) and "3-5-1914" (day-month-year).
package caldate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDateFormat is wrapped by every error Parse returns.
var ErrInvalidDateFormat = errors.New("invalid date format")

// Precision records which fields a Date was written with.
type Precision int

const (
	Year Precision = iota + 1
	Month
	Day
)

func (p Precision) String() string {
	switch p {
	case Year:
		return "year"
	case Month:
		return "month"
	case Day:
		return "day"
	default:
		return "unknown"
	}
}

// Date is a calendar day. Missing month or day are stored as 1, so a
// partial date orders at the start of its period.
type Date struct {
	Year      int
	Month     int
	Day       int
	Precision Precision
}

// FormatError describes why a raw value was rejected.
type FormatError struct {
	Raw    string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrInvalidDateFormat, e.Raw, e.Reason)
}

func (e *FormatError) Unwrap() error { return ErrInvalidDateFormat }

// Parse reads a hyphen-separated date with one to three fields.
func Parse(raw string) (Date, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Date{}, &FormatError{Raw: raw, Reason: "empty"}
	}
	parts := strings.Split(s, "-")

	var fields []int
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return Date{}, &FormatError{Raw: raw, Reason: fmt.Sprintf("field %q is not a number", p)}
		}
		fields = append(fields, n)
	}

	var d Date
	switch len(fields) {
	case 1:
		d = Date{Year: fields[0], Month: 1, Day: 1, Precision: Year}
	case 2:
		d = Date{Year: fields[1], Month: fields[0], Day: 1, Precision: Month}
	case 3:
		d = Date{Year: fields[2], Month: fields[1], Day: fields[0], Precision: Day}
	default:
		return Date{}, &FormatError{Raw: raw, Reason: fmt.Sprintf("expected 1 to 3 fields, got %d", len(fields))}
	}

	if d.Year < 1 || d.Year > 9999 {
		return Date{}, &FormatError{Raw: raw, Reason: fmt.Sprintf("year %d out of range", d.Year)}
	}
	if d.Month < 1 || d.Month > 12 {
		return Date{}, &FormatError{Raw: raw, Reason: fmt.Sprintf("month %d out of range", d.Month)}
	}
	if d.Day < 1 || d.Day > daysIn(d.Year, d.Month) {
		return Date{}, &FormatError{Raw: raw, Reason: fmt.Sprintf("day %d out of range", d.Day)}
	}
	return d, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(raw string) Date {
	d, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return d
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Compare returns -1, 0 or +1 at day granularity.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return sign(d.Year - o.Year)
	case d.Month != o.Month:
		return sign(d.Month - o.Month)
	default:
		return sign(d.Day - o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }
func (d Date) Equal(o Date) bool  { return d.Compare(o) == 0 }

// IsZero reports whether d was never set.
func (d Date) IsZero() bool { return d.Precision == 0 }

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// ISO formats the day as YYYY-MM-DD regardless of precision.
func (d Date) ISO() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// String renders the date back in its source notation and precision.
func (d Date) String() string {
	switch d.Precision {
	case Year:
		return strconv.Itoa(d.Year)
	case Month:
		return fmt.Sprintf("%d-%d", d.Month, d.Year)
	case Day:
		return fmt.Sprintf("%d-%d-%d", d.Day, d.Month, d.Year)
	default:
		return ""
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

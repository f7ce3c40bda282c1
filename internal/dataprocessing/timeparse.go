package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// dateTimeLayouts are the accepted timestamp formats, most specific first.
// Mirrors what maintenance-log authors actually type into the sheet.
var dateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"2006-01-02",
	"2006/01/02",
	"1/2/2006",
}

// excelEpoch is the serial-date base used by xlsx files. Excel treats 1900 as
// a leap year, so the effective epoch is 1899-12-30.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseDateTime parses a cell value as a timestamp. It accepts the layouts
// above plus raw Excel serial numbers. Returns false for empty or
// unparseable values.
func ParseDateTime(value string) (time.Time, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateTimeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}

	// Cells formatted as dates sometimes reach us as serial numbers.
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		days := time.Duration(serial * 24 * float64(time.Hour))
		return excelEpoch.Add(days), true
	}

	return time.Time{}, false
}

// IsValidDateTime reports whether the cell value parses as a timestamp.
func IsValidDateTime(value string) bool {
	_, ok := ParseDateTime(value)
	return ok
}

// HoursBetween returns the signed number of hours from a to b, derived from
// the millisecond difference without rounding.
func HoursBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours()
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatHours renders an hour value as a cell string with two decimals.
func FormatHours(v float64) string {
	return strconv.FormatFloat(Round2(v), 'f', 2, 64)
}

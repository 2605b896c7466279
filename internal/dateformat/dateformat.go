// Package dateformat turns the ISO-like timestamps returned by the ticket
// service into the short form printed on boarding passes ("13 Jun 2025").
package dateformat

import (
	"strconv"
	"strings"
)

// monthAbbrev holds the Spanish three-letter month names, indexed by month-1.
var monthAbbrev = [12]string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}

// Format converts "2025-06-13" or "2025-06-13T08:00:00" into "13 Jun 2025".
//
// A blank input yields "". Input that does not split into exactly three
// dash-separated fields, or whose month or day is not numeric, is returned
// unchanged. A numeric month outside 1..12 is kept as written.
func Format(date string) string {
	if strings.TrimSpace(date) == "" {
		return ""
	}

	datePart, _, _ := strings.Cut(date, "T")
	parts := strings.Split(datePart, "-")
	if len(parts) != 3 {
		return date
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return date
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return date
	}

	monthName := parts[1]
	if month >= 1 && month <= 12 {
		monthName = monthAbbrev[month-1]
	}

	return strconv.Itoa(day) + " " + monthName + " " + parts[0]
}

// ShortTime truncates "08:30:00" to "08:30". Values that already carry at
// most hour and minute are returned as is.
func ShortTime(t string) string {
	if strings.Count(t, ":") < 2 {
		return t
	}
	return t[:strings.LastIndex(t, ":")]
}

// OrDash returns s, or "-" when s is blank.
func OrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

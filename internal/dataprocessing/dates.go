package dataprocessing

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// InvalidDate is returned for input that cannot be read as a calendar date.
var InvalidDate = time.Time{}

var (
	isoDatePattern   = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[T ].*)?$`)
	slashDatePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})(?:[T ].*)?$`)
	digitsPattern    = regexp.MustCompile(`^-?\d+$`)
)

// Bounds for reading a bare digit string. Serials below minExcelSerial (1927)
// are more likely years or counts than document dates.
const (
	minExcelSerial  = 10000
	maxExcelSerial  = 2958465 // 9999-12-31
	minMillisDigits = 10
)

// textDateLayouts are tried after the ISO and slash forms.
var textDateLayouts = []string{
	"2006/1/2",
	"2 Jan 2006",
	"02-Jan-2006",
	"2-Jan-06",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
	time.RFC1123,
}

// ParseDate reads a document date from a string, a number of milliseconds since
// the Unix epoch, or a time value. The result is midnight UTC of the calendar
// day. Unreadable input yields InvalidDate; ParseDate never fails loudly.
//
// Slash dates are read day first (DD/MM/YYYY) and fall back to month first
// (MM/DD/YYYY) only when the day-first reading is not a real date.
func ParseDate(raw any) time.Time {
	switch v := raw.(type) {
	case nil:
		return InvalidDate
	case time.Time:
		return truncateDay(v)
	case *time.Time:
		if v == nil {
			return InvalidDate
		}
		return truncateDay(*v)
	case string:
		return parseDateString(v)
	case int:
		return fromMillis(float64(v))
	case int32:
		return fromMillis(float64(v))
	case int64:
		return fromMillis(float64(v))
	case uint32:
		return fromMillis(float64(v))
	case uint64:
		return fromMillis(float64(v))
	case float32:
		return fromMillis(float64(v))
	case float64:
		return fromMillis(v)
	default:
		return InvalidDate
	}
}

func parseDateString(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return InvalidDate
	}

	if m := isoDatePattern.FindStringSubmatch(s); m != nil {
		return civilDate(m[1], m[2], m[3])
	}

	if m := slashDatePattern.FindStringSubmatch(s); m != nil {
		if t := civilDate(m[3], m[2], m[1]); !t.IsZero() {
			return t
		}
		return civilDate(m[3], m[1], m[2])
	}

	if digitsPattern.MatchString(s) {
		return parseDigits(s)
	}

	for _, layout := range textDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t)
		}
	}
	return InvalidDate
}

// parseDigits reads an all-digit cell as YYYYMMDD, an Excel serial or epoch
// milliseconds, by length and magnitude. Anything else is InvalidDate.
func parseDigits(s string) time.Time {
	digits := strings.TrimPrefix(s, "-")
	if len(digits) >= minMillisDigits {
		ms, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return InvalidDate
		}
		return fromMillis(ms)
	}
	if len(s) == 8 {
		return civilDate(s[:4], s[4:6], s[6:])
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minExcelSerial || n > maxExcelSerial {
		return InvalidDate
	}
	t, err := excelize.ExcelDateToTime(float64(n), false)
	if err != nil {
		return InvalidDate
	}
	return truncateDay(t)
}

// civilDate builds a date from its parts and rejects overflowing values such as 31/02.
func civilDate(year, month, day string) time.Time {
	y, err := strconv.Atoi(year)
	if err != nil {
		return InvalidDate
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return InvalidDate
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 {
		return InvalidDate
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return InvalidDate
	}
	return t
}

func fromMillis(ms float64) time.Time {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return InvalidDate
	}
	return truncateDay(time.UnixMilli(int64(ms)).UTC())
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return InvalidDate
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StartOfDay returns midnight UTC of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	return truncateDay(t)
}

// EndOfDay returns the last representable instant of t's calendar day in UTC.
func EndOfDay(t time.Time) time.Time {
	if t.IsZero() {
		return InvalidDate
	}
	return truncateDay(t).Add(24*time.Hour - time.Nanosecond)
}

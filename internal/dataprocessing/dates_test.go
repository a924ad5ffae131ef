package dataprocessing

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want time.Time
	}{
		{name: "iso date", raw: "2025-01-15", want: day(2025, time.January, 15)},
		{name: "iso with time", raw: "2025-01-15T13:45:00Z", want: day(2025, time.January, 15)},
		{name: "iso with space time", raw: "2025-01-15 23:59:59", want: day(2025, time.January, 15)},
		{name: "iso single digit parts", raw: "2025-1-5", want: day(2025, time.January, 5)},
		{name: "slash day first", raw: "15/01/2025", want: day(2025, time.January, 15)},
		{name: "slash ambiguous reads day first", raw: "01/02/2025", want: day(2025, time.February, 1)},
		{name: "slash falls back to month first", raw: "12/31/2025", want: day(2025, time.December, 31)},
		{name: "slash neither reading valid", raw: "31/31/2025", want: InvalidDate},
		{name: "slash february overflow", raw: "30/02/2025", want: InvalidDate},
		{name: "text month", raw: "15 Jan 2025", want: day(2025, time.January, 15)},
		{name: "long text month", raw: "January 15, 2025", want: day(2025, time.January, 15)},
		{name: "millis int64", raw: int64(1736946000000), want: day(2025, time.January, 15)},
		{name: "millis float", raw: float64(1736899200000), want: day(2025, time.January, 15)},
		{name: "millis string", raw: "1736899200000", want: day(2025, time.January, 15)},
		{name: "yyyymmdd string", raw: "20250115", want: day(2025, time.January, 15)},
		{name: "yyyymmdd invalid day", raw: "20250231", want: InvalidDate},
		{name: "excel serial string", raw: "45672", want: day(2025, time.January, 15)},
		{name: "bare year", raw: "2025", want: InvalidDate},
		{name: "small count", raw: "7", want: InvalidDate},
		{name: "nine digits", raw: "123456789", want: InvalidDate},
		{name: "slash year first unpadded", raw: "2025/1/5", want: day(2025, time.January, 5)},
		{name: "slash year first padded", raw: "2025/01/05", want: day(2025, time.January, 5)},
		{name: "typed time truncated", raw: time.Date(2025, 1, 15, 18, 30, 0, 0, time.UTC), want: day(2025, time.January, 15)},
		{name: "typed time pointer", raw: ptr(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)), want: day(2025, time.March, 1)},
		{name: "invalid month", raw: "2025-13-01", want: InvalidDate},
		{name: "empty", raw: "", want: InvalidDate},
		{name: "whitespace", raw: "   ", want: InvalidDate},
		{name: "garbage", raw: "not a date", want: InvalidDate},
		{name: "nil", raw: nil, want: InvalidDate},
		{name: "nil pointer", raw: (*time.Time)(nil), want: InvalidDate},
		{name: "zero time", raw: time.Time{}, want: InvalidDate},
		{name: "nan", raw: math.NaN(), want: InvalidDate},
		{name: "unsupported type", raw: true, want: InvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDate(tt.raw)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
			assert.Equal(t, tt.want.IsZero(), got.IsZero())
		})
	}
}

func TestParseDate_OffsetTimeUsesItsOwnCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	got := ParseDate(time.Date(2025, 1, 15, 1, 0, 0, 0, loc))
	assert.Equal(t, day(2025, time.January, 15), got)
}

func TestStartAndEndOfDay(t *testing.T) {
	noon := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, day(2025, time.June, 30), StartOfDay(noon))
	end := EndOfDay(noon)
	assert.Equal(t, 30, end.Day())
	assert.Equal(t, day(2025, time.July, 1), end.Add(time.Nanosecond))
	assert.True(t, EndOfDay(time.Time{}).IsZero())
}

func ptr[T any](v T) *T {
	return &v
}

package aggregation

import (
	"fmt"
	"sort"
	"time"

	apperrors "mortgagepulse/internal/errors"
	"mortgagepulse/pkg/contracts/domain"
)

// MonthRange is an inclusive window of "YYYY-MM" month keys.
type MonthRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// parseMonth reads a "YYYY-MM" key. A full "YYYY-MM-DD" date is accepted and truncated.
func parseMonth(key string) (time.Time, error) {
	if t, err := time.Parse(domain.MonthLayout, key); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", key)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
}

// GenerateMonths lists every month from start to end inclusive as "YYYY-MM"
// keys. An unreadable bound or a start after the end is a contract error.
func GenerateMonths(start, end string) ([]string, error) {
	from, err := parseMonth(start)
	if err != nil {
		return nil, apperrors.NewContractError(fmt.Sprintf("invalid month range start %q", start), fmt.Errorf("%w: %v", ErrInvalidMonthRange, err))
	}
	to, err := parseMonth(end)
	if err != nil {
		return nil, apperrors.NewContractError(fmt.Sprintf("invalid month range end %q", end), fmt.Errorf("%w: %v", ErrInvalidMonthRange, err))
	}
	if from.After(to) {
		return nil, apperrors.NewContractError(fmt.Sprintf("month range %s..%s starts after it ends", start, end), ErrInvalidMonthRange)
	}

	var months []string
	for m := from; !m.After(to); m = m.AddDate(0, 1, 0) {
		months = append(months, m.Format(domain.MonthLayout))
	}
	return months, nil
}

// monthsPresent lists, in ascending order, the distinct months of dated
// records accepted by counts.
func monthsPresent(records []domain.MortgageRecord, counts func(*domain.MortgageRecord) bool) []string {
	seen := make(map[string]struct{})
	for i := range records {
		rec := &records[i]
		if m := rec.Month(); m != "" && counts(rec) {
			seen[m] = struct{}{}
		}
	}
	months := make([]string, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	sort.Strings(months)
	return months
}

// resolveMonths returns the explicit window when one is given, otherwise the
// months of the records that would contribute to the result.
func resolveMonths(records []domain.MortgageRecord, window *MonthRange, counts func(*domain.MortgageRecord) bool) ([]string, error) {
	if window == nil {
		return monthsPresent(records, counts), nil
	}
	return GenerateMonths(window.Start, window.End)
}

package dataprocessing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"mortgagepulse/pkg/contracts/domain"
)

// CoerceNumeric reads a currency or percent decorated value as a number.
// Everything except digits, '.' and '-' is stripped before parsing, so
// "£250,000" and "85%" both parse. A value that still does not parse is
// returned with Valid=false and its original text in Raw.
func CoerceNumeric(raw any) domain.Number {
	switch v := raw.(type) {
	case nil:
		return domain.Number{}
	case domain.Number:
		return v
	case float64:
		return fromFloat(v)
	case float32:
		return fromFloat(float64(v))
	case int:
		return domain.NumberOf(float64(v))
	case int32:
		return domain.NumberOf(float64(v))
	case int64:
		return domain.NumberOf(float64(v))
	case uint32:
		return domain.NumberOf(float64(v))
	case uint64:
		return domain.NumberOf(float64(v))
	case string:
		return coerceString(v)
	case time.Time:
		return domain.Number{Raw: v.Format(time.RFC3339)}
	default:
		return domain.Number{Raw: fmt.Sprint(v)}
	}
}

func fromFloat(v float64) domain.Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return domain.Number{Raw: strconv.FormatFloat(v, 'g', -1, 64)}
	}
	return domain.NumberOf(v)
}

func coerceString(s string) domain.Number {
	n := domain.Number{Raw: s}

	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return n
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return n
	}
	n.Value = v
	n.Valid = true
	return n
}

// cellText renders a raw cell as trimmed text.
func cellText(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format("2006-01-02")
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

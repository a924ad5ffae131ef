package normalize

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"mortgagepulse/pkg/contracts/domain"
)

// rangePattern matches two signed decimals joined by a hyphen. The sign of each
// bound is consumed with its number so "-0.4--0.2" splits as (-0.4, -0.2).
var rangePattern = regexp.MustCompile(`^\s*([+-]?(?:\d+\.?\d*|\.\d+))\s*-\s*([+-]?(?:\d+\.?\d*|\.\d+))\s*$`)

// lowerBoundPattern reads the leading signed number of a band label.
var lowerBoundPattern = regexp.MustCompile(`^\s*([+-]?(?:\d+\.?\d*|\.\d+))`)

// ExcludedBandLiteral is the negative-margin band kept out of every view.
const ExcludedBandLiteral = "-0.4--0.2"

// excludedBands holds every spelling of the permanently excluded bands.
var excludedBands = map[string]bool{
	domain.UnknownBand:  true,
	ExcludedBandLiteral: true,
	"-40--20":           true,
}

// IsExcludedBand reports whether band is never shown in aggregate or filtered views.
func IsExcludedBand(band string) bool {
	return excludedBands[strings.TrimSpace(band)]
}

// parseRange splits a "<min>-<max>" label into its two bounds.
func parseRange(label string) (lo, hi float64, ok bool) {
	m := rangePattern.FindStringSubmatch(label)
	if m == nil {
		return 0, 0, false
	}
	lo, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, 0, false
	}
	hi, err = strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, 0, false
	}
	return lo, hi, true
}

// toBps scales a decimal percentage to basis points, rounding half up.
func toBps(v float64) int {
	return int(math.Floor(v*100 + 0.5))
}

func formatBand(lo, hi int) string {
	return strconv.Itoa(lo) + "-" + strconv.Itoa(hi)
}

// ConvertMarginBucketToBps turns a decimal bucket such as "1.6-1.8" into the
// basis point label "160-180". Input that is not exactly two numbers joined by
// a hyphen is returned unchanged.
func ConvertMarginBucketToBps(bucket string) string {
	lo, hi, ok := parseRange(bucket)
	if !ok {
		return bucket
	}
	return formatBand(toBps(lo), toBps(hi))
}

// StandardizePremiumBand returns the canonical bps form of label. Labels still
// written as decimals (a decimal point, or both bounds smaller than one in
// magnitude) are converted; bps labels are only reformatted. Unparsable labels
// pass through, so the function is idempotent.
func StandardizePremiumBand(label string) string {
	trimmed := strings.TrimSpace(label)
	lo, hi, ok := parseRange(trimmed)
	if !ok {
		return label
	}
	if strings.Contains(trimmed, ".") || (math.Abs(lo) < 1 && math.Abs(hi) < 1) {
		return formatBand(toBps(lo), toBps(hi))
	}
	return formatBand(int(lo), int(hi))
}

// IsBpsBand reports whether label is already in canonical "<minBps>-<maxBps>" form.
func IsBpsBand(label string) bool {
	if strings.Contains(label, ".") {
		return false
	}
	lo, hi, ok := parseRange(label)
	if !ok {
		return false
	}
	return formatBand(int(lo), int(hi)) == label
}

// BandLowerBound returns the numeric lower bound of a band label.
func BandLowerBound(band string) (float64, bool) {
	m := lowerBoundPattern.FindStringSubmatch(band)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// CompareBands orders bands by numeric lower bound. Unparsable labels sort
// before every parsable one; ties fall back to the label text.
func CompareBands(a, b string) int {
	av, aok := BandLowerBound(a)
	bv, bok := BandLowerBound(b)
	switch {
	case !aok && bok:
		return -1
	case aok && !bok:
		return 1
	case aok && bok && av != bv:
		if av < bv {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// SortBands returns a sorted copy of bands.
func SortBands(bands []string) []string {
	out := append([]string(nil), bands...)
	sort.SliceStable(out, func(i, j int) bool {
		return CompareBands(out[i], out[j]) < 0
	})
	return out
}

package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertMarginBucketToBps(t *testing.T) {
	tests := []struct {
		name   string
		bucket string
		want   string
	}{
		{"simple positive range", "1.6-1.8", "160-180"},
		{"zero lower bound", "0-0.2", "0-20"},
		{"negative to zero", "-0.2-0.0", "-20-0"},
		{"both bounds negative", "-0.4--0.2", "-40--20"},
		{"whitespace around separator", " 2.0 - 2.2 ", "200-220"},
		{"float noise rounds", "0.07-0.29", "7-29"},
		{"half rounds up", "0.125-0.135", "13-14"},
		{"leading dot", ".2-.4", "20-40"},
		{"single number", "1.6", "1.6"},
		{"three parts", "1-2-3", "1-2-3"},
		{"text", "Unknown", "Unknown"},
		{"empty", "", ""},
		{"non numeric bound", "1.6-abc", "1.6-abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConvertMarginBucketToBps(tt.bucket))
		})
	}
}

func TestConvertMarginBucketToBps_MalformedIsNoOp(t *testing.T) {
	for _, in := range []string{"abc", "--", "1--", "1.2.3-4", "-"} {
		once := ConvertMarginBucketToBps(in)
		assert.Equal(t, in, once, "input %q", in)
		assert.Equal(t, once, ConvertMarginBucketToBps(once), "input %q", in)
	}
}

func TestStandardizePremiumBand(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  string
	}{
		{"decimal label converted", "1.6-1.8", "160-180"},
		{"bps label unchanged", "160-180", "160-180"},
		{"bps label reformatted", " 160 - 180 ", "160-180"},
		{"small integers treated as decimals", "0-0", "0-0"},
		{"negative zero regression", "-0.2-0.0", "-20-0"},
		{"negative bps unchanged", "-20-0", "-20-0"},
		{"double negative decimal", "-0.4--0.2", "-40--20"},
		{"unknown passes through", "Unknown", "Unknown"},
		{"garbage passes through", "n/a", "n/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StandardizePremiumBand(tt.label))
		})
	}
}

func TestStandardizePremiumBand_Idempotent(t *testing.T) {
	inputs := []string{
		"1.6-1.8", "160-180", "-0.2-0.0", "-20-0", "0.004-0.009", "0.001-0.004",
		"-0.4--0.2", "Unknown", "", " 40 - 60", "1-2", "0.5-1", "abc-def",
	}
	for _, in := range inputs {
		once := StandardizePremiumBand(in)
		assert.Equal(t, once, StandardizePremiumBand(once), "input %q", in)
	}
}

func TestIsExcludedBand(t *testing.T) {
	assert.True(t, IsExcludedBand("Unknown"))
	assert.True(t, IsExcludedBand("-0.4--0.2"))
	assert.True(t, IsExcludedBand("-40--20"))
	assert.False(t, IsExcludedBand("160-180"))
	assert.False(t, IsExcludedBand("-20-0"))
}

func TestIsBpsBand(t *testing.T) {
	assert.True(t, IsBpsBand("160-180"))
	assert.True(t, IsBpsBand("-40--20"))
	assert.False(t, IsBpsBand("1.6-1.8"))
	assert.False(t, IsBpsBand(" 160-180"))
	assert.False(t, IsBpsBand("Unknown"))
}

func TestSortBands(t *testing.T) {
	in := []string{"200-220", "Unknown", "-20-0", "160-180", "0-20", "abc", "20-40"}
	got := SortBands(in)

	assert.Equal(t, []string{"Unknown", "abc", "-20-0", "0-20", "20-40", "160-180", "200-220"}, got)
	assert.Equal(t, "200-220", in[0], "input must not be reordered")
}

func TestCompareBands(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"lower bound decides", "20-40", "160-180", -1},
		{"negative first", "-20-0", "0-20", -1},
		{"unparsable first", "Unknown", "-20-0", -1},
		{"parsable after unparsable", "0-20", "Unknown", 1},
		{"equal", "0-20", "0-20", 0},
		{"same lower bound falls back to text", "0-20", "0-40", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareBands(tt.a, tt.b))
		})
	}
}

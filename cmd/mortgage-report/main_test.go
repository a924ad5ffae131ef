package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"mortgagepulse/internal/config"
	apperrors "mortgagepulse/internal/errors"
	"mortgagepulse/internal/shared/testutil"
	"mortgagepulse/pkg/contracts"
)

func sourceDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteCSV(t, dir, "jan.csv", [][]string{
		{"Provider", "Loan", "LTV", "PurchaseType", "DocumentDate", "GrossMarginBucket"},
		{"Alpha", "100000", "60", "Remortgage", "2025-01-05", "1.6-1.8"},
		{"Beta", "300000", "90", "House Purchase", "2025-01-20", "1.6-1.8"},
	})
	testutil.WriteCSV(t, dir, "feb.csv", [][]string{
		{"Provider", "Loan", "LTV", "PurchaseType", "DocumentDate", "GrossMarginBucket"},
		{"Alpha", "200000", "70", "Remortgage", "2025-02-03", "0-0.2"},
	})
	return dir
}

func quietEnv(t *testing.T) {
	t.Setenv(config.ConfigFileEnv, "")
	t.Setenv("MPULSE_LOGGING_LEVEL", "error")
	t.Setenv("MPULSE_TELEMETRY_METRICS_EXPORTER", "none")
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_WritesReports(t *testing.T) {
	quietEnv(t)
	out := t.TempDir()

	code, stdout, stderr := runCLI(t, "-dir", sourceDir(t), "-out", out)
	require.Equal(t, apperrors.ExitOK, code, stderr)

	for _, name := range []string{config.AggregateCSVName, config.CrossTabCSVName, config.WorkbookName} {
		path := filepath.Join(out, name)
		assert.FileExists(t, path)
		assert.Contains(t, stdout, path)
	}

	raw, err := os.ReadFile(filepath.Join(out, config.CrossTabCSVName))
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(raw), "\ufeff"))).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{"lender", "band", "ltv_segment", "amount", "count", "share"}, rows[0])

	f, err := excelize.OpenFile(filepath.Join(out, config.WorkbookName))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Cross Tab")
}

func TestRun_FilterFlags(t *testing.T) {
	quietEnv(t)
	out := t.TempDir()

	code, _, stderr := runCLI(t,
		"-dir", sourceDir(t), "-out", out,
		"-lenders", "Alpha", "-ltv", "below-80", "-from", "2025-01-01", "-to", "2025-01-31")
	require.Equal(t, apperrors.ExitOK, code, stderr)

	raw, err := os.ReadFile(filepath.Join(out, config.AggregateCSVName))
	require.NoError(t, err)
	body := string(raw)
	assert.Contains(t, body, "2025-01")
	assert.NotContains(t, body, "2025-02", "february is outside the date filter")
}

func TestRun_Options(t *testing.T) {
	quietEnv(t)

	code, stdout, stderr := runCLI(t, "-dir", sourceDir(t), "-options")
	require.Equal(t, apperrors.ExitOK, code, stderr)

	var opts struct {
		Lenders       []string `json:"lenders"`
		PurchaseTypes []string `json:"purchase_types"`
		PremiumBands  []string `json:"premium_bands"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &opts))
	assert.Equal(t, []string{"Alpha", "Beta"}, opts.Lenders)
	assert.Equal(t, []string{"House Purchase", "Remortgage"}, opts.PurchaseTypes)
	assert.Equal(t, []string{"0-20", "160-180"}, opts.PremiumBands)
}

func TestRun_ExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args func(t *testing.T) []string
		want int
	}{
		{
			name: "unknown flag",
			args: func(t *testing.T) []string { return []string{"-nope"} },
			want: apperrors.ExitUsage,
		},
		{
			name: "stray argument",
			args: func(t *testing.T) []string { return []string{"-dir", sourceDir(t), "extra"} },
			want: apperrors.ExitUsage,
		},
		{
			name: "invalid ltv bucket",
			args: func(t *testing.T) []string { return []string{"-dir", sourceDir(t), "-out", t.TempDir(), "-ltv", "above-95"} },
			want: apperrors.ExitUsage,
		},
		{
			name: "unreadable date",
			args: func(t *testing.T) []string { return []string{"-dir", sourceDir(t), "-out", t.TempDir(), "-from", "someday"} },
			want: apperrors.ExitUsage,
		},
		{
			name: "half a month range",
			args: func(t *testing.T) []string { return []string{"-dir", sourceDir(t), "-months-from", "2025-01"} },
			want: apperrors.ExitUsage,
		},
		{
			name: "unknown metric",
			args: func(t *testing.T) []string { return []string{"-dir", sourceDir(t), "-out", t.TempDir(), "-metrics", "apr"} },
			want: apperrors.ExitUsage,
		},
		{
			name: "inverted month range",
			args: func(t *testing.T) []string {
				return []string{"-dir", sourceDir(t), "-out", t.TempDir(), "-months-from", "2025-03", "-months-to", "2025-01"}
			},
			want: apperrors.ExitContract,
		},
		{
			name: "empty source directory",
			args: func(t *testing.T) []string { return []string{"-dir", t.TempDir()} },
			want: apperrors.ExitNoData,
		},
		{
			name: "no identifiable rows",
			args: func(t *testing.T) []string {
				dir := t.TempDir()
				testutil.WriteCSV(t, dir, "amounts.csv", [][]string{{"Loan", "LTV"}, {"100000", "60"}})
				return []string{"-dir", dir, "-out", t.TempDir()}
			},
			want: apperrors.ExitNoData,
		},
		{
			name: "missing source directory",
			args: func(t *testing.T) []string { return []string{"-dir", filepath.Join(t.TempDir(), "absent")} },
			want: apperrors.ExitNoData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quietEnv(t)
			code, _, stderr := runCLI(t, tt.args(t)...)
			assert.Equal(t, tt.want, code, stderr)
		})
	}
}

func TestRun_BadConfig(t *testing.T) {
	quietEnv(t)
	t.Setenv("MPULSE_LOGGING_LEVEL", "loud")

	code, _, stderr := runCLI(t, "-dir", sourceDir(t))
	assert.Equal(t, apperrors.ExitUsage, code)
	assert.Contains(t, stderr, "mortgage-report:")
}

func TestRun_Version(t *testing.T) {
	quietEnv(t)

	code, stdout, _ := runCLI(t, "-version")
	assert.Equal(t, apperrors.ExitOK, code)
	assert.Contains(t, stdout, "mortgage-report v"+contracts.Version)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b c"}, splitList(" a, ,b c ,"))
}

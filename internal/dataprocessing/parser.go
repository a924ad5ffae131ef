package dataprocessing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "mortgagepulse/internal/errors"
	"mortgagepulse/internal/normalize"
	"mortgagepulse/pkg/contracts/domain"
)

// headerScanRows is how many leading rows are searched for the header row.
const headerScanRows = 10

// minHeaderFields is how many recognised columns a row needs to count as the header.
const minHeaderFields = 2

// preferredSheets are checked before falling back to a scan of every sheet.
var preferredSheets = []string{"Data", "data", "Pricing", "Sheet1"}

// ReadWorkbook reads the first sheet of an XLSX file that carries a recognisable
// header row. Cell values are read raw so date columns stored as Excel serials
// come back as time values rather than locale formatted text.
func ReadWorkbook(path string) (domain.Dataset, error) {
	ds := domain.Dataset{Source: path}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return ds, apperrors.NewStorageError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	candidates := make([]string, 0, len(preferredSheets)+f.SheetCount)
	for _, name := range preferredSheets {
		if idx, _ := f.GetSheetIndex(name); idx >= 0 {
			candidates = append(candidates, name)
		}
	}
	candidates = append(candidates, f.GetSheetList()...)

	for _, name := range candidates {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			continue
		}
		headerRow := findHeaderRow(rows)
		if headerRow < 0 {
			continue
		}

		slog.Debug("workbook sheet selected",
			slog.String("path", path),
			slog.String("sheet", name),
			slog.Int("header_row", headerRow+1),
			slog.Int("rows", len(rows)))

		ds.Headers = rows[headerRow]
		ds.Rows = rowsToRaw(ds.Headers, rows[headerRow+1:], workbookCell)
		return ds, nil
	}

	return ds, apperrors.NewParsingError("no sheet with a recognisable header row", nil).WithContext("path", path)
}

// workbookCell converts a raw workbook cell. Date columns holding an Excel
// serial number become time values.
func workbookCell(field normalize.Field, text string) any {
	if field != normalize.FieldDocumentDate {
		return text
	}
	serial, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || serial <= 0 {
		return text
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return text
	}
	return t
}

// ReadCSVFile opens path and reads it with ReadCSV.
func ReadCSVFile(path string) (domain.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return domain.Dataset{Source: path}, apperrors.NewStorageError("failed to open csv", err).WithContext("path", path)
	}
	defer file.Close()
	return ReadCSV(file, path)
}

// ReadCSV reads a delimited export whose first non-empty record is the header.
// A UTF-8 byte order mark on the first header is removed.
func ReadCSV(r io.Reader, source string) (domain.Dataset, error) {
	ds := domain.Dataset{Source: source}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return ds, apperrors.NewParsingError(fmt.Sprintf("malformed csv at line %d", parseErr.Line), err).WithContext("source", source)
		}
		return ds, apperrors.NewStorageError("failed to read csv", err).WithContext("source", source)
	}

	headerRow := -1
	for i, rec := range records {
		if !blankRow(rec) {
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		return ds, nil
	}

	headers := records[headerRow]
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}
	ds.Headers = headers
	ds.Rows = rowsToRaw(headers, records[headerRow+1:], func(_ normalize.Field, text string) any { return text })
	return ds, nil
}

// findHeaderRow returns the index of the first row with enough recognised columns, or -1.
func findHeaderRow(rows [][]string) int {
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		recognised := 0
		for _, cell := range rows[i] {
			if normalize.CanonicalField(cell) != normalize.FieldUnknown {
				recognised++
			}
		}
		if recognised >= minHeaderFields {
			return i
		}
	}
	return -1
}

func rowsToRaw(headers []string, rows [][]string, convert func(normalize.Field, string) any) []domain.RawRow {
	fields := make([]normalize.Field, len(headers))
	for i, h := range headers {
		fields[i] = normalize.CanonicalField(h)
	}

	out := make([]domain.RawRow, 0, len(rows))
	for _, row := range rows {
		if blankRow(row) {
			continue
		}
		raw := make(domain.RawRow, len(headers))
		for i, h := range headers {
			if strings.TrimSpace(h) == "" {
				continue
			}
			if i >= len(row) {
				raw[h] = ""
				continue
			}
			raw[h] = convert(fields[i], row[i])
		}
		out = append(out, raw)
	}
	return out
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

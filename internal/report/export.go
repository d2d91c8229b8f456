package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"dsr-ledger/internal/core"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Format is a ledger export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx".
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, "":
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Ledger is a filtered set of entries with its totals.
type Ledger struct {
	Title   string
	Entries []core.Entry
	Totals  core.Totals
}

var ledgerHeader = []string{"Date", "User", "Bill", "Party", "Credit", "Payment", "Return", "Discount", "Balance"}

func ledgerRows(l Ledger) [][]string {
	rows := make([][]string, 0, len(l.Entries))
	for _, e := range l.Entries {
		rows = append(rows, []string{
			e.Date,
			csvSafe(e.User),
			csvSafe(e.Bill),
			csvSafe(e.Party),
			e.Credit.StringFixed(2),
			e.Payment.StringFixed(2),
			e.Return.StringFixed(2),
			e.Discount.StringFixed(2),
			e.Balance.StringFixed(2),
		})
	}
	return rows
}

func totalRows(t core.Totals) [][]string {
	return [][]string{
		{"Total Payment", t.Payment.StringFixed(2)},
		{"Total Return", t.Return.StringFixed(2)},
		{"Total Discount", t.Discount.StringFixed(2)},
		{"Notes", t.Notes.StringFixed(2)},
		{"Grand Total", t.Grand.StringFixed(2)},
	}
}

// WriteCSV writes the ledger rows followed by a blank line and the totals.
func WriteCSV(w io.Writer, l Ledger) error {
	cw := csv.NewWriter(w)
	_ = cw.Write(ledgerHeader)
	for _, row := range ledgerRows(l) {
		_ = cw.Write(row)
	}
	_ = cw.Write([]string{})
	for _, row := range totalRows(l.Totals) {
		_ = cw.Write(row)
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the ledger as a single-sheet workbook. Amount cells are numeric.
func WriteXLSX(w io.Writer, l Ledger) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Ledger"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	sw := &sheetWriter{f: f, sheet: sheet}
	row := 1
	if l.Title != "" {
		sw.set(1, 1, l.Title, bold)
		row = 3
	}

	for i, h := range ledgerHeader {
		sw.set(i+1, row, h, bold)
	}
	row++

	for _, e := range l.Entries {
		values := []any{e.Date, e.User, e.Bill, e.Party,
			toFloat(e.Credit), toFloat(e.Payment), toFloat(e.Return), toFloat(e.Discount), toFloat(e.Balance)}
		for i, v := range values {
			style := 0
			if i >= 4 {
				style = money
			}
			sw.set(i+1, row, v, style)
		}
		row++
	}

	row++
	for _, t := range []struct {
		label string
		value decimal.Decimal
	}{
		{"Total Payment", l.Totals.Payment},
		{"Total Return", l.Totals.Return},
		{"Total Discount", l.Totals.Discount},
		{"Notes", l.Totals.Notes},
		{"Grand Total", l.Totals.Grand},
	} {
		sw.set(4, row, t.label, bold)
		sw.set(6, row, toFloat(t.value), money)
		row++
	}

	sw.width("A", "B", 12)
	sw.width("D", "D", 28)
	if sw.err != nil {
		return fmt.Errorf("failed to fill workbook: %w", sw.err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// sheetWriter keeps the first excelize error and skips every call after it.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

// set writes v at (col, row), applying style when it is non-zero.
func (s *sheetWriter) set(col, row int, v any, style int) {
	if s.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		s.err = err
		return
	}
	if err := s.f.SetCellValue(s.sheet, cell, v); err != nil {
		s.err = err
		return
	}
	if style != 0 {
		s.err = s.f.SetCellStyle(s.sheet, cell, cell, style)
	}
}

func (s *sheetWriter) width(from, to string, w float64) {
	if s.err == nil {
		s.err = s.f.SetColWidth(s.sheet, from, to, w)
	}
}

// Write dispatches on format.
func Write(w io.Writer, format Format, l Ledger) error {
	if format == FormatXLSX {
		return WriteXLSX(w, l)
	}
	return WriteCSV(w, l)
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// csvSafe prevents CSV formula injection by prefixing cells that begin with a
// formula-triggering character with a single quote.
func csvSafe(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

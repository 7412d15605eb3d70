package reports

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	headerFill  = "366092"
	sheetName   = "Report"
	maxColWidth = 50
	// "#,##0.00"
	moneyNumFmt = 4
)

type excelStyles struct {
	title, subtitle, label, header, cell, number, money, summary, summaryMoney, footer int
}

func newExcelStyles(f *excelize.File) (*excelStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	definitions := []*excelize.Style{
		{Font: &excelize.Font{Family: "Arial", Size: 14, Bold: true}, Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"}},
		{Font: &excelize.Font{Family: "Arial", Size: 10}, Alignment: &excelize.Alignment{Horizontal: "center"}},
		{Font: &excelize.Font{Family: "Arial", Size: 10, Bold: true}},
		{
			Font:      &excelize.Font{Family: "Arial", Size: 12, Bold: true, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
			Border:    border,
		},
		{Font: &excelize.Font{Family: "Arial", Size: 10}, Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true}, Border: border},
		{Font: &excelize.Font{Family: "Arial", Size: 10}, Alignment: &excelize.Alignment{Horizontal: "right", Vertical: "top"}, Border: border},
		{Font: &excelize.Font{Family: "Arial", Size: 10}, Alignment: &excelize.Alignment{Horizontal: "right", Vertical: "top"}, Border: border, NumFmt: moneyNumFmt},
		{Font: &excelize.Font{Family: "Arial", Size: 10, Bold: true}, Alignment: &excelize.Alignment{Horizontal: "right"}, Border: border},
		{Font: &excelize.Font{Family: "Arial", Size: 10, Bold: true}, Alignment: &excelize.Alignment{Horizontal: "right"}, Border: border, NumFmt: moneyNumFmt},
		{Font: &excelize.Font{Family: "Arial", Size: 9, Italic: true}, Alignment: &excelize.Alignment{Horizontal: "center"}},
	}

	s := &excelStyles{}
	targets := []*int{&s.title, &s.subtitle, &s.label, &s.header, &s.cell, &s.number, &s.money, &s.summary, &s.summaryMoney, &s.footer}
	for i, d := range definitions {
		id, err := f.NewStyle(d)
		if err != nil {
			return nil, fmt.Errorf("failed to create excel style: %w", err)
		}
		*targets[i] = id
	}
	return s, nil
}

// Excel renders the report as a single-sheet workbook.
func Excel(r *Report, system string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	styles, err := newExcelStyles(f)
	if err != nil {
		return nil, err
	}

	w := &sheetWriter{f: f, row: 1, lastCol: max(len(r.Columns), 2), widths: make([]int, len(r.Columns))}

	w.merged(r.Title, styles.title)
	if r.Subtitle != "" {
		w.merged(r.Subtitle, styles.subtitle)
	}
	w.row++

	for _, info := range r.Info {
		w.set(1, info.Label, styles.label)
		w.set(2, info.Value, 0)
		w.row++
	}
	w.row++

	for i, col := range r.Columns {
		w.set(i+1, col.Header, styles.header)
		w.track(i, col.Header)
	}
	w.row++

	for _, values := range r.Rows {
		w.values(r.Columns, values, styles.cell, styles.number, styles.money)
	}
	if len(r.Summary) > 0 {
		w.values(r.Columns, r.Summary, styles.summary, styles.summary, styles.summaryMoney)
	}

	w.row++
	w.merged(r.Footer(system), styles.footer)

	for i, width := range w.widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetName, name, name, float64(min(width+2, maxColWidth))); err != nil {
			return nil, fmt.Errorf("failed to size column %s: %w", name, err)
		}
	}
	if w.err != nil {
		return nil, fmt.Errorf("failed to write report sheet: %w", w.err)
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// sheetWriter keeps the current row and the first error so the layout code
// reads top to bottom.
type sheetWriter struct {
	f       *excelize.File
	row     int
	lastCol int
	widths  []int
	err     error
}

func (w *sheetWriter) cell(col int) string {
	name, err := excelize.CoordinatesToCellName(col, w.row)
	if err != nil && w.err == nil {
		w.err = err
	}
	return name
}

func (w *sheetWriter) set(col int, value any, style int) {
	if w.err != nil {
		return
	}
	name := w.cell(col)
	if err := w.f.SetCellValue(sheetName, name, value); err != nil {
		w.err = err
		return
	}
	if style > 0 {
		w.err = w.f.SetCellStyle(sheetName, name, name, style)
	}
}

func (w *sheetWriter) merged(text string, style int) {
	if w.err != nil {
		return
	}
	first, last := w.cell(1), w.cell(w.lastCol)
	if err := w.f.MergeCell(sheetName, first, last); err != nil {
		w.err = err
		return
	}
	w.set(1, text, style)
	w.row++
}

func (w *sheetWriter) values(columns []Column, values []any, text, number, money int) {
	for i, value := range values {
		style := text
		if i < len(columns) && columns[i].Numeric {
			style = number
		}
		if d, ok := value.(decimal.Decimal); ok {
			value, style = d.InexactFloat64(), money
		}
		w.set(i+1, value, style)
		w.track(i, Text(values[i]))
	}
	w.row++
}

func (w *sheetWriter) track(col int, text string) {
	if col < len(w.widths) {
		w.widths[col] = max(w.widths[col], utf8.RuneCountInString(text))
	}
}

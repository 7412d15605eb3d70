package reports

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

const (
	pdfMargin    = 12.0
	pdfRowHeight = 6.0
)

var titleColor = [3]int{0x36, 0x60, 0x92}

func newDocument(orientation string, head Letterhead) (*fpdf.Fpdf, func(string) string) {
	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin+5)
	pdf.AliasNbPages("")
	pdf.SetTitle(head.Name, true)
	pdf.SetCreator(SystemName, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfMargin - 3)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(110, 110, 110)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	return pdf, tr
}

func output(pdf *fpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// PDF renders the report as a landscape A4 table under the letterhead. The
// header row is repeated on every page.
func PDF(r *Report, head Letterhead) ([]byte, error) {
	pdf, tr := newDocument("L", head)
	pdf.AddPage()
	head.draw(pdf, tr)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(titleColor[0], titleColor[1], titleColor[2])
	pdf.CellFormat(0, 8, tr(r.Title), "", 1, "C", false, 0, "")
	if r.Subtitle != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(0, 6, tr(r.Subtitle), "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetTextColor(0, 0, 0)
	for _, info := range r.Info {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(40, 5, tr(info.Label+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 5, tr(info.Value), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	widths := columnWidths(pdf, r.Columns)
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(titleColor[0], titleColor[1], titleColor[2])
		pdf.SetTextColor(255, 255, 255)
		pdf.SetDrawColor(128, 128, 128)
		for i, col := range r.Columns {
			pdf.CellFormat(widths[i], pdfRowHeight+1, tr(col.Header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
	}
	row := func(values []any, style string, fill bool) {
		if pdf.GetY()+pdfRowHeight > pageHeight-bottom {
			pdf.AddPage()
			header()
		}
		pdf.SetFont("Helvetica", style, 8)
		pdf.SetFillColor(240, 240, 240)
		for i := range r.Columns {
			var text string
			if i < len(values) {
				text = tr(Text(values[i]))
			}
			align := "L"
			if r.Columns[i].Numeric {
				align = "R"
			}
			pdf.CellFormat(widths[i], pdfRowHeight, fit(pdf, text, widths[i]), "1", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	header()
	for i, values := range r.Rows {
		row(values, "", i%2 == 1)
	}
	if len(r.Rows) == 0 {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(sum(widths), pdfRowHeight, tr("No data."), "1", 1, "C", false, 0, "")
	}
	if len(r.Summary) > 0 {
		row(r.Summary, "B", false)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(0, 5, tr(r.Footer(SystemName)), "", 1, "C", false, 0, "")

	return output(pdf)
}

// columnWidths scales the relative column widths to the printable width.
func columnWidths(pdf *fpdf.Fpdf, columns []Column) []float64 {
	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	printable := pageWidth - left - right

	total := 0.0
	for _, col := range columns {
		total += col.Width
	}
	widths := make([]float64, len(columns))
	for i, col := range columns {
		if total == 0 {
			widths[i] = printable / float64(len(columns))
			continue
		}
		widths[i] = printable * col.Width / total
	}
	return widths
}

// fit shortens text with an ellipsis until it fits the cell. text is already
// translated to the single-byte font encoding, so it is trimmed by bytes.
func fit(pdf *fpdf.Fpdf, text string, width float64) string {
	const padding = 2.0
	if pdf.GetStringWidth(text) <= width-padding {
		return text
	}
	n := len(text)
	for n > 0 && pdf.GetStringWidth(text[:n]+"...") > width-padding {
		n--
	}
	return text[:n] + "..."
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

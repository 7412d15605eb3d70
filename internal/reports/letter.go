package reports

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/takdim/inven-go/pkg/models"
)

const (
	letterLabelWidth = 48.0
	letterLineHeight = 5.5
)

// LetterNumber is the reference printed under the letter heading.
func LetterNumber(report *models.DamageReportView) string {
	return fmt.Sprintf("%04d/DR/%s", report.ID, report.CreatedAt.Format("01/2006"))
}

func LetterFilename(report *models.DamageReportView, now time.Time) string {
	return fmt.Sprintf("Damage_Report_%s_%s.pdf", report.AssetCode, now.Format(fileTimeLayout))
}

func letterFields(report *models.DamageReportView) []Info {
	reporter := "Public form"
	if report.ReporterName != nil && *report.ReporterName != "" {
		reporter = *report.ReporterName
	}
	return []Info{
		{Label: "Asset code", Value: report.AssetCode},
		{Label: "Asset name", Value: report.AssetName},
		{Label: "Date discovered", Value: report.DiscoveredOn.Format("02 January 2006")},
		{Label: "User", Value: report.UserName},
		{Label: "Location", Value: report.Location},
		{Label: "Quantity", Value: strconv.Itoa(report.Quantity)},
		{Label: "Damage", Value: report.Damage},
		{Label: "Cause", Value: dash(report.Cause)},
		{Label: "Action taken", Value: dash(report.ActionTaken)},
		{Label: "Current condition", Value: dash(report.CurrentCondition)},
		{Label: "Impact", Value: dash(report.Impact)},
		{Label: "Status", Value: report.DamageStatus().Label()},
		{Label: "Recorded by", Value: reporter},
	}
}

// DamageLetter renders a damage report as a signed portrait A4 letter.
func DamageLetter(report *models.DamageReportView, head Letterhead, now time.Time) ([]byte, error) {
	pdf, tr := newDocument("P", head)
	pdf.AddPage()
	head.draw(pdf, tr)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "BU", 13)
	pdf.CellFormat(0, 7, tr("ASSET DAMAGE REPORT"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr("No. "+LetterNumber(report)), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, letterLineHeight, tr(fmt.Sprintf(
		"The following damage to an asset of %s was reported on %s:",
		head.Name, report.CreatedAt.Format("02 January 2006"),
	)), "", "J", false)
	pdf.Ln(3)

	fieldTable(pdf, tr, letterFields(report))
	pdf.Ln(5)

	pdf.MultiCell(0, letterLineHeight, tr(
		"This report is made truthfully to be followed up by the responsible unit.",
	), "", "J", false)
	pdf.Ln(8)

	signatures(pdf, tr, report.UserName, now)

	return output(pdf)
}

// fieldTable draws bordered label/value rows, wrapping long values.
func fieldTable(pdf *fpdf.Fpdf, tr func(string) string, fields []Info) {
	left, _, right, bottom := pdf.GetMargins()
	pageWidth, pageHeight := pdf.GetPageSize()
	valueWidth := pageWidth - left - right - letterLabelWidth

	pdf.SetDrawColor(128, 128, 128)
	for _, field := range fields {
		pdf.SetFont("Helvetica", "", 10)
		lines := pdf.SplitText(tr(field.Value), valueWidth-2)
		if len(lines) == 0 {
			lines = []string{""}
		}
		height := float64(len(lines)) * letterLineHeight
		if pdf.GetY()+height > pageHeight-bottom {
			pdf.AddPage()
		}

		x, y := pdf.GetX(), pdf.GetY()
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(letterLabelWidth, height, tr(field.Label), "1", 0, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetXY(x+letterLabelWidth, y)
		pdf.MultiCell(valueWidth, letterLineHeight, tr(field.Value), "1", "L", false)
		pdf.SetXY(x, y+height)
	}
}

func signatures(pdf *fpdf.Fpdf, tr func(string) string, reporter string, now time.Time) {
	left, _, right, bottom := pdf.GetMargins()
	pageWidth, pageHeight := pdf.GetPageSize()
	column := (pageWidth - left - right) / 2

	if pdf.GetY()+50 > pageHeight-bottom {
		pdf.AddPage()
	}

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetX(left + column)
	pdf.CellFormat(column, letterLineHeight, tr(now.Format("02 January 2006")), "", 1, "C", false, 0, "")
	pdf.CellFormat(column, letterLineHeight, tr("Reported by,"), "", 0, "C", false, 0, "")
	pdf.CellFormat(column, letterLineHeight, tr("Acknowledged by,"), "", 1, "C", false, 0, "")
	pdf.Ln(25)

	pdf.SetFont("Helvetica", "BU", 10)
	pdf.CellFormat(column, letterLineHeight, tr(reporter), "", 0, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(column, letterLineHeight, "(_______________________)", "", 1, "C", false, 0, "")
	pdf.CellFormat(column, letterLineHeight, tr("Asset user"), "", 0, "C", false, 0, "")
	pdf.CellFormat(column, letterLineHeight, tr("Asset manager"), "", 1, "C", false, 0, "")
}

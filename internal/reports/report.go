package reports

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/takdim/inven-go/internal/web"
	"github.com/takdim/inven-go/pkg/models"
)

const fileTimeLayout = "20060102_150405"

// Column is a report column. Width is relative and only used by the PDF
// renderer; numeric columns are right aligned in both renderers.
type Column struct {
	Header  string
	Width   float64
	Numeric bool
}

// Info is a label/value line printed above the table.
type Info struct {
	Label string
	Value string
}

// Report is a tabular document independent of its output format. Cells hold string, int or
// decimal.Decimal values.
type Report struct {
	Name        string
	Title       string
	Subtitle    string
	Info        []Info
	Columns     []Column
	Rows        [][]any
	Summary     []any
	GeneratedAt time.Time
}

// Filename is <Name>_YYYYmmdd_HHMMSS.<ext>.
func (r *Report) Filename(ext string) string {
	return fmt.Sprintf("%s_%s.%s", r.Name, r.GeneratedAt.Format(fileTimeLayout), ext)
}

func (r *Report) Footer(system string) string {
	return fmt.Sprintf("Generated by %s on %s", system, r.GeneratedAt.Format("02/01/2006 15:04"))
}

// Text formats a cell value the same way in every output.
func Text(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case decimal.Decimal:
		return web.Money(v)
	default:
		return fmt.Sprint(v)
	}
}

func dash(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "-"
	}
	return *s
}

func generated(now time.Time) Info {
	return Info{Label: "Generated", Value: now.Format("02/01/2006 15:04")}
}

func ItemsReport(list []models.ItemStock, filters []Info, now time.Time) *Report {
	r := &Report{
		Name:     "Item_Report",
		Title:    "ITEM STOCK REPORT",
		Subtitle: "As of " + now.Format("02 January 2006"),
		Info: append(append([]Info{}, filters...),
			Info{Label: "Total items", Value: fmt.Sprintf("%d item(s)", len(list))},
			generated(now),
		),
		Columns: []Column{
			{Header: "No", Width: 8, Numeric: true},
			{Header: "Code", Width: 22},
			{Header: "Name", Width: 50},
			{Header: "Category", Width: 30},
			{Header: "Brand", Width: 28},
			{Header: "Unit", Width: 16},
			{Header: "Opening", Width: 18, Numeric: true},
			{Header: "In", Width: 16, Numeric: true},
			{Header: "Out", Width: 16, Numeric: true},
			{Header: "Ending", Width: 18, Numeric: true},
			{Header: "Status", Width: 20},
		},
		GeneratedAt: now,
	}

	var opening, in, out, ending int
	for i, item := range list {
		r.Rows = append(r.Rows, []any{
			i + 1,
			item.Code,
			item.Name,
			dash(item.CategoryName),
			dash(item.BrandName),
			item.Unit,
			item.OpeningStock,
			item.TotalIn,
			item.TotalOut,
			item.Ending(),
			item.Status().Label(),
		})
		opening += item.OpeningStock
		in += item.TotalIn
		out += item.TotalOut
		ending += item.Ending()
	}
	r.Summary = []any{"", "", "", "", "", "TOTAL", opening, in, out, ending, ""}
	return r
}

func ContractsReport(list []models.ContractSummary, filters []Info, now time.Time) *Report {
	r := &Report{
		Name:     "Contract_Report",
		Title:    "CONTRACT REPORT",
		Subtitle: "As of " + now.Format("02 January 2006"),
		Info: append(append([]Info{}, filters...),
			Info{Label: "Total contracts", Value: fmt.Sprintf("%d contract(s)", len(list))},
			generated(now),
		),
		Columns: []Column{
			{Header: "No", Width: 8, Numeric: true},
			{Header: "Contract number", Width: 60},
			{Header: "Date", Width: 25},
			{Header: "Lines", Width: 18, Numeric: true},
			{Header: "Total quantity", Width: 25, Numeric: true},
			{Header: "Total value", Width: 35, Numeric: true},
		},
		GeneratedAt: now,
	}

	quantity, value := 0, decimal.Zero
	for i, contract := range list {
		r.Rows = append(r.Rows, []any{
			i + 1,
			contract.Number,
			contract.Date.Format("02/01/2006"),
			contract.LineCount,
			contract.TotalQuantity,
			contract.TotalValue,
		})
		quantity += contract.TotalQuantity
		value = value.Add(contract.TotalValue)
	}
	r.Summary = []any{"", "", "", "TOTAL", quantity, value}
	return r
}

// MovementsReport lists one ledger. The subtitle names the period when both
// bounds are set.
func MovementsReport(direction models.Direction, list []models.Movement, from, to *time.Time, filters []Info, now time.Time) *Report {
	name := "Stock_In_Report"
	if direction == models.StockOut {
		name = "Stock_Out_Report"
	}

	r := &Report{
		Name:     name,
		Title:    strings.ToUpper(direction.Label()) + " REPORT",
		Subtitle: "As of " + now.Format("02 January 2006"),
		Info:     append([]Info{}, filters...),
		Columns: []Column{
			{Header: "No", Width: 8, Numeric: true},
			{Header: "Date", Width: 22},
			{Header: "Item code", Width: 24},
			{Header: "Item name", Width: 55},
			{Header: "Quantity", Width: 18, Numeric: true},
			{Header: "Unit", Width: 16},
			{Header: "Note", Width: 60},
		},
		GeneratedAt: now,
	}
	if from != nil && to != nil {
		r.Subtitle = fmt.Sprintf("Period %s - %s", from.Format("02/01/2006"), to.Format("02/01/2006"))
	}
	r.Info = append(r.Info,
		Info{Label: "Total entries", Value: fmt.Sprintf("%d entr(ies)", len(list))},
		generated(now),
	)

	total := 0
	for i, m := range list {
		r.Rows = append(r.Rows, []any{
			i + 1,
			m.Date.Format("02/01/2006"),
			m.ItemCode,
			m.ItemName,
			m.Quantity,
			m.ItemUnit,
			dash(m.Note),
		})
		total += m.Quantity
	}
	r.Summary = []any{"", "", "", "TOTAL", total, "", ""}
	return r
}

func AssetsReport(list []models.AssetView, filters []Info, now time.Time) *Report {
	r := &Report{
		Name:     "Fixed_Asset_Report",
		Title:    "FIXED ASSET REPORT",
		Subtitle: "As of " + now.Format("02 January 2006"),
		Info: append(append([]Info{}, filters...),
			Info{Label: "Total assets", Value: fmt.Sprintf("%d asset(s)", len(list))},
			generated(now),
		),
		Columns: []Column{
			{Header: "No", Width: 8, Numeric: true},
			{Header: "Code", Width: 22},
			{Header: "Name", Width: 45},
			{Header: "Category", Width: 28},
			{Header: "Asset brand", Width: 28},
			{Header: "Contract", Width: 30},
			{Header: "Location", Width: 35},
			{Header: "User", Width: 32},
			{Header: "Units", Width: 14, Numeric: true},
		},
		GeneratedAt: now,
	}

	units := 0
	for i, asset := range list {
		r.Rows = append(r.Rows, []any{
			i + 1,
			asset.Code,
			asset.Name,
			dash(asset.CategoryName),
			dash(asset.AssetBrandName),
			dash(asset.ContractNumber),
			dash(asset.Location),
			dash(asset.UserName),
			asset.UnitCount,
		})
		units += asset.UnitCount
	}
	r.Summary = []any{"", "", "", "", "", "", "", "TOTAL", units}
	return r
}

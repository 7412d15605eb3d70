package reports

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
)

const SystemName = "Inven-Go"

var logoCandidates = []string{"static/img/logo.png", "static/logo.png", "assets/logo.png"}

// ResolveLogo returns the configured logo when it exists, else the first
// existing fallback, else "".
func ResolveLogo(configured string) string {
	for _, path := range append([]string{configured}, logoCandidates...) {
		if strings.TrimSpace(path) == "" || !isImage(path) {
			continue
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func isImage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg":
		return true
	default:
		return false
	}
}

// Letterhead is printed at the top of every document.
type Letterhead struct {
	Name    string
	Address string
	Logo    string
}

func NewLetterhead(name, address, logoPath string) Letterhead {
	return Letterhead{Name: name, Address: address, Logo: ResolveLogo(logoPath)}
}

const logoSize = 20.0

func (l Letterhead) draw(pdf *fpdf.Fpdf, tr func(string) string) {
	left, top, right, _ := pdf.GetMargins()
	width, _ := pdf.GetPageSize()

	if l.Logo != "" {
		pdf.ImageOptions(l.Logo, left, top, logoSize, 0, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
	}

	pdf.SetXY(left, top+2)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(0, 8, tr(strings.ToUpper(l.Name)), "", 1, "C", false, 0, "")
	if l.Address != "" {
		pdf.SetFont("Helvetica", "", 9)
		for _, line := range strings.Split(l.Address, "\n") {
			pdf.CellFormat(0, 5, tr(strings.TrimSpace(line)), "", 1, "C", false, 0, "")
		}
	}

	y := max(pdf.GetY(), top+logoSize) + 2
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.8)
	pdf.Line(left, y, width-right, y)
	pdf.SetLineWidth(0.2)
	pdf.Line(left, y+1, width-right, y+1)
	pdf.SetY(y + 5)
}

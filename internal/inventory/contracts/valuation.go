package contracts

import (
	"github.com/shopspring/decimal"

	"github.com/takdim/inven-go/pkg/models"
)

// Valuation is the worth of a set of contract lines.
type Valuation struct {
	TotalValue    decimal.Decimal
	TotalQuantity int
}

// Valuate sums quantity times unit price over priced lines. Every line
// counts toward the quantity.
func Valuate(lines []models.ContractLine) Valuation {
	v := Valuation{TotalValue: decimal.Zero}
	for _, line := range lines {
		v.TotalQuantity += line.Quantity
		v.TotalValue = v.TotalValue.Add(line.Subtotal())
	}
	return v
}

package stock

// Ending returns opening + in - out. The result is not clamped.
func Ending(opening, totalIn, totalOut int) int {
	return opening + totalIn - totalOut
}

// Totals are the ledger sums for one item.
type Totals struct {
	Opening int `db:"opening_stock"`
	In      int `db:"total_in"`
	Out     int `db:"total_out"`
}

func (t Totals) Ending() int {
	return Ending(t.Opening, t.In, t.Out)
}

// AvailableFor is the stock a replacement of an existing stock-out row may use.
func (t Totals) AvailableFor(replacedQuantity int) int {
	return t.Ending() + replacedQuantity
}

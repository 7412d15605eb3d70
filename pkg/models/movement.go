package models

import "time"

// Direction selects the stock-in or stock-out ledger.
type Direction string

const (
	StockIn  Direction = "in"
	StockOut Direction = "out"
)

func (d Direction) Table() string {
	if d == StockOut {
		return "stock_out"
	}
	return "stock_in"
}

func (d Direction) Label() string {
	if d == StockOut {
		return "Stock out"
	}
	return "Stock in"
}

// Path is the URL prefix of the ledger pages.
func (d Direction) Path() string {
	if d == StockOut {
		return "/stock-out"
	}
	return "/stock-in"
}

// Movement is one ledger row.
type Movement struct {
	ID        int       `json:"id" db:"id"`
	Date      time.Time `json:"date" db:"entry_date"`
	ItemCode  string    `json:"item_code" db:"item_code"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Note      *string   `json:"note,omitempty" db:"note"`
	ItemName  string    `json:"item_name" db:"item_name"`
	ItemUnit  string    `json:"item_unit" db:"item_unit"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Direction Direction `json:"direction" db:"-"`
}

func (m *Movement) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   m.ID,
		ResourceType: m.Direction.Table(),
	}
}

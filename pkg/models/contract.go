package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Contract struct {
	ID          int       `json:"id" db:"id"`
	Number      string    `json:"number" db:"number"`
	Date        time.Time `json:"date" db:"contract_date"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

func (c *Contract) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   c.ID,
		ResourceType: "contract",
	}
}

// ContractSummary carries the aggregated line totals of a contract.
type ContractSummary struct {
	Contract
	LineCount     int             `json:"line_count" db:"line_count"`
	TotalQuantity int             `json:"total_quantity" db:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value" db:"total_value"`
}

type ContractLine struct {
	ID         int                 `json:"id" db:"id"`
	ItemID     int                 `json:"item_id" db:"item_id"`
	ContractID int                 `json:"contract_id" db:"contract_id"`
	Quantity   int                 `json:"quantity" db:"quantity"`
	UnitPrice  decimal.NullDecimal `json:"unit_price" db:"unit_price"`
	ItemCode   string              `json:"item_code" db:"item_code"`
	ItemName   string              `json:"item_name" db:"item_name"`
	ItemUnit   string              `json:"item_unit" db:"item_unit"`
	Number     string              `json:"contract_number" db:"contract_number"`
	Date       time.Time           `json:"contract_date" db:"contract_date"`
}

// Subtotal is quantity times unit price, zero when the line has no price.
func (l ContractLine) Subtotal() decimal.Decimal {
	if !l.UnitPrice.Valid {
		return decimal.Zero
	}
	return l.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l *ContractLine) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   l.ID,
		ResourceType: "contract_line",
	}
}

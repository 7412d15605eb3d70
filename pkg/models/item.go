package models

import (
	"time"

	"github.com/takdim/inven-go/pkg/stock"
)

type Item struct {
	ID            int       `json:"id" db:"id"`
	Code          string    `json:"code" db:"code"`
	Name          string    `json:"name" db:"name"`
	Unit          string    `json:"unit" db:"unit"`
	SecondaryUnit *string   `json:"secondary_unit,omitempty" db:"secondary_unit"`
	Kind          string    `json:"kind" db:"kind"`
	OpeningStock  int       `json:"opening_stock" db:"opening_stock"`
	MinimumStock  int       `json:"minimum_stock" db:"minimum_stock"`
	CategoryID    *int      `json:"category_id,omitempty" db:"category_id"`
	BrandID       *int      `json:"brand_id,omitempty" db:"brand_id"`
	Spec          *string   `json:"spec,omitempty" db:"spec"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// StockKind falls back to consumable for unknown stored values.
func (i Item) StockKind() stock.Kind {
	kind, err := stock.ParseKind(i.Kind)
	if err != nil {
		return stock.Consumable
	}
	return kind
}

func (i *Item) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   i.ID,
		ResourceType: "item",
	}
}

// ItemStock is an item joined with its catalog names and ledger sums.
type ItemStock struct {
	Item
	CategoryName *string `json:"category_name,omitempty" db:"category_name"`
	BrandName    *string `json:"brand_name,omitempty" db:"brand_name"`
	TotalIn      int     `json:"total_in" db:"total_in"`
	TotalOut     int     `json:"total_out" db:"total_out"`
}

func (s ItemStock) Totals() stock.Totals {
	return stock.Totals{Opening: s.OpeningStock, In: s.TotalIn, Out: s.TotalOut}
}

func (s ItemStock) Ending() int {
	return s.Totals().Ending()
}

func (s ItemStock) Status() stock.Status {
	return s.StockKind().Classify(s.Ending(), s.MinimumStock)
}

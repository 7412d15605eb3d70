package models

import "time"

type Category struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	ItemCount   int       `json:"item_count" db:"item_count"`
	AssetCount  int       `json:"asset_count" db:"asset_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

func (c *Category) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   c.ID,
		ResourceType: "category",
	}
}

// Brand is a brand of consumable items.
type Brand struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Type      *string   `json:"type,omitempty" db:"type"`
	Spec      *string   `json:"spec,omitempty" db:"spec"`
	ItemCount int       `json:"item_count" db:"item_count"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (b *Brand) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   b.ID,
		ResourceType: "brand",
	}
}

// AssetBrand is a brand of fixed assets, carrying its procurement data.
type AssetBrand struct {
	ID              int        `json:"id" db:"id"`
	Name            string     `json:"name" db:"name"`
	Type            *string    `json:"type,omitempty" db:"type"`
	AcquisitionDate *time.Time `json:"acquisition_date,omitempty" db:"acquisition_date"`
	ContractNumber  *string    `json:"contract_number,omitempty" db:"contract_number"`
	Spec            *string    `json:"spec,omitempty" db:"spec"`
	AssetCount      int        `json:"asset_count" db:"asset_count"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

func (b *AssetBrand) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   b.ID,
		ResourceType: "asset_brand",
	}
}

// Option is an id/label pair used to fill select inputs.
type Option struct {
	ID    int    `db:"id"`
	Label string `db:"label"`
}

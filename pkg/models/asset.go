package models

import "time"

// Asset is a fixed asset.
type Asset struct {
	ID             int        `json:"id" db:"id"`
	Code           string     `json:"code" db:"code"`
	Name           string     `json:"name" db:"name"`
	CategoryID     *int       `json:"category_id,omitempty" db:"category_id"`
	AssetBrandID   *int       `json:"asset_brand_id,omitempty" db:"asset_brand_id"`
	Spec           *string    `json:"spec,omitempty" db:"spec"`
	Unit           *string    `json:"unit,omitempty" db:"unit"`
	ContractNumber *string    `json:"contract_number,omitempty" db:"contract_number"`
	ContractDate   *time.Time `json:"contract_date,omitempty" db:"contract_date"`
	Location       *string    `json:"location,omitempty" db:"location"`
	UserName       *string    `json:"user_name,omitempty" db:"user_name"`
	UnitCount      int        `json:"unit_count" db:"unit_count"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

func (a *Asset) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   a.ID,
		ResourceType: "asset",
	}
}

type AssetView struct {
	Asset
	CategoryName   *string `json:"category_name,omitempty" db:"category_name"`
	AssetBrandName *string `json:"asset_brand_name,omitempty" db:"asset_brand_name"`
	DamageReports  int     `json:"damage_reports" db:"damage_reports"`
}

// AssignedAsset is the public view of an asset held by a named user.
type AssignedAsset struct {
	ID           int     `json:"id" db:"id"`
	Code         string  `json:"code" db:"code"`
	Name         string  `json:"name" db:"name"`
	Location     *string `json:"location" db:"location"`
	CategoryName *string `json:"category" db:"category_name"`
	BrandName    *string `json:"brand" db:"asset_brand_name"`
	UnitCount    int     `json:"unit_count" db:"unit_count"`
}

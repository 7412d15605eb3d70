package models

import (
	"time"

	"github.com/takdim/inven-go/pkg/metadata"
)

type DamageReport struct {
	ID               int        `json:"id" db:"id"`
	AssetID          int        `json:"asset_id" db:"asset_id"`
	ReporterID       *int       `json:"reporter_id" db:"reporter_id"`
	DiscoveredOn     time.Time  `json:"discovered_on" db:"discovered_on"`
	UserName         string     `json:"user_name" db:"user_name"`
	Location         string     `json:"location" db:"location"`
	Quantity         int        `json:"quantity" db:"quantity"`
	Damage           string     `json:"damage" db:"damage"`
	Cause            *string    `json:"cause,omitempty" db:"cause"`
	ActionTaken      *string    `json:"action_taken,omitempty" db:"action_taken"`
	CurrentCondition *string    `json:"current_condition,omitempty" db:"current_condition"`
	Impact           *string    `json:"impact,omitempty" db:"impact"`
	Status           string     `json:"status" db:"status"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

func (d DamageReport) DamageStatus() metadata.DamageStatus {
	return metadata.DamageStatus(d.Status)
}

func (d *DamageReport) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   d.ID,
		ResourceType: "damage_report",
	}
}

type DamageReportView struct {
	DamageReport
	AssetCode    string  `json:"asset_code" db:"asset_code"`
	AssetName    string  `json:"asset_name" db:"asset_name"`
	ReporterName *string `json:"reporter_name,omitempty" db:"reporter_name"`
}
